package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"airdrop_farmer/internal/app/bootstrap"
	"airdrop_farmer/internal/app/service"
	"airdrop_farmer/internal/infrastructure/exchange"
	"airdrop_farmer/internal/infrastructure/restapi"
	"airdrop_farmer/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/exp/zapslog"
)

const swaggerSpecPath = "docs/swagger.yaml"

func main() {
	ctx, cancel := bootstrap.SignalContext()
	defer cancel()

	app, err := bootstrap.Init(bootstrap.ConfigPath(), "checker")
	if err != nil {
		logger.Fatal("Не удалось инициализировать приложение", "ошибка", err)
	}
	defer app.Close()
	cfg := app.Cfg

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	binance, err := exchange.NewBinance(exchange.Credentials{}, cfg.Settings.BinanceProxy, app.Zap.Named("binance"))
	if err != nil {
		logger.Fatal("Не удалось создать клиент Binance", "ошибка", err)
	}
	prices := service.NewTokenPriceService(binance, 0, app.Log)

	portfolioService := service.NewPortfolioService(
		app.Chains,
		app.Tokens,
		app.Provider,
		prices,
		app.Log,
		cfg.Performance.MaxConcurrentRoutines,
		0,
	)
	logger.Info("PortfolioService успешно инициализирован.")

	routerOpts := restapi.RouterOptions{
		// access-лог HTTP слоя пишется в zap напрямую
		Logger: slog.New(zapslog.NewHandler(app.Zap.Named("http").Core())),
	}
	if cfg.Server.Swagger {
		if _, err := os.Stat(swaggerSpecPath); err == nil {
			routerOpts.SwaggerSpec = swaggerSpecPath
		} else {
			logger.Warn("swagger.yaml не найден, Swagger UI отключён", "путь", swaggerSpecPath)
		}
	}
	router := restapi.SetupRouter(restapi.NewPortfolioHandler(portfolioService, app.Log), routerOpts)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Запуск HTTP сервера", "адрес", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Не удалось запустить HTTP сервер", "ошибка", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Получен сигнал завершения. Завершение работы HTTP сервера...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка при Graceful Shutdown HTTP сервера", "ошибка", err)
	} else {
		logger.Info("HTTP сервер успешно остановлен.")
	}
}
