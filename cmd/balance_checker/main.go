package main

import (
	"airdrop_farmer/internal/app/bootstrap"
	"airdrop_farmer/internal/app/port"
	"airdrop_farmer/internal/app/service"
	"airdrop_farmer/internal/infrastructure/exchange"
	"airdrop_farmer/internal/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := bootstrap.SignalContext()
	defer cancel()

	app, err := bootstrap.Init(bootstrap.ConfigPath(), "balance_checker")
	if err != nil {
		logger.Fatal("Не удалось инициализировать приложение", "ошибка", err)
	}
	defer app.Close()

	cfg := app.Cfg.BalanceChecker
	chain, err := app.Chain(cfg.Chain)
	if err != nil {
		logger.Fatal("Неизвестная сеть", "сеть", cfg.Chain, "ошибка", err)
	}

	accounts, err := app.Accounts()
	if err != nil {
		logger.Fatal("Не удалось загрузить аккаунты", "ошибка", err)
	}

	book, err := app.Ledger("balances.xlsx")
	if err != nil {
		logger.Fatal("Не удалось открыть таблицу балансов", "ошибка", err)
	}
	defer book.Close()

	var prices port.TokenPriceService
	if cfg.WithPrice {
		// публичный тикер Binance, ключи не нужны
		binance, err := exchange.NewBinance(exchange.Credentials{}, app.Cfg.Settings.BinanceProxy, app.Zap.Named("binance"))
		if err != nil {
			logger.Fatal("Не удалось создать клиент Binance", "ошибка", err)
		}
		prices = service.NewTokenPriceService(binance, 0, app.Log)
	}

	checker, err := service.NewBalanceChecker(service.BalanceCheckerOptions{
		Mode:     cfg.Mode,
		Chain:    chain,
		Contract: cfg.Contract,
		Tokens:   app.Tokens,
		Prices:   prices,
		Ledger:   book,
		Logger:   app.Log,
	})
	if err != nil {
		logger.Fatal("Некорректные настройки balance_checker", "ошибка", err)
	}

	logger.Info("Проверка балансов запускается", "режим", cfg.Mode, "сеть", chain.Name, "аккаунтов", len(accounts))
	summary, err := app.Runner().Run(ctx, accounts, checker)
	if err != nil {
		app.Zap.Warn("Прогон прерван", zap.Error(err))
	}
	logger.Info("Проверка балансов завершена", "успешно", summary.Success, "таймаут", summary.Timeout, "ошибки", summary.Failed)
}
