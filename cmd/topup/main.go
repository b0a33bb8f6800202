package main

import (
	"airdrop_farmer/internal/app/bootstrap"
	"airdrop_farmer/internal/app/service"
	"airdrop_farmer/internal/infrastructure/exchange"
	"airdrop_farmer/internal/pkg/logger"

	"github.com/shopspring/decimal"
)

func main() {
	ctx, cancel := bootstrap.SignalContext()
	defer cancel()

	app, err := bootstrap.Init(bootstrap.ConfigPath(), "topup")
	if err != nil {
		logger.Fatal("Не удалось инициализировать приложение", "ошибка", err)
	}
	defer app.Close()

	cfg := app.Cfg.Topup
	target, err := app.Chain(cfg.TargetChain)
	if err != nil {
		logger.Fatal("Неизвестная целевая сеть", "сеть", cfg.TargetChain, "ошибка", err)
	}
	withdrawChain := target
	if cfg.WithdrawChain != "" {
		if withdrawChain, err = app.Chains.Get(cfg.WithdrawChain); err != nil {
			logger.Fatal("Неизвестная сеть вывода", "сеть", cfg.WithdrawChain, "ошибка", err)
		}
	}

	ex, err := exchange.New(cfg.SourceExchange, app.Cfg, app.Zap.Named(cfg.SourceExchange))
	if err != nil {
		logger.Fatal("Не удалось создать клиент биржи", "биржа", cfg.SourceExchange, "ошибка", err)
	}

	opts := service.TopupOptions{
		Exchange:      ex,
		TargetChain:   target,
		WithdrawChain: withdrawChain,
		TargetAmount:  decimal.NewFromFloat(cfg.TargetAmount),
		Logger:        app.Log,
	}
	if cfg.CollectSubAccounts {
		okx, ok := ex.(*exchange.OKX)
		if !ok {
			logger.Warn("Сбор субаккаунтов поддерживается только для OKX, пропускаю")
		} else {
			opts.Collector = okx
		}
	}

	topup, err := service.NewTopup(opts)
	if err != nil {
		logger.Fatal("Некорректные настройки topup", "ошибка", err)
	}

	accounts, err := app.Accounts()
	if err != nil {
		logger.Fatal("Не удалось загрузить аккаунты", "ошибка", err)
	}

	logger.Info("Пополнение запускается", "сеть", target.Name, "биржа", ex.Name(), "цель", cfg.TargetAmount)
	summary, err := app.Runner().Run(ctx, accounts, topup)
	if err != nil {
		logger.Warn("Прогон прерван", "ошибка", err)
	}
	logger.Info("Пополнение завершено", "успешно", summary.Success, "таймаут", summary.Timeout, "ошибки", summary.Failed)
}
