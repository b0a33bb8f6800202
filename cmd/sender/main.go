package main

import (
	"airdrop_farmer/internal/app/bootstrap"
	"airdrop_farmer/internal/app/service"
	"airdrop_farmer/internal/pkg/logger"
	"airdrop_farmer/internal/pkg/utils"

	"github.com/shopspring/decimal"
)

func main() {
	ctx, cancel := bootstrap.SignalContext()
	defer cancel()

	app, err := bootstrap.Init(bootstrap.ConfigPath(), "sender")
	if err != nil {
		logger.Fatal("Не удалось инициализировать приложение", "ошибка", err)
	}
	defer app.Close()

	cfg := app.Cfg.Sender
	chain, err := app.Chain(cfg.Chain)
	if err != nil {
		logger.Fatal("Неизвестная сеть", "сеть", cfg.Chain, "ошибка", err)
	}

	var deposits []string
	if cfg.AddressesFile != "" {
		if deposits, err = utils.ReadLines(app.Cfg.DataPath(cfg.AddressesFile), true); err != nil {
			logger.Fatal("Не удалось прочитать адреса депозита", "файл", cfg.AddressesFile, "ошибка", err)
		}
		logger.Info("Адреса депозита загружены", "количество", len(deposits))
	}

	accounts, err := app.Accounts()
	if err != nil {
		logger.Fatal("Не удалось загрузить аккаунты", "ошибка", err)
	}
	if len(deposits) > 0 && len(deposits) < len(accounts) {
		logger.Warn("Адресов депозита меньше, чем аккаунтов", "адресов", len(deposits), "аккаунтов", len(accounts))
	}

	book, err := app.Ledger("accounts.xlsx")
	if err != nil {
		logger.Fatal("Не удалось открыть таблицу аккаунтов", "ошибка", err)
	}
	defer book.Close()

	sender, err := service.NewSender(service.SenderOptions{
		Chain:    chain,
		Token:    cfg.Token,
		Amount:   decimal.NewFromFloat(cfg.Amount),
		GasLimit: decimal.NewFromFloat(app.Cfg.Settings.GasPriceLimit),
		Deposits: deposits,
		Tokens:   app.Tokens,
		Ledger:   book,
		Logger:   app.Log,
	})
	if err != nil {
		logger.Fatal("Некорректные настройки sender", "ошибка", err)
	}

	summary, err := app.Runner().Run(ctx, accounts, sender)
	if err != nil {
		logger.Warn("Прогон прерван", "ошибка", err)
	}
	logger.Info("Отправка завершена", "успешно", summary.Success, "таймаут", summary.Timeout, "ошибки", summary.Failed)
}
