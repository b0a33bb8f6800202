package main

import (
	"airdrop_farmer/internal/app/bootstrap"
	"airdrop_farmer/internal/app/service"
	"airdrop_farmer/internal/pkg/logger"
)

func main() {
	ctx, cancel := bootstrap.SignalContext()
	defer cancel()

	app, err := bootstrap.Init(bootstrap.ConfigPath(), "tx_counter")
	if err != nil {
		logger.Fatal("Не удалось инициализировать приложение", "ошибка", err)
	}
	defer app.Close()

	accounts, err := app.Accounts()
	if err != nil {
		logger.Fatal("Не удалось загрузить аккаунты", "ошибка", err)
	}

	book, err := app.Ledger("tx_count.xlsx")
	if err != nil {
		logger.Fatal("Не удалось открыть таблицу", "ошибка", err)
	}
	defer book.Close()

	counter := service.NewTxCounter(app.Chains, book, app.Cfg.Performance.MaxConcurrentRoutines, app.Log)
	summary, err := app.Runner().Run(ctx, accounts, counter)
	if err != nil {
		logger.Warn("Прогон прерван", "ошибка", err)
	}
	logger.Info("Подсчёт транзакций завершён", "успешно", summary.Success, "ошибки", summary.Failed+summary.Timeout)
}
