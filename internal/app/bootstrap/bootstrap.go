// Package bootstrap собирает общие зависимости бинарников: конфиг, логгер,
// каталоги сетей и токенов, провайдер клиентов и аккаунты.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"airdrop_farmer/internal/app/port"
	"airdrop_farmer/internal/app/service"
	"airdrop_farmer/internal/domain/entity"
	"airdrop_farmer/internal/infrastructure/accountloader"
	"airdrop_farmer/internal/infrastructure/configloader"
	"airdrop_farmer/internal/infrastructure/ledger"
	clientprovider "airdrop_farmer/internal/infrastructure/network/client"
	networkdefinition "airdrop_farmer/internal/infrastructure/network/definition"
	"airdrop_farmer/internal/infrastructure/tokenloader"
	"airdrop_farmer/internal/pkg/logger"
	"airdrop_farmer/internal/pkg/metrics"

	"go.uber.org/zap"
)

// DefaultConfigPath is used when AIRDROP_CONFIG is not set.
const DefaultConfigPath = "config/config.yml"

// App holds the wired dependencies.
type App struct {
	Cfg      *configloader.Config
	Zap      *zap.Logger
	Log      port.Logger
	Chains   *networkdefinition.ChainRegistry
	Tokens   *networkdefinition.TokenRegistry
	Provider *clientprovider.ClientProvider

	alerts *logger.TelegramNotifier
}

// ConfigPath returns AIRDROP_CONFIG or the default path.
func ConfigPath() string {
	if p := os.Getenv("AIRDROP_CONFIG"); p != "" {
		return p
	}
	return DefaultConfigPath
}

// Init loads config and secrets, sets up logging and builds the catalogues.
func Init(configPath, component string) (*App, error) {
	cfg, err := configloader.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.Secrets = configloader.LoadSecrets()

	alerts := logger.NewTelegramNotifier(cfg.Secrets.BotToken, cfg.Telegram.ChatID, cfg.Telegram.AlertLevels)
	zl, err := logger.Setup(logger.Options{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		File:     cfg.Logging.File,
		Telegram: alerts,
	})
	if err != nil {
		return nil, err
	}
	metrics.MustRegister()

	appLogger := logger.NewSlogAdapter("component", component)
	chains := networkdefinition.NewChainRegistry(appLogger, cfg.Networks...)
	tokens := networkdefinition.NewTokenRegistry(chains)
	if n, err := tokenloader.NewTokenLoader(cfg.TokensDir(), appLogger).LoadInto(tokens, chains); err != nil {
		appLogger.Warn("Не удалось загрузить дополнительные токены", "dir", cfg.TokensDir(), "error", err)
	} else if n > 0 {
		appLogger.Info("Загружены дополнительные токены", "count", n)
	}

	userAgents, err := clientprovider.LoadUserAgents(cfg.DataPath("user_agents.txt"))
	if err != nil {
		return nil, err
	}

	return &App{
		Cfg:      cfg,
		Zap:      zl,
		Log:      appLogger,
		Chains:   chains,
		Tokens:   tokens,
		Provider: clientprovider.NewClientProvider(cfg, tokens, userAgents, zl),
		alerts:   alerts,
	}, nil
}

// Accounts loads accounts and applies the profile selection from settings.
func (a *App) Accounts() ([]*entity.Account, error) {
	s := a.Cfg.Settings
	all, err := accountloader.NewAccountLoader(s.AccountsSource, s.DataDir, s.DateFormat, a.Zap.Named("accounts")).Load()
	if err != nil {
		return nil, err
	}
	selected := accountloader.Select(all, s.Profiles, false, a.Zap)
	if len(selected) == 0 {
		return nil, fmt.Errorf("no accounts selected from %d loaded (profiles %q)", len(all), s.Profiles)
	}
	a.Log.Info("Аккаунты загружены", "loaded", len(all), "selected", len(selected))
	return selected, nil
}

// Ledger opens a spreadsheet under data_dir.
func (a *App) Ledger(name string) (*ledger.Ledger, error) {
	return ledger.Open(a.Cfg.DataPath(name), a.Cfg.Settings.DateFormat, a.Zap.Named("ledger"))
}

// Runner builds the account runner from settings.
func (a *App) Runner() *service.AccountRunner {
	return service.NewAccountRunner(service.RunnerConfigFrom(a.Cfg), a.Provider, a.Log)
}

// Chain resolves a configured chain name, falling back to settings.start_chain.
func (a *App) Chain(name string) (entity.Chain, error) {
	if name == "" {
		name = a.Cfg.Settings.StartChain
	}
	return a.Chains.Get(name)
}

// Close releases shared clients and flushes the logger.
func (a *App) Close() {
	a.Provider.Close()
	_ = a.Zap.Sync()
	// дождаться отправки алертов из очереди
	a.alerts.Close()
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
