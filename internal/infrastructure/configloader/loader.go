package configloader

import (
	"fmt"
	"os"
	"path/filepath"

	"airdrop_farmer/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
	File   string `yaml:"file"`
}

// SettingsConfig: общие настройки запуска скриптов.
type SettingsConfig struct {
	AccountsSource       string     `yaml:"accounts_source"` // excel | txt
	DataDir              string     `yaml:"data_dir"`
	IsWeb3Proxy          bool       `yaml:"is_web3_proxy"`
	OkxProxy             string     `yaml:"okx_proxy"`     // ip:port:login:password
	BinanceProxy         string     `yaml:"binance_proxy"` // ip:port:login:password
	DateFormat           string     `yaml:"date_format"`   // Go layout
	Shuffle              bool       `yaml:"shuffle"`
	Profiles             string     `yaml:"profiles"` // "1-5 7", пусто = все
	Cycles               int        `yaml:"cycles"`
	PauseBetweenProfiles [2]float64 `yaml:"pause_between_profiles"`
	PauseBetweenCycles   [2]float64 `yaml:"pause_between_cycles"`
	StartChain           string     `yaml:"start_chain"`
	GasPriceLimit        float64    `yaml:"gas_price_limit"` // gwei
	AccountTimeoutSecs   int        `yaml:"account_timeout_seconds"`
}

// PerformanceConfig holds performance-related configurations.
type PerformanceConfig struct {
	MaxConcurrentRoutines int     `yaml:"max_concurrent_routines"`
	RPCCallTimeoutSeconds int     `yaml:"rpc_call_timeout_seconds"`
	RPCRateLimit          float64 `yaml:"rpc_rate_limit"`
	RPCBurst              int     `yaml:"rpc_burst"`
}

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port    string `yaml:"port"`
	Swagger bool   `yaml:"swagger"`
}

// TelegramConfig: алерты в телеграм. Токен бота берётся из BOT_TOKEN.
type TelegramConfig struct {
	ChatID      string   `yaml:"chat_id"`
	AlertLevels []string `yaml:"alert_levels"`
}

// TopupConfig настраивает пополнение нативного баланса с биржи.
type TopupConfig struct {
	TargetChain    string  `yaml:"target_chain"`
	SourceExchange string  `yaml:"source_exchange"` // okx | binance
	WithdrawChain  string  `yaml:"withdraw_chain"`
	TargetAmount   float64 `yaml:"target_amount"`

	// CollectSubAccounts сводит балансы субаккаунтов OKX на основной перед выводом.
	CollectSubAccounts bool `yaml:"collect_sub_accounts"`
}

// SenderConfig настраивает вывод средств на адреса депозита.
type SenderConfig struct {
	Chain         string  `yaml:"chain"`
	Token         string  `yaml:"token"`  // символ или адрес контракта, пусто = нативный
	Amount        float64 `yaml:"amount"` // 0 = весь баланс
	AddressesFile string  `yaml:"addresses_file"`
}

// BalanceCheckerConfig выбирает режим отчёта о балансах.
type BalanceCheckerConfig struct {
	Mode      string `yaml:"mode"` // native | tokens | custom
	Chain     string `yaml:"chain"`
	Contract  string `yaml:"contract"`
	WithPrice bool   `yaml:"with_price"`
}

// Config is the top-level configuration structure.
type Config struct {
	Logging        LoggingConfig        `yaml:"logging"`
	Settings       SettingsConfig       `yaml:"settings"`
	Performance    PerformanceConfig    `yaml:"performance"`
	Server         ServerConfig         `yaml:"server"`
	Telegram       TelegramConfig       `yaml:"telegram"`
	Topup          TopupConfig          `yaml:"topup"`
	Sender         SenderConfig         `yaml:"sender"`
	BalanceChecker BalanceCheckerConfig `yaml:"balance_checker"`
	// Networks переопределяют RPC и параметры сетей каталога.
	Networks []entity.Chain `yaml:"networks"`

	Secrets Secrets `yaml:"-"`
}

// Load reads the YAML configuration file from the given path and unmarshals it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Config{Settings: SettingsConfig{IsWeb3Proxy: true}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	s := &c.Settings
	if s.AccountsSource == "" {
		s.AccountsSource = "excel"
	}
	if s.DataDir == "" {
		s.DataDir = filepath.Join("config", "data")
	}
	if s.DateFormat == "" {
		s.DateFormat = "02/01/2006 15:04:05"
	}
	if s.Cycles <= 0 {
		s.Cycles = 1
	}
	if s.PauseBetweenProfiles == [2]float64{} {
		s.PauseBetweenProfiles = [2]float64{3, 5}
	}
	if s.PauseBetweenCycles == [2]float64{} {
		s.PauseBetweenCycles = [2]float64{3, 5}
	}
	if s.StartChain == "" {
		s.StartChain = "ethereum"
	}
	if s.GasPriceLimit <= 0 {
		s.GasPriceLimit = 60
	}

	p := &c.Performance
	if p.MaxConcurrentRoutines <= 0 {
		p.MaxConcurrentRoutines = 8
	}
	if p.RPCCallTimeoutSeconds <= 0 {
		p.RPCCallTimeoutSeconds = 10
	}
	if p.RPCRateLimit <= 0 {
		p.RPCRateLimit = 10
	}
	if p.RPCBurst <= 0 {
		p.RPCBurst = 5
	}

	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if len(c.Telegram.AlertLevels) == 0 {
		c.Telegram.AlertLevels = []string{"ERROR"}
	}
	if c.Topup.SourceExchange == "" {
		c.Topup.SourceExchange = entity.ExchangeOKX
	}
	if c.BalanceChecker.Mode == "" {
		c.BalanceChecker.Mode = "native"
	}
}

func (c *Config) validate() error {
	switch c.Settings.AccountsSource {
	case "excel", "txt":
	default:
		return fmt.Errorf("settings.accounts_source must be excel or txt, got %q", c.Settings.AccountsSource)
	}
	for _, pair := range [][2]float64{c.Settings.PauseBetweenProfiles, c.Settings.PauseBetweenCycles} {
		if pair[0] < 0 || pair[1] < pair[0] {
			return fmt.Errorf("pause range %v must be [min, max] with 0 <= min <= max", pair)
		}
	}
	for i, n := range c.Networks {
		if n.Name == "" {
			return fmt.Errorf("networks[%d]: name is required", i)
		}
	}
	switch c.BalanceChecker.Mode {
	case "native", "tokens", "custom":
	default:
		return fmt.Errorf("balance_checker.mode must be native, tokens or custom, got %q", c.BalanceChecker.Mode)
	}
	if c.BalanceChecker.Mode == "custom" && c.BalanceChecker.Contract == "" {
		return fmt.Errorf("balance_checker.contract is required in custom mode")
	}
	return nil
}

// Path helpers под data_dir.
func (c *Config) DataPath(name string) string { return filepath.Join(c.Settings.DataDir, name) }
func (c *Config) ABIDir() string              { return c.DataPath("abis") }
func (c *Config) TokensDir() string           { return c.DataPath("tokens") }
