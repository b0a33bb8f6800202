package exchange

import (
	"fmt"
	"strings"

	"airdrop_farmer/internal/app/port"
	"airdrop_farmer/internal/domain/entity"
	"airdrop_farmer/internal/infrastructure/configloader"

	"go.uber.org/zap"
)

// New builds the exchange named in config with keys from secrets.
func New(name string, cfg *configloader.Config, logger *zap.Logger, opts ...Option) (port.Exchange, error) {
	switch strings.ToLower(name) {
	case entity.ExchangeOKX:
		if !cfg.Secrets.HasOkx() {
			return nil, fmt.Errorf("okx api keys are not set")
		}
		okx, err := NewOKX(Credentials{
			APIKey:     cfg.Secrets.OkxAPIKey,
			SecretKey:  cfg.Secrets.OkxSecretKey,
			Passphrase: cfg.Secrets.OkxPassphrase,
		}, cfg.Settings.OkxProxy, logger, opts...)
		if err != nil {
			return nil, err
		}
		return okx, nil
	case entity.ExchangeBinance:
		if !cfg.Secrets.HasBinance() {
			return nil, fmt.Errorf("binance api keys are not set")
		}
		binance, err := NewBinance(Credentials{
			APIKey:    cfg.Secrets.BinanceAPIKey,
			SecretKey: cfg.Secrets.BinanceSecretKey,
		}, cfg.Settings.BinanceProxy, logger, opts...)
		if err != nil {
			return nil, err
		}
		return binance, nil
	}
	return nil, fmt.Errorf("unknown exchange %q", name)
}
