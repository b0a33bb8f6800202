package configloader

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Secrets are read from the environment, never from config.yml.
type Secrets struct {
	BotToken         string
	OkxAPIKey        string
	OkxSecretKey     string
	OkxPassphrase    string
	BinanceAPIKey    string
	BinanceSecretKey string
}

// LoadSecrets loads .env, lets .env.local override it, then reads the
// variables. Missing files are not an error.
func LoadSecrets(files ...string) Secrets {
	if len(files) == 0 {
		files = []string{".env", ".env.local"}
	}
	for i, f := range files {
		var err error
		if i == 0 {
			err = godotenv.Load(f)
		} else {
			err = godotenv.Overload(f)
		}
		switch {
		case err == nil:
			logrus.Debugf("Loaded environment from %s", f)
		case errors.Is(err, fs.ErrNotExist):
			logrus.Debugf("Environment file %s not found, skipping", f)
		default:
			logrus.Warnf("Failed to load environment file %s: %v", f, err)
		}
	}

	s := Secrets{
		BotToken:         os.Getenv("BOT_TOKEN"),
		OkxAPIKey:        os.Getenv("OKX_API_KEY_MAIN"),
		OkxSecretKey:     os.Getenv("OKX_SECRET_KEY_MAIN"),
		OkxPassphrase:    os.Getenv("OKX_PASSPHRASE_MAIN"),
		BinanceAPIKey:    os.Getenv("BINANCE_API_KEY"),
		BinanceSecretKey: os.Getenv("BINANCE_SECRET_KEY"),
	}
	if s.OkxAPIKey == "" && s.BinanceAPIKey == "" {
		logrus.Info("No exchange API keys configured, withdrawals are disabled")
	}
	return s
}

// HasOkx reports whether all OKX credentials are present.
func (s Secrets) HasOkx() bool {
	return s.OkxAPIKey != "" && s.OkxSecretKey != "" && s.OkxPassphrase != ""
}

func (s Secrets) HasBinance() bool {
	return s.BinanceAPIKey != "" && s.BinanceSecretKey != ""
}
