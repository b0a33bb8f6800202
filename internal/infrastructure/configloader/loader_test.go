package configloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", "logging:\n  level: debug\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "excel", cfg.Settings.AccountsSource)
	assert.True(t, cfg.Settings.IsWeb3Proxy)
	assert.Equal(t, 1, cfg.Settings.Cycles)
	assert.Equal(t, [2]float64{3, 5}, cfg.Settings.PauseBetweenProfiles)
	assert.Equal(t, [2]float64{3, 5}, cfg.Settings.PauseBetweenCycles)
	assert.Equal(t, "02/01/2006 15:04:05", cfg.Settings.DateFormat)
	assert.InDelta(t, 60.0, cfg.Settings.GasPriceLimit, 1e-9)
	assert.Equal(t, 10, cfg.Performance.RPCCallTimeoutSeconds)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"ERROR"}, cfg.Telegram.AlertLevels)
	assert.Equal(t, "okx", cfg.Topup.SourceExchange)
	assert.Equal(t, filepath.Join("config", "data", "abis"), cfg.ABIDir())
}

func TestLoad_Overrides(t *testing.T) {
	body := `
settings:
  accounts_source: txt
  is_web3_proxy: false
  cycles: 3
  pause_between_profiles: [1, 2]
networks:
  - name: base
    rpc: http://localhost:8545
    chainId: 8453
sender:
  chain: base
  token: USDC
`
	cfg, err := Load(writeFile(t, t.TempDir(), "config.yml", body))
	require.NoError(t, err)
	assert.Equal(t, "txt", cfg.Settings.AccountsSource)
	assert.False(t, cfg.Settings.IsWeb3Proxy)
	assert.Equal(t, 3, cfg.Settings.Cycles)
	assert.Equal(t, [2]float64{1, 2}, cfg.Settings.PauseBetweenProfiles)
	require.Len(t, cfg.Networks, 1)
	assert.Equal(t, "http://localhost:8545", cfg.Networks[0].RPC)
	assert.Equal(t, uint64(8453), cfg.Networks[0].ChainID)
	assert.Equal(t, "USDC", cfg.Sender.Token)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, dir, "a.yml", "settings:\n  accounts_source: sheets\n"))
	assert.ErrorContains(t, err, "accounts_source")

	_, err = Load(writeFile(t, dir, "b.yml", "settings:\n  pause_between_cycles: [5, 1]\n"))
	assert.ErrorContains(t, err, "pause range")

	_, err = Load(writeFile(t, dir, "c.yml", "balance_checker:\n  mode: custom\n"))
	assert.ErrorContains(t, err, "contract")
}

func TestLoadSecrets(t *testing.T) {
	dir := t.TempDir()
	env := writeFile(t, dir, ".env", "OKX_API_KEY_MAIN=k\nOKX_SECRET_KEY_MAIN=s\nOKX_PASSPHRASE_MAIN=p\nBOT_TOKEN=old\n")
	local := writeFile(t, dir, ".env.local", "BOT_TOKEN=new\n")
	for _, k := range []string{"OKX_API_KEY_MAIN", "OKX_SECRET_KEY_MAIN", "OKX_PASSPHRASE_MAIN", "BOT_TOKEN", "BINANCE_API_KEY", "BINANCE_SECRET_KEY"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	s := LoadSecrets(env, local, filepath.Join(dir, ".env.missing"))
	assert.True(t, s.HasOkx())
	assert.False(t, s.HasBinance())
	assert.Equal(t, "new", s.BotToken)
}
