package tokenloader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	networkdefinition "airdrop_farmer/internal/infrastructure/network/definition"
	"airdrop_farmer/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadInto(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.json"), []byte(`[
		{"symbol":"DEGEN","address":"0x4ed4e862860bed51a9570b96d89af5e1b0efefed","decimals":18},
		{"symbol":"BAD","address":"nope"},
		{"symbol":"TINY","address":"0x1111111111111111111111111111111111111111","decimals":6,"type":"stable"}
	]`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "atlantis.json"), []byte(`[]`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arb.json"), []byte(`{broken`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`x`), 0o600))

	chains := networkdefinition.NewChainRegistry(nil)
	tokens := networkdefinition.NewTokenRegistry(chains)
	l := NewTokenLoader(dir, logger.NewSlogAdapter())

	n, err := l.LoadInto(tokens, chains)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	degen, err := tokens.BySymbolAndChain("degen", networkdefinition.Base)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), degen.Decimals)
	assert.True(t, strings.EqualFold("0x4ed4e862860bed51a9570b96d89af5e1b0efefed", degen.Address.Hex()))

	tiny, err := tokens.ByAddress("0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	assert.Equal(t, uint8(6), tiny.Decimals)
	assert.Equal(t, "stable", string(tiny.Type))
}

func TestLoadInto_MissingDir(t *testing.T) {
	chains := networkdefinition.NewChainRegistry(nil)
	tokens := networkdefinition.NewTokenRegistry(chains)
	n, err := NewTokenLoader(filepath.Join(t.TempDir(), "none"), logger.NewSlogAdapter()).LoadInto(tokens, chains)
	require.NoError(t, err)
	assert.Zero(t, n)
}
