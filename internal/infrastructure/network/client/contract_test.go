package client

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"airdrop_farmer/internal/domain/entity"
	networkdefinition "airdrop_farmer/internal/infrastructure/network/definition"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeABI(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(erc20ABIJSON), 0o600))
	return dir
}

func TestReadContract(t *testing.T) {
	fb := newFakeBackend()
	fb.setTokenBalance(testUSDC, testOwner, big.NewInt(42_000_000))
	c := newTestClient(t, fb, networkdefinition.Base)

	contract := entity.NewContract(testUSDC.Hex(), "usdc", networkdefinition.Base, writeABI(t, "usdc"))
	out, err := c.ReadContract(context.Background(), contract, "balanceOf", testOwner)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, big.NewInt(42_000_000), out[0])

	_, err = c.ReadContract(context.Background(), contract, "mint", testOwner)
	assert.Error(t, err)

	missing := entity.NewContract(testUSDC.Hex(), "nope", networkdefinition.Base, t.TempDir())
	_, err = c.ReadContract(context.Background(), missing, "balanceOf", testOwner)
	assert.Error(t, err)
}

func TestExecuteContract(t *testing.T) {
	fb := newFakeBackend()
	fb.native[testOwner] = new(big.Int).Set(oneEther)
	c := newTestClient(t, fb, networkdefinition.Base)

	spender := common.HexToAddress("0x3fC91A3afd70395Cd496C647d5a6CC9D4B2b7FAD")
	contract := entity.NewContract(testUSDC.Hex(), "usdc", networkdefinition.Base, writeABI(t, "usdc"))
	hash, err := c.ExecuteContract(context.Background(), contract, nil, "approve", spender, big.NewInt(5))
	require.NoError(t, err)
	require.Len(t, fb.sent, 1)
	assert.Equal(t, fb.sent[0].Hash().Hex(), hash)
	assert.Equal(t, testUSDC, *fb.sent[0].To())
	assert.Equal(t, big.NewInt(5), fb.allowances[testUSDC][spender])
}
