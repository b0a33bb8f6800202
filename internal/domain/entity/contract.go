package entity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Contract is a deployed contract whose ABI lives in <abiDir>/<ABIName>.json.
// The ABI is read on first use and kept for the lifetime of the value.
type Contract struct {
	Address common.Address
	ABIName string
	Chain   Chain

	abiDir string
	once   sync.Once
	abi    abi.ABI
	err    error
}

func NewContract(address, abiName string, chain Chain, abiDir string) *Contract {
	return &Contract{
		Address: common.HexToAddress(address),
		ABIName: abiName,
		Chain:   chain,
		abiDir:  abiDir,
	}
}

// ABI loads and parses the ABI file once.
func (c *Contract) ABI() (abi.ABI, error) {
	c.once.Do(func() {
		path := filepath.Join(c.abiDir, c.ABIName+".json")
		f, err := os.Open(path)
		if err != nil {
			c.err = fmt.Errorf("failed to open abi %s: %w", path, err)
			return
		}
		defer f.Close()
		c.abi, c.err = abi.JSON(f)
		if c.err != nil {
			c.err = fmt.Errorf("failed to parse abi %s: %w", path, c.err)
		}
	})
	return c.abi, c.err
}

// Matches compares the contract with a 0x address string.
func (c *Contract) Matches(address string) bool {
	if !strings.HasPrefix(address, "0x") || !common.IsHexAddress(address) {
		return false
	}
	return c.Address == common.HexToAddress(address)
}

func (c *Contract) String() string { return c.Address.Hex() }
