package client

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Minimal ERC20 ABI: balances, metadata, transfer and allowance.
const erc20ABIJSON = `[
{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

// OP Stack GasPriceOracle predeploy.
const gasOracleABIJSON = `[{"inputs":[{"internalType":"bytes","name":"_data","type":"bytes"}],"name":"getL1Fee","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

var gasPriceOracleAddress = common.HexToAddress("0x420000000000000000000000000000000000000F") //nolint:gochecknoglobals

var (
	parsedERC20ABI     abi.ABI
	parsedGasOracleABI abi.ABI
	parseABIsOnce      sync.Once
)

func initParsedABIs() {
	parseABIsOnce.Do(func() {
		var err error
		parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABIJSON))
		if err != nil {
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
		parsedGasOracleABI, err = abi.JSON(strings.NewReader(gasOracleABIJSON))
		if err != nil {
			panic(fmt.Sprintf("failed to parse gas oracle ABI: %v", err))
		}
	})
}

// ERC20ABI returns the parsed minimal ERC20 ABI.
func ERC20ABI() abi.ABI {
	initParsedABIs()
	return parsedERC20ABI
}
