package entity

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// TokenType classifies catalogue tokens.
type TokenType string

const (
	TokenTypeERC20  TokenType = "erc20"
	TokenTypeNative TokenType = "native"
	TokenTypeStable TokenType = "stable"
)

// NativeTokenAddress is the pseudo-address used for the chain's native coin.
const NativeTokenAddress = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

// NativeDecimals is the scale of every EVM native coin.
const NativeDecimals uint8 = 18

// Token holds the details of a fungible token on one chain.
type Token struct {
	Symbol   string         `json:"symbol"`
	Address  common.Address `json:"address"`
	Chain    Chain          `json:"-"`
	Decimals uint8          `json:"decimals"`
	Type     TokenType      `json:"type"`
}

// NewToken builds a token with a checksummed address; decimals default to 18
// and type to erc20.
func NewToken(symbol, address string, chain Chain, decimals uint8, tokenType TokenType) Token {
	if decimals == 0 {
		decimals = 18
	}
	if tokenType == "" {
		tokenType = TokenTypeERC20
	}
	return Token{
		Symbol:   symbol,
		Address:  common.HexToAddress(address),
		Chain:    chain,
		Decimals: decimals,
		Type:     tokenType,
	}
}

// NativeToken returns the native pseudo-token of chain.
func NativeToken(chain Chain) Token {
	return Token{
		Symbol:   chain.NativeToken,
		Address:  common.HexToAddress(NativeTokenAddress),
		Chain:    chain,
		Decimals: NativeDecimals,
		Type:     TokenTypeNative,
	}
}

// IsNativeAddress reports whether addr is the native pseudo-address.
func IsNativeAddress(addr common.Address) bool {
	return addr == common.HexToAddress(NativeTokenAddress)
}

func (t Token) IsNative() bool {
	return t.Type == TokenTypeNative || IsNativeAddress(t.Address)
}

// Equal compares tokens by checksummed address.
func (t Token) Equal(other Token) bool {
	return t.Address == other.Address
}

// Matches compares the token with a raw string: 0x-prefixed strings are
// compared as addresses, anything else as a case-insensitive symbol.
func (t Token) Matches(s string) bool {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return common.IsHexAddress(s) && t.Address == common.HexToAddress(s)
	}
	return strings.EqualFold(t.Symbol, s)
}

// Zero returns 0 of this token.
func (t Token) Zero() Amount { return ZeroAmount(t.Decimals) }

func (t Token) String() string { return t.Address.Hex() }
