package entity

import "strings"

// Exchange identifiers used to resolve exchange-specific network names.
const (
	ExchangeOKX     = "okx"
	ExchangeBinance = "binance"
)

// Chain describes an EVM network known to the catalogue.
type Chain struct {
	Name        string  `json:"name" yaml:"name"`
	RPC         string  `json:"rpc" yaml:"rpc"`
	ChainID     uint64  `json:"chainId" yaml:"chainId"`
	DisplayName string  `json:"displayName" yaml:"displayName"` // название сети в кошельке
	NativeToken string  `json:"nativeToken" yaml:"nativeToken"`
	OkxName     string  `json:"okxName,omitempty" yaml:"okxName,omitempty"`
	BinanceName string  `json:"binanceName,omitempty" yaml:"binanceName,omitempty"`
	Multiplier  float64 `json:"multiplier" yaml:"multiplier"` // множитель запаса для комиссий
}

// WithDefaults fills the optional fields the way catalogue entries expect.
// Multiplier is raised to at least 1.
func (c Chain) WithDefaults() Chain {
	if c.DisplayName == "" {
		c.DisplayName = c.Name
	}
	if c.NativeToken == "" {
		c.NativeToken = "ETH"
	}
	// множитель ниже 1 съедает запас на комиссию
	if c.Multiplier < 1 {
		c.Multiplier = 1.0
	}
	return c
}

// Is reports whether name refers to this chain, ignoring case.
func (c Chain) Is(name string) bool {
	return strings.EqualFold(c.Name, name)
}

// Equal compares chains by canonical name.
func (c Chain) Equal(other Chain) bool {
	return c.Is(other.Name)
}

// HasID compares the chain with a raw chain id.
func (c Chain) HasID(chainID uint64) bool {
	return c.ChainID == chainID
}

// ExchangeName returns the network name the exchange uses for this chain,
// or "" when the exchange does not list it.
func (c Chain) ExchangeName(exchange string) string {
	switch strings.ToLower(exchange) {
	case ExchangeOKX:
		return c.OkxName
	case ExchangeBinance:
		return c.BinanceName
	}
	return ""
}

func (c Chain) String() string { return c.Name }
