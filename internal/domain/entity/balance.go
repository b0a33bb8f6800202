package entity

// BalanceResult is one row of a batched balance query.
type BalanceResult struct {
	Token   Token  `json:"token"`
	Balance Amount `json:"balance"`
	Error   error  `json:"-"`
}

// ChainBalances groups balances of one wallet on one chain.
type ChainBalances struct {
	Chain    string          `json:"chain"`
	ChainID  uint64          `json:"chainId"`
	Balances []BalanceDetail `json:"balances"`
	Error    string          `json:"error,omitempty"`
}

// BalanceDetail is the API/report view of a balance.
type BalanceDetail struct {
	Symbol   string  `json:"symbol"`
	Address  string  `json:"address"`
	Decimals uint8   `json:"decimals"`
	Balance  string  `json:"balance"`
	PriceUSD float64 `json:"priceUSD,omitempty"`
	ValueUSD float64 `json:"valueUSD,omitempty"`
	Error    string  `json:"error,omitempty"`
}
