package service

import (
	"context"
	"strings"
	"time"

	"airdrop_farmer/internal/app/port"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

const defaultPriceTTL = 5 * time.Minute

// TickerSource отдаёт средневзвешенную цену SYMBOLUSDT.
type TickerSource interface {
	TickerPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

var stablecoinSymbols = map[string]struct{}{
	"USDT":   {},
	"USDC":   {},
	"USDC.E": {},
	"USDBC":  {},
	"DAI":    {},
	"FDUSD":  {},
}

// Нативные тикеры, которые на бирже торгуются под другим именем.
var tickerAliases = map[string]string{
	"MATIC": "POL",
	"WETH":  "ETH",
}

// tokenPriceServiceImpl caches USD prices per symbol. Stablecoins are priced
// at 1 without a request.
type tokenPriceServiceImpl struct {
	source TickerSource
	cache  *cache.Cache
	logger port.Logger
}

// NewTokenPriceService creates the price service. ttl <= 0 uses the default.
func NewTokenPriceService(source TickerSource, ttl time.Duration, logger port.Logger) port.TokenPriceService {
	if ttl <= 0 {
		ttl = defaultPriceTTL
	}
	return &tokenPriceServiceImpl{
		source: source,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// PriceUSD implements port.TokenPriceService.
func (s *tokenPriceServiceImpl) PriceUSD(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return decimal.Zero, false
	}
	if _, ok := stablecoinSymbols[symbol]; ok {
		return decimal.NewFromInt(1), true
	}
	if alias, ok := tickerAliases[symbol]; ok {
		symbol = alias
	}

	if v, ok := s.cache.Get(symbol); ok {
		return v.(decimal.Decimal), true
	}
	if s.source == nil {
		return decimal.Zero, false
	}

	price, err := s.source.TickerPrice(ctx, symbol)
	if err != nil {
		s.logger.Warn("Failed to fetch ticker price", "symbol", symbol, "error", err)
		return decimal.Zero, false
	}
	if !price.IsPositive() {
		s.logger.Warn("Ticker price is not positive", "symbol", symbol, "price", price.String())
		return decimal.Zero, false
	}
	s.cache.SetDefault(symbol, price)
	s.logger.Debug("Cached price for token", "symbol", symbol, "priceUSD", price.String())
	return price, true
}
