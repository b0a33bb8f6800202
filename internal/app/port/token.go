package port

import (
	"context"

	"airdrop_farmer/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// TokenRegistry is the token catalogue.
type TokenRegistry interface {
	ByAddress(address string) (entity.Token, error)
	ByChainAndAddress(chain entity.Chain, address string) (entity.Token, error)
	ByChain(chain entity.Chain) []entity.Token
	BySymbolAndChain(symbol string, chain entity.Chain) (entity.Token, error)
	Register(token entity.Token) entity.Token
}

// TokenPriceService отдаёт цену токена в USD.
type TokenPriceService interface {
	PriceUSD(ctx context.Context, symbol string) (decimal.Decimal, bool)
}
