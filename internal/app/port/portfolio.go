package port

import (
	"context"

	"airdrop_farmer/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// PortfolioService defines the read-only queries served by the status API.
type PortfolioService interface {
	Chains() []entity.Chain
	GasPriceGwei(ctx context.Context, chain string) (decimal.Decimal, error)
	Balances(ctx context.Context, address string, chains []string) ([]entity.ChainBalances, error)
}
