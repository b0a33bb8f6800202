package port

import (
	"context"

	"airdrop_farmer/internal/domain/entity"
)

// Exchange is a custodial exchange used only for withdrawals.
type Exchange interface {
	Name() string
	// Withdraw submits the request and blocks until the exchange reports a
	// terminal status.
	Withdraw(ctx context.Context, req entity.WithdrawRequest) error
	// ListChains returns the exchange network names, memoized per instance.
	ListChains(ctx context.Context) ([]string, error)
	CheckChain(ctx context.Context, chain entity.Chain) (bool, error)
}
