package port

import (
	"context"
	"math/big"

	"airdrop_farmer/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// OnchainClient is bound to one account on one chain.
type OnchainClient interface {
	Chain() entity.Chain
	Account() *entity.Account

	// GetBalance returns the balance of token (nil = native) for address
	// (nil = the account's own wallet).
	GetBalance(ctx context.Context, token *entity.Token, address *common.Address) (entity.Amount, error)
	// GetBalances reads native and token balances in one batch.
	GetBalances(ctx context.Context, tokens []entity.Token, address common.Address) ([]entity.BalanceResult, error)
	// TokenParams resolves symbol and decimals of a contract from the chain.
	TokenParams(ctx context.Context, address string) (entity.Token, error)

	GasPrice(ctx context.Context) (*big.Int, error)
	GasPriceGwei(ctx context.Context) (decimal.Decimal, error)
	// WaitForAcceptableGasPrice blocks until gas price drops to limitGwei or ctx ends.
	WaitForAcceptableGasPrice(ctx context.Context, limitGwei decimal.Decimal) error

	// SendToken sends amount (nil = entire balance) of token (nil = native) to to.
	SendToken(ctx context.Context, to common.Address, amount *entity.Amount, token *entity.Token) (common.Hash, error)
	Approve(ctx context.Context, token *entity.Token, amount entity.Amount, spender common.Address) error
	Nonce(ctx context.Context, address common.Address) (uint64, error)
	Close()
}

// OnchainClientProvider builds clients per (account, chain).
type OnchainClientProvider interface {
	Client(ctx context.Context, account *entity.Account, chain entity.Chain) (OnchainClient, error)
	// ReadOnly returns a shared client without credentials or proxy.
	ReadOnly(ctx context.Context, chain entity.Chain) (OnchainClient, error)
	Close()
}

// ChainRegistry is the chain catalogue.
type ChainRegistry interface {
	Get(name string) (entity.Chain, error)
	ByChainID(chainID uint64) (entity.Chain, error)
	List() []entity.Chain
}
