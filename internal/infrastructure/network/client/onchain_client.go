package client

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"airdrop_farmer/internal/app/port"
	"airdrop_farmer/internal/domain/entity"
	networkdefinition "airdrop_farmer/internal/infrastructure/network/definition"
	"airdrop_farmer/internal/pkg/metrics"
	"airdrop_farmer/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultReceiptPoll    = 2 * time.Second
	defaultReceiptTimeout = 3 * time.Minute
)

// OnchainClient is bound to one account on one chain. It is not safe for
// concurrent sends: nonces are read fresh right before each transaction.
type OnchainClient struct {
	backend   Backend
	account   *entity.Account
	chain     entity.Chain
	tokens    port.TokenRegistry
	feeModels *networkdefinition.FeeModelCache
	limiter   *rate.Limiter
	logger    *zap.Logger
	rnd       utils.Random
	sleep     func(ctx context.Context, d time.Duration) error

	callTimeout    time.Duration
	receiptPoll    time.Duration
	receiptTimeout time.Duration
}

// Option configures an OnchainClient.
type Option func(*OnchainClient)

func WithTokenRegistry(tokens port.TokenRegistry) Option {
	return func(c *OnchainClient) { c.tokens = tokens }
}

func WithFeeModelCache(cache *networkdefinition.FeeModelCache) Option {
	return func(c *OnchainClient) { c.feeModels = cache }
}

// WithRateLimiter throttles every RPC round trip, batches included.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *OnchainClient) { c.limiter = l }
}

func WithRandom(r utils.Random) Option {
	return func(c *OnchainClient) { c.rnd = r }
}

// WithSleeper replaces the wait used between gas price polls.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *OnchainClient) { c.sleep = sleep }
}

func WithCallTimeout(d time.Duration) Option {
	return func(c *OnchainClient) { c.callTimeout = d }
}

func WithReceiptPolling(interval, timeout time.Duration) Option {
	return func(c *OnchainClient) {
		c.receiptPoll = interval
		c.receiptTimeout = timeout
	}
}

// NewOnchainClient wraps backend for account on chain. account may be nil
// for read-only use.
func NewOnchainClient(backend Backend, account *entity.Account, chain entity.Chain, logger *zap.Logger, opts ...Option) *OnchainClient {
	initParsedABIs()
	if account == nil {
		account = &entity.Account{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &OnchainClient{
		backend:        backend,
		account:        account,
		chain:          chain.WithDefaults(),
		feeModels:      networkdefinition.DefaultFeeModels(),
		logger:         logger.Named("onchain").With(zap.String("chain", chain.Name), zap.Int("profile", account.ProfileNumber)),
		rnd:            utils.DefaultRandom,
		sleep:          utils.Sleep,
		receiptPoll:    defaultReceiptPoll,
		receiptTimeout: defaultReceiptTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *OnchainClient) Chain() entity.Chain      { return c.chain }
func (c *OnchainClient) Account() *entity.Account { return c.account }

// Close releases the underlying connection.
func (c *OnchainClient) Close() { c.backend.Close() }

// call runs one RPC round trip with rate limiting, the per-call timeout and
// metrics. Errors are wrapped with entity.ErrRPCFailure.
func (c *OnchainClient) call(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	callCtx := ctx
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}
	err := fn(callCtx)
	metrics.RPCCalls.WithLabelValues(c.chain.Name, method, metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("%w: %s on %s: %w", entity.ErrRPCFailure, method, c.chain.Name, err)
	}
	return nil
}

// multiply returns floor(v * U(lo, hi) * chain multiplier).
func (c *OnchainClient) multiply(v *big.Int, lo, hi float64) *big.Int {
	return utils.MulFloat(v, utils.Uniform(c.rnd, lo, hi)*c.chain.Multiplier)
}

// Nonce returns the confirmed transaction count of address.
func (c *OnchainClient) Nonce(ctx context.Context, address common.Address) (uint64, error) {
	if address == (common.Address{}) {
		address = c.account.Address()
	}
	var nonce uint64
	err := c.call(ctx, "eth_getTransactionCount", func(ctx context.Context) error {
		var err error
		nonce, err = c.backend.NonceAt(ctx, address, nil)
		return err
	})
	return nonce, err
}
