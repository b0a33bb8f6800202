package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"airdrop_farmer/internal/app/port"
	"airdrop_farmer/internal/domain/entity"
	"airdrop_farmer/internal/infrastructure/configloader"
	networkdefinition "airdrop_farmer/internal/infrastructure/network/definition"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultProviderConnectionTimeout = 10 * time.Second

// DialFunc opens a backend; tests swap it for a fake.
type DialFunc func(ctx context.Context, rpcURL string, opts DialOptions) (Backend, error)

// ClientProvider builds on-chain clients per (account, chain) and keeps one
// shared read-only client per chain.
type ClientProvider struct {
	dial        DialFunc
	tokens      port.TokenRegistry
	feeModels   *networkdefinition.FeeModelCache
	userAgents  *UserAgents
	logger      *zap.Logger
	useProxy    bool
	callTimeout time.Duration
	rateLimit   rate.Limit
	burst       int

	mu       sync.Mutex
	readOnly map[string]*OnchainClient
}

// NewClientProvider wires the provider from config.
func NewClientProvider(cfg *configloader.Config, tokens port.TokenRegistry, userAgents *UserAgents, logger *zap.Logger) *ClientProvider {
	return &ClientProvider{
		dial:        DialBackend,
		tokens:      tokens,
		feeModels:   networkdefinition.DefaultFeeModels(),
		userAgents:  userAgents,
		logger:      logger,
		useProxy:    cfg.Settings.IsWeb3Proxy,
		callTimeout: time.Duration(cfg.Performance.RPCCallTimeoutSeconds) * time.Second,
		rateLimit:   rate.Limit(cfg.Performance.RPCRateLimit),
		burst:       cfg.Performance.RPCBurst,
		readOnly:    make(map[string]*OnchainClient),
	}
}

// WithDialer replaces the RPC dialer.
func (p *ClientProvider) WithDialer(dial DialFunc) *ClientProvider {
	p.dial = dial
	return p
}

func (p *ClientProvider) newClient(ctx context.Context, account *entity.Account, chain entity.Chain, proxy *entity.Proxy) (*OnchainClient, error) {
	dialCtx, cancel := context.WithTimeout(ctx, defaultProviderConnectionTimeout)
	defer cancel()

	backend, err := p.dial(dialCtx, chain.RPC, DialOptions{
		Proxy:          proxy,
		UserAgent:      p.userAgents.Random(),
		RequestTimeout: p.callTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", chain.Name, err)
	}
	opts := []Option{
		WithTokenRegistry(p.tokens),
		WithFeeModelCache(p.feeModels),
		WithCallTimeout(p.callTimeout),
	}
	if p.rateLimit > 0 {
		opts = append(opts, WithRateLimiter(rate.NewLimiter(p.rateLimit, max(p.burst, 1))))
	}
	return NewOnchainClient(backend, account, chain, p.logger, opts...), nil
}

// Client dials a fresh connection for account, through its proxy when proxy
// use is enabled. The caller closes it.
func (p *ClientProvider) Client(ctx context.Context, account *entity.Account, chain entity.Chain) (port.OnchainClient, error) {
	var proxy *entity.Proxy
	if p.useProxy {
		var err error
		if proxy, err = account.ParsedProxy(); err != nil {
			return nil, fmt.Errorf("profile %d: %w", account.ProfileNumber, err)
		}
	}
	return p.newClient(ctx, account, chain, proxy)
}

// ReadOnly returns the cached direct client for chain.
func (p *ClientProvider) ReadOnly(ctx context.Context, chain entity.Chain) (port.OnchainClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.readOnly[chain.Name]; ok {
		return c, nil
	}
	c, err := p.newClient(ctx, nil, chain, nil)
	if err != nil {
		return nil, err
	}
	p.readOnly[chain.Name] = c
	p.logger.Debug("Read-only client created", zap.String("chain", chain.Name))
	return c, nil
}

// Close closes the cached read-only clients.
func (p *ClientProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for name, c := range p.readOnly {
		c.Close()
		delete(p.readOnly, name)
	}
}
