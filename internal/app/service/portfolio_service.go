package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"airdrop_farmer/internal/app/port"
	"airdrop_farmer/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultPortfolioTTL = 30 * time.Second

// PortfolioService serves read-only wallet data over the chain catalogue.
type PortfolioService struct {
	chains                port.ChainRegistry
	tokens                port.TokenRegistry
	clientProvider        port.OnchainClientProvider
	tokenPriceSvc         port.TokenPriceService // может быть nil
	logger                port.Logger
	maxConcurrentRoutines int
	cache                 *cache.Cache
}

// NewPortfolioService creates a new instance of PortfolioService.
func NewPortfolioService(
	chains port.ChainRegistry,
	tokens port.TokenRegistry,
	cp port.OnchainClientProvider,
	tps port.TokenPriceService,
	l port.Logger,
	maxRoutines int,
	ttl time.Duration,
) *PortfolioService {
	if maxRoutines <= 0 {
		maxRoutines = 1
	}
	if ttl <= 0 {
		ttl = defaultPortfolioTTL
	}
	return &PortfolioService{
		chains:                chains,
		tokens:                tokens,
		clientProvider:        cp,
		tokenPriceSvc:         tps,
		logger:                l,
		maxConcurrentRoutines: maxRoutines,
		cache:                 cache.New(ttl, 2*ttl),
	}
}

// Chains returns the catalogue.
func (s *PortfolioService) Chains() []entity.Chain {
	return s.chains.List()
}

// GasPriceGwei returns the current gas price of chain.
func (s *PortfolioService) GasPriceGwei(ctx context.Context, chainName string) (decimal.Decimal, error) {
	chain, err := s.chains.Get(chainName)
	if err != nil {
		return decimal.Zero, err
	}
	client, err := s.clientProvider.ReadOnly(ctx, chain)
	if err != nil {
		return decimal.Zero, err
	}
	return client.GasPriceGwei(ctx)
}

// resolveChains maps tracked names to catalogue chains; empty = all.
func (s *PortfolioService) resolveChains(names []string) ([]entity.Chain, error) {
	if len(names) == 0 {
		return s.chains.List(), nil
	}
	out := make([]entity.Chain, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		chain, err := s.chains.Get(name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[chain.Name]; dup {
			continue
		}
		seen[chain.Name] = struct{}{}
		out = append(out, chain)
	}
	return out, nil
}

// Balances fetches native and catalogue token balances of address on the
// tracked chains. A failing chain is reported inside its entry; only invalid
// input fails the call. Results are cached briefly per address and chain set.
func (s *PortfolioService) Balances(ctx context.Context, address string, chainNames []string) ([]entity.ChainBalances, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidAddress, address)
	}
	wallet := common.HexToAddress(address)

	chains, err := s.resolveChains(chainNames)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(chains))
	for i, c := range chains {
		names[i] = c.Name
	}
	sort.Strings(names)
	key := wallet.Hex() + "|" + strings.Join(names, ",")
	if v, ok := s.cache.Get(key); ok {
		s.logger.Debug("Balances served from cache", "wallet", wallet.Hex())
		return v.([]entity.ChainBalances), nil
	}

	results := make([]entity.ChainBalances, len(chains))
	var g errgroup.Group
	g.SetLimit(s.maxConcurrentRoutines)
	for i, chain := range chains {
		g.Go(func() error {
			results[i] = s.fetchChainBalances(ctx, wallet, chain)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.cache.SetDefault(key, results)
	s.logger.Info("Fetched balances", "wallet", wallet.Hex(), "chains", len(chains))
	return results, nil
}

func (s *PortfolioService) fetchChainBalances(ctx context.Context, wallet common.Address, chain entity.Chain) entity.ChainBalances {
	out := entity.ChainBalances{Chain: chain.Name, ChainID: chain.ChainID, Balances: []entity.BalanceDetail{}}

	client, err := s.clientProvider.ReadOnly(ctx, chain)
	if err != nil {
		s.logger.Error("Failed to get client for network", "network", chain.Name, "error", err)
		out.Error = err.Error()
		return out
	}

	tokens := []entity.Token{entity.NativeToken(chain)}
	if s.tokens != nil {
		tokens = append(tokens, s.tokens.ByChain(chain)...)
	}
	s.logger.Debug("Executing batch balance request", "wallet", wallet.Hex(), "network", chain.Name, "request_count", len(tokens))

	batch, err := client.GetBalances(ctx, tokens, wallet)
	if err != nil {
		s.logger.Error("Batch GetBalances call failed for network", "wallet", wallet.Hex(), "network", chain.Name, "error", err)
		out.Error = err.Error()
		return out
	}

	for _, res := range batch {
		detail := entity.BalanceDetail{
			Symbol:   res.Token.Symbol,
			Address:  res.Token.Address.Hex(),
			Decimals: res.Token.Decimals,
			Balance:  res.Balance.String(),
		}
		if res.Error != nil {
			s.logger.Warn("Error in batch balance sub-request", "network", chain.Name, "token_symbol", res.Token.Symbol, "error", res.Error)
			detail.Error = res.Error.Error()
		} else if s.tokenPriceSvc != nil && res.Balance.IsPositive() {
			if price, ok := s.tokenPriceSvc.PriceUSD(ctx, res.Token.Symbol); ok {
				detail.PriceUSD = price.InexactFloat64()
				detail.ValueUSD = res.Balance.Decimal().Mul(price).Round(2).InexactFloat64()
			}
		}
		out.Balances = append(out.Balances, detail)
	}
	return out
}
