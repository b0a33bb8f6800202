package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"airdrop_farmer/internal/app/port"
	"airdrop_farmer/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

var (
	testBase = entity.Chain{Name: "base", ChainID: 8453, NativeToken: "ETH", OkxName: "Base", BinanceName: "BASE", Multiplier: 1}
	testOP   = entity.Chain{Name: "op", ChainID: 10, NativeToken: "ETH", OkxName: "Optimism", Multiplier: 1}
	testUSDC = entity.NewToken("USDC", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", testBase, 6, entity.TokenTypeStable)
	testDAI  = entity.NewToken("DAI", "0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb", testBase, 18, entity.TokenTypeERC20)
)

func testAccount(profile int, address string) *entity.Account {
	acc, err := entity.NewAccount(profile, address, "", "", "", "")
	if err != nil {
		panic(err)
	}
	return acc
}

type sentTx struct {
	to     common.Address
	amount *entity.Amount
	token  *entity.Token
}

// fakeClient implements port.OnchainClient over in-memory state.
type fakeClient struct {
	mu        sync.Mutex
	chain     entity.Chain
	account   *entity.Account
	balances  []entity.Amount // native, consumed one per call; the last one repeats
	balanceFn func() (entity.Amount, error)
	tokenBals map[common.Address]entity.Amount
	tokenErr  map[common.Address]error
	params    map[string]entity.Token
	nonce     uint64
	nonceErr  error
	gasGwei   decimal.Decimal
	gasWaits  []decimal.Decimal
	sent      []sentTx
	sendErr   error
	closed    bool
	nativeGet int
}

func (c *fakeClient) Chain() entity.Chain      { return c.chain }
func (c *fakeClient) Account() *entity.Account { return c.account }

func (c *fakeClient) GetBalance(_ context.Context, token *entity.Token, _ *common.Address) (entity.Amount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != nil && !token.IsNative() {
		if err := c.tokenErr[token.Address]; err != nil {
			return entity.Amount{}, err
		}
		if b, ok := c.tokenBals[token.Address]; ok {
			return b, nil
		}
		return token.Zero(), nil
	}
	c.nativeGet++
	if c.balanceFn != nil {
		return c.balanceFn()
	}
	if len(c.balances) == 0 {
		return entity.ZeroAmount(entity.NativeDecimals), nil
	}
	b := c.balances[0]
	if len(c.balances) > 1 {
		c.balances = c.balances[1:]
	}
	return b, nil
}

func (c *fakeClient) GetBalances(ctx context.Context, tokens []entity.Token, address common.Address) ([]entity.BalanceResult, error) {
	out := make([]entity.BalanceResult, len(tokens))
	for i, t := range tokens {
		tok := t
		bal, err := c.GetBalance(ctx, &tok, &address)
		out[i] = entity.BalanceResult{Token: t, Balance: bal, Error: err}
		if err != nil {
			out[i].Balance = t.Zero()
		}
	}
	return out, nil
}

func (c *fakeClient) TokenParams(_ context.Context, address string) (entity.Token, error) {
	if t, ok := c.params[address]; ok {
		return t, nil
	}
	return entity.Token{}, fmt.Errorf("%w: %s", entity.ErrTokenNotFound, address)
}

func (c *fakeClient) GasPrice(context.Context) (*big.Int, error) { return big.NewInt(1), nil }

func (c *fakeClient) GasPriceGwei(context.Context) (decimal.Decimal, error) { return c.gasGwei, nil }

func (c *fakeClient) WaitForAcceptableGasPrice(_ context.Context, limit decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gasWaits = append(c.gasWaits, limit)
	return nil
}

func (c *fakeClient) SendToken(_ context.Context, to common.Address, amount *entity.Amount, token *entity.Token) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return common.Hash{}, c.sendErr
	}
	c.sent = append(c.sent, sentTx{to: to, amount: amount, token: token})
	return common.HexToHash(fmt.Sprintf("0x%x", len(c.sent))), nil
}

func (c *fakeClient) Approve(context.Context, *entity.Token, entity.Amount, common.Address) error {
	return nil
}

func (c *fakeClient) Nonce(context.Context, common.Address) (uint64, error) {
	return c.nonce, c.nonceErr
}

func (c *fakeClient) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// fakeProvider hands out clients per chain and records dials.
type fakeProvider struct {
	mu      sync.Mutex
	clients map[string]*fakeClient
	dialErr map[string]error
	dials   []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{clients: map[string]*fakeClient{}, dialErr: map[string]error{}}
}

func (p *fakeProvider) with(c *fakeClient) *fakeProvider {
	p.clients[c.chain.Name] = c
	return p
}

func (p *fakeProvider) Client(_ context.Context, account *entity.Account, chain entity.Chain) (port.OnchainClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dials = append(p.dials, chain.Name)
	if err := p.dialErr[chain.Name]; err != nil {
		return nil, err
	}
	c, ok := p.clients[chain.Name]
	if !ok {
		c = &fakeClient{chain: chain}
		p.clients[chain.Name] = c
	}
	c.account = account
	return c, nil
}

func (p *fakeProvider) ReadOnly(ctx context.Context, chain entity.Chain) (port.OnchainClient, error) {
	return p.Client(ctx, nil, chain)
}

func (p *fakeProvider) Close() {}

// fakeLedger keeps cells as strings.
type fakeLedger struct {
	mu    sync.Mutex
	cells map[int]map[string]string
}

func newFakeLedger() *fakeLedger { return &fakeLedger{cells: map[int]map[string]string{}} }

func (l *fakeLedger) SetCell(profile int, column string, value any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cells[profile] == nil {
		l.cells[profile] = map[string]string{}
	}
	l.cells[profile][column] = fmt.Sprint(value)
	return nil
}

func (l *fakeLedger) GetCell(profile int, column string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cells[profile][column], nil
}

func (l *fakeLedger) SetDate(profile int, column string, at time.Time) error {
	return l.SetCell(profile, column, at.Format(time.RFC3339))
}

func (l *fakeLedger) GetDate(profile int, column string) (time.Time, error) {
	raw, _ := l.GetCell(profile, column)
	return time.Parse(time.RFC3339, raw)
}

func (l *fakeLedger) GetCounter(profile int, column string) (int, error) {
	raw, _ := l.GetCell(profile, column)
	if raw == "" {
		return 0, nil
	}
	var n int
	_, err := fmt.Sscan(raw, &n)
	return n, err
}

func (l *fakeLedger) IncreaseCounter(profile int, column string, delta int) (int, error) {
	n, err := l.GetCounter(profile, column)
	if err != nil {
		return 0, err
	}
	n += delta
	return n, l.SetCell(profile, column, n)
}

// fakeChains is a fixed catalogue.
type fakeChains []entity.Chain

func (f fakeChains) Get(name string) (entity.Chain, error) {
	for _, c := range f {
		if c.Is(name) {
			return c, nil
		}
	}
	return entity.Chain{}, fmt.Errorf("%w: %s", entity.ErrChainNotFound, name)
}

func (f fakeChains) ByChainID(id uint64) (entity.Chain, error) {
	for _, c := range f {
		if c.HasID(id) {
			return c, nil
		}
	}
	return entity.Chain{}, entity.ErrChainNotFound
}

func (f fakeChains) List() []entity.Chain { return append([]entity.Chain(nil), f...) }

// fakeTokens is a fixed token catalogue.
type fakeTokens []entity.Token

func (f fakeTokens) ByAddress(address string) (entity.Token, error) {
	for _, t := range f {
		if t.Matches(address) {
			return t, nil
		}
	}
	return entity.Token{}, entity.ErrTokenNotFound
}

func (f fakeTokens) ByChainAndAddress(chain entity.Chain, address string) (entity.Token, error) {
	for _, t := range f {
		if t.Chain.Equal(chain) && t.Matches(address) {
			return t, nil
		}
	}
	return entity.Token{}, entity.ErrTokenNotFound
}

func (f fakeTokens) ByChain(chain entity.Chain) []entity.Token {
	var out []entity.Token
	for _, t := range f {
		if t.Chain.Equal(chain) {
			out = append(out, t)
		}
	}
	return out
}

func (f fakeTokens) BySymbolAndChain(symbol string, chain entity.Chain) (entity.Token, error) {
	for _, t := range f {
		if t.Chain.Equal(chain) && t.Matches(symbol) {
			return t, nil
		}
	}
	return entity.Token{}, fmt.Errorf("%w: %s", entity.ErrTokenNotFound, symbol)
}

func (f fakeTokens) Register(token entity.Token) entity.Token { return token }

// fakePrices returns fixed prices.
type fakePrices map[string]decimal.Decimal

func (f fakePrices) PriceUSD(_ context.Context, symbol string) (decimal.Decimal, bool) {
	p, ok := f[symbol]
	return p, ok
}

func eth(v string) entity.Amount {
	a, err := entity.NewAmountFromString(v, entity.NativeDecimals)
	if err != nil {
		panic(err)
	}
	return a
}
