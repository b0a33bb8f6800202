package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"airdrop_farmer/internal/domain/entity"
	"airdrop_farmer/internal/pkg/metrics"
	"airdrop_farmer/internal/pkg/utils"

	jsoniter "github.com/json-iterator/go"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpproxy"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultRequestTimeout = 15 * time.Second
	defaultPollInterval   = 10 * time.Second
	defaultPollAttempts   = 30

	chainsCacheKey = "chains"
)

// Option tunes an exchange client.
type Option func(*restClient)

// WithBaseURL points the client at another host (tests, mirrors).
func WithBaseURL(url string) Option {
	return func(c *restClient) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithPolling sets the withdrawal status poll interval and attempt budget.
func WithPolling(interval time.Duration, attempts int) Option {
	return func(c *restClient) {
		c.pollInterval = interval
		c.pollAttempts = attempts
	}
}

func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *restClient) { c.sleep = sleep }
}

func WithClock(now func() time.Time) Option {
	return func(c *restClient) { c.now = now }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(c *restClient) { c.timeout = d }
}

// restClient is the transport shared by OKX and Binance: fasthttp with an
// optional forward proxy, status polling settings and the memoized chain list.
type restClient struct {
	name         string
	client       *fasthttp.Client
	baseURL      string
	timeout      time.Duration
	pollInterval time.Duration
	pollAttempts int
	sleep        func(ctx context.Context, d time.Duration) error
	now          func() time.Time
	chains       *cache.Cache
	logger       *zap.Logger
}

func newRestClient(name, baseURL, proxy string, logger *zap.Logger, opts ...Option) (*restClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &restClient{
		name:         name,
		client:       &fasthttp.Client{},
		baseURL:      baseURL,
		timeout:      defaultRequestTimeout,
		pollInterval: defaultPollInterval,
		pollAttempts: defaultPollAttempts,
		sleep:        utils.Sleep,
		now:          time.Now,
		chains:       cache.New(cache.NoExpiration, 0),
		logger:       logger.Named(name),
	}

	p, err := entity.ParseProxy(proxy)
	if err != nil {
		return nil, fmt.Errorf("%s proxy: %w", name, err)
	}
	if p != nil {
		c.client.Dial = fasthttpproxy.FasthttpHTTPDialer(p.DialAddr())
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *restClient) Name() string { return c.name }

// do executes req honoring the ctx deadline, falling back to the client timeout.
func (c *restClient) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("%s request %s failed: %w", c.name, req.URI().Path(), err)
	}
	return nil
}

// cachedChains returns the memoized network list, loading it on first use.
// Failed loads are not memoized.
func (c *restClient) cachedChains(ctx context.Context, load func(ctx context.Context) ([]string, error)) ([]string, error) {
	if v, ok := c.chains.Get(chainsCacheKey); ok {
		return v.([]string), nil
	}
	chains, err := load(ctx)
	if err != nil {
		c.logger.Error("Не удалось получить список сетей с биржи", zap.Error(err))
		return nil, err
	}
	c.chains.Set(chainsCacheKey, chains, cache.NoExpiration)
	c.logger.Info("Список сетей с биржи получен", zap.Int("count", len(chains)))
	return chains, nil
}

// checkChain looks up the exchange-specific name of chain in the network list.
func (c *restClient) checkChain(ctx context.Context, chain entity.Chain, load func(ctx context.Context) ([]string, error)) (bool, error) {
	name := chain.ExchangeName(c.name)
	if name == "" {
		c.logger.Warn("У сети нет названия для биржи", zap.String("chain", chain.Name))
		return false, nil
	}
	chains, err := c.cachedChains(ctx, load)
	if err != nil {
		return false, err
	}
	for _, known := range chains {
		if strings.EqualFold(known, name) {
			return true, nil
		}
	}
	return false, nil
}

type withdrawalState int

const (
	withdrawalPending withdrawalState = iota
	withdrawalSucceeded
	withdrawalFailed
)

// waitWithdrawal polls query until a terminal state, at most pollAttempts
// times with pollInterval between polls.
func (c *restClient) waitWithdrawal(ctx context.Context, id string, query func(ctx context.Context) (withdrawalState, string, error)) error {
	for attempt := 1; attempt <= c.pollAttempts; attempt++ {
		state, status, err := query(ctx)
		if err != nil {
			return err
		}
		switch state {
		case withdrawalSucceeded:
			return nil
		case withdrawalFailed:
			return fmt.Errorf("%w: %s withdrawal %s status %s", entity.ErrWithdrawalFailed, c.name, id, status)
		}
		c.logger.Debug("Вывод ещё не завершён", zap.String("id", id), zap.String("status", status), zap.Int("attempt", attempt))
		if attempt == c.pollAttempts {
			break
		}
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %s withdrawal %s", entity.ErrWithdrawalTimeout, c.name, id)
}

// withdraw wraps submit+wait with validation, logging and metrics.
func (c *restClient) withdraw(ctx context.Context, req entity.WithdrawRequest, submit func(ctx context.Context) (string, error), wait func(ctx context.Context, id string) error) error {
	if err := req.Validate(); err != nil {
		c.logger.Error("Переданы некорректные аргументы вывода", zap.Error(err))
		return err
	}
	c.logger.Info("Выводим с биржи", zap.Stringer("request", req))

	id, err := submit(ctx)
	if err == nil {
		err = wait(ctx, id)
	}
	metrics.Withdrawals.WithLabelValues(c.name, withdrawOutcome(err)).Inc()
	if err != nil {
		c.logger.Error("Не удалось вывести", zap.Stringer("request", req), zap.Error(err))
		return err
	}
	c.logger.Info("Успешно выведено", zap.Stringer("request", req), zap.String("id", id))
	return nil
}

func withdrawOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, entity.ErrWithdrawalTimeout):
		return "timeout"
	case errors.Is(err, entity.ErrWithdrawalFailed):
		return "failed"
	}
	return "error"
}

// NewWithdrawRequest resolves the exchange network name of chain and defaults
// the destination to the account wallet.
func NewWithdrawRequest(exchange string, account *entity.Account, token string, amount decimal.Decimal, chain entity.Chain, address string) (entity.WithdrawRequest, error) {
	if address == "" && account != nil && account.HasAddress() {
		address = account.Address().Hex()
	}
	req := entity.WithdrawRequest{
		Address: address,
		Token:   token,
		Amount:  amount,
		Chain:   chain.ExchangeName(exchange),
	}
	return req, req.Validate()
}
