package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"airdrop_farmer/internal/domain/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExchange struct {
	name        string
	supported   bool
	checkErr    error
	withdrawErr error
	requests    []entity.WithdrawRequest
	onWithdraw  func()
}

func (e *fakeExchange) Name() string { return e.name }

func (e *fakeExchange) Withdraw(_ context.Context, req entity.WithdrawRequest) error {
	e.requests = append(e.requests, req)
	if e.onWithdraw != nil {
		e.onWithdraw()
	}
	return e.withdrawErr
}

func (e *fakeExchange) ListChains(context.Context) ([]string, error) { return nil, nil }

func (e *fakeExchange) CheckChain(context.Context, entity.Chain) (bool, error) {
	return e.supported, e.checkErr
}

type fakeCollector struct{ calls int }

func (c *fakeCollector) TransferSubToMain(context.Context) error {
	c.calls++
	return nil
}

func newTestTopup(t *testing.T, ex *fakeExchange, sleeps *sleepRecorder, opts ...func(*TopupOptions)) *Topup {
	t.Helper()
	o := TopupOptions{
		Exchange:     ex,
		TargetChain:  testBase,
		TargetAmount: decimal.RequireFromString("0.01"),
		Logger:       nopLogger{},
		Random:       fixedRandom(0),
		Sleep:        sleeps.sleep,
		PollAttempts: 3,
	}
	for _, f := range opts {
		f(&o)
	}
	topup, err := NewTopup(o)
	require.NoError(t, err)
	return topup
}

func TestTopup_WithdrawsDeficitAndWaits(t *testing.T) {
	ex := &fakeExchange{name: entity.ExchangeOKX, supported: true}
	client := &fakeClient{chain: testBase, balances: []entity.Amount{
		eth("0.004"), // старт
		eth("0.004"), // первая проверка
		eth("0.0141"),
	}}
	collector := &fakeCollector{}
	sleeps := &sleepRecorder{}
	topup := newTestTopup(t, ex, sleeps, func(o *TopupOptions) { o.Collector = collector })

	s := NewSession(testAccount(1, testWallet), 0, newFakeProvider().with(client))
	require.NoError(t, topup.Run(context.Background(), s))

	require.Len(t, ex.requests, 1)
	req := ex.requests[0]
	// target = 0.01 * 1.01 = 0.0101, deficit 0.0061
	assert.Equal(t, "0.0061", req.Amount.String())
	assert.Equal(t, "ETH", req.Token)
	assert.Equal(t, "Base", req.Chain)
	assert.Equal(t, testAccount(1, testWallet).Address().Hex(), req.Address)
	assert.Equal(t, 1, collector.calls)
	assert.Equal(t, []time.Duration{10 * time.Second, 10 * time.Second}, sleeps.durations)
}

func TestTopup_SkipsWhenBalanceAboveTarget(t *testing.T) {
	ex := &fakeExchange{name: entity.ExchangeOKX, supported: true}
	client := &fakeClient{chain: testBase, balances: []entity.Amount{eth("0.02")}}
	topup := newTestTopup(t, ex, &sleepRecorder{})

	s := NewSession(testAccount(1, testWallet), 0, newFakeProvider().with(client))
	require.NoError(t, topup.Run(context.Background(), s))
	assert.Empty(t, ex.requests)
}

func TestTopup_UnsupportedChain(t *testing.T) {
	ex := &fakeExchange{name: entity.ExchangeBinance}
	client := &fakeClient{chain: testBase}
	topup := newTestTopup(t, ex, &sleepRecorder{})

	s := NewSession(testAccount(1, testWallet), 0, newFakeProvider().with(client))
	err := topup.Run(context.Background(), s)
	assert.ErrorIs(t, err, ErrChainUnsupported)
	assert.Empty(t, ex.requests)
}

func TestTopup_BalanceNeverArrives(t *testing.T) {
	ex := &fakeExchange{name: entity.ExchangeOKX, supported: true}
	calls := 0
	client := &fakeClient{chain: testBase, balanceFn: func() (entity.Amount, error) {
		calls++
		if calls == 3 {
			return entity.Amount{}, errors.New("rpc hiccup")
		}
		return eth("0"), nil
	}}
	sleeps := &sleepRecorder{}
	topup := newTestTopup(t, ex, sleeps)

	s := NewSession(testAccount(1, testWallet), 0, newFakeProvider().with(client))
	err := topup.Run(context.Background(), s)
	require.ErrorIs(t, err, entity.ErrTransactionTimeout)
	assert.Equal(t, OutcomeTimeout, ClassifyOutcome(err))
	assert.Len(t, sleeps.durations, 3)
	assert.Equal(t, 4, client.nativeGet)
}

func TestTopup_WithdrawFailure(t *testing.T) {
	ex := &fakeExchange{name: entity.ExchangeOKX, supported: true, withdrawErr: entity.ErrWithdrawalFailed}
	client := &fakeClient{chain: testBase}
	sleeps := &sleepRecorder{}
	topup := newTestTopup(t, ex, sleeps)

	s := NewSession(testAccount(1, testWallet), 0, newFakeProvider().with(client))
	assert.ErrorIs(t, topup.Run(context.Background(), s), entity.ErrWithdrawalFailed)
	assert.Empty(t, sleeps.durations)
}

func TestNewTopup_Validation(t *testing.T) {
	_, err := NewTopup(TopupOptions{TargetAmount: decimal.NewFromInt(1)})
	assert.Error(t, err)
	_, err = NewTopup(TopupOptions{Exchange: &fakeExchange{}, TargetAmount: decimal.Zero})
	assert.Error(t, err)
}

func TestNewTopup_WithdrawChainMustMatchTarget(t *testing.T) {
	bsc := entity.Chain{Name: "bsc", ChainID: 56, NativeToken: "BNB", OkxName: "BSC", BinanceName: "BSC", Multiplier: 1}
	_, err := NewTopup(TopupOptions{
		Exchange:      &fakeExchange{name: entity.ExchangeOKX, supported: true},
		TargetChain:   testBase,
		WithdrawChain: bsc,
		TargetAmount:  decimal.RequireFromString("0.01"),
	})
	assert.ErrorIs(t, err, ErrWithdrawChainMismatch)

	ex := &fakeExchange{name: entity.ExchangeOKX, supported: true}
	client := &fakeClient{chain: testBase, balances: []entity.Amount{eth("0.004"), eth("0.0141")}}
	topup := newTestTopup(t, ex, &sleepRecorder{}, func(o *TopupOptions) { o.WithdrawChain = testBase })

	s := NewSession(testAccount(1, testWallet), 0, newFakeProvider().with(client))
	require.NoError(t, topup.Run(context.Background(), s))
	require.Len(t, ex.requests, 1)
	assert.Equal(t, "ETH", ex.requests[0].Token)
	assert.Equal(t, "Base", ex.requests[0].Chain)
}
