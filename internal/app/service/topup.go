package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"airdrop_farmer/internal/app/port"
	"airdrop_farmer/internal/domain/entity"
	"airdrop_farmer/internal/pkg/logger"
	"airdrop_farmer/internal/pkg/utils"

	"github.com/shopspring/decimal"
)

const (
	topupBalancePolls = 60
	// биржи принимают сумму вывода с ограниченной точностью
	topupAmountPlaces int32 = 6
)

var (
	// ErrChainUnsupported is returned when the exchange does not list the chain.
	ErrChainUnsupported = errors.New("chain is not supported by exchange")
	// ErrWithdrawChainMismatch is returned when withdraw_chain differs from target_chain.
	ErrWithdrawChainMismatch = errors.New("withdraw chain must match target chain")
)

// SubAccountCollector moves sub-account balances to the main account.
type SubAccountCollector interface {
	TransferSubToMain(ctx context.Context) error
}

// TopupOptions настраивает пополнение.
type TopupOptions struct {
	Exchange      port.Exchange
	TargetChain   entity.Chain
	WithdrawChain entity.Chain // пусто = TargetChain, иначе должна совпадать с ней
	TargetAmount  decimal.Decimal
	Collector     SubAccountCollector // nil = без сбора субаккаунтов
	Logger        port.Logger
	Random        utils.Random
	Sleep         func(ctx context.Context, d time.Duration) error
	PollAttempts  int
	PollRange     [2]float64 // секунды между проверками баланса
}

// Topup keeps a native balance on the target chain by withdrawing the
// deficit from an exchange.
type Topup struct {
	opts TopupOptions
}

func NewTopup(opts TopupOptions) (*Topup, error) {
	if opts.Exchange == nil {
		return nil, fmt.Errorf("topup requires an exchange")
	}
	if !opts.TargetAmount.IsPositive() {
		return nil, fmt.Errorf("topup target amount must be positive, got %s", opts.TargetAmount)
	}
	if opts.WithdrawChain.Name == "" {
		opts.WithdrawChain = opts.TargetChain
	}
	if !opts.WithdrawChain.Equal(opts.TargetChain) {
		return nil, fmt.Errorf("%w: withdraw to %s, top up %s",
			ErrWithdrawChainMismatch, opts.WithdrawChain.Name, opts.TargetChain.Name)
	}
	if opts.Random == nil {
		opts.Random = utils.DefaultRandom
	}
	if opts.Sleep == nil {
		opts.Sleep = utils.Sleep
	}
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = topupBalancePolls
	}
	if opts.PollRange == [2]float64{} {
		opts.PollRange = [2]float64{10, 15}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewSlogAdapter("activity", "topup")
	}
	return &Topup{opts: opts}, nil
}

func (t *Topup) Name() string { return "topup" }

// Run implements Activity.
func (t *Topup) Run(ctx context.Context, s *Session) error {
	o := t.opts
	client, err := s.Client(ctx, o.TargetChain)
	if err != nil {
		return err
	}
	start, err := client.GetBalance(ctx, nil, nil)
	if err != nil {
		return err
	}

	target := entity.NewAmount(o.TargetAmount.Mul(decimal.NewFromFloat(utils.Uniform(o.Random, 1.01, 1.05))), entity.NativeDecimals)
	if enough, _ := start.Gt(target); enough {
		o.Logger.Info("Баланс уже выше целевого, пропускаю", "profile", s.Account.ProfileNumber,
			"chain", o.TargetChain.Name, "balance", start.String(), "target", target.String())
		return nil
	}

	supported, err := o.Exchange.CheckChain(ctx, o.WithdrawChain)
	if err != nil {
		return fmt.Errorf("failed to check %s on %s: %w", o.WithdrawChain.Name, o.Exchange.Name(), err)
	}
	if !supported {
		return fmt.Errorf("%w: %s on %s", ErrChainUnsupported, o.WithdrawChain.Name, o.Exchange.Name())
	}

	if o.Collector != nil {
		if err := o.Collector.TransferSubToMain(ctx); err != nil {
			return fmt.Errorf("failed to collect sub-account balances: %w", err)
		}
	}

	deficit, err := target.Sub(start)
	if err != nil {
		return err
	}
	req := entity.WithdrawRequest{
		Address: s.Account.Address().Hex(),
		Token:   o.WithdrawChain.NativeToken,
		Amount:  deficit.Decimal().RoundUp(topupAmountPlaces),
		Chain:   o.WithdrawChain.ExchangeName(o.Exchange.Name()),
	}
	if err := req.Validate(); err != nil {
		return err
	}

	o.Logger.Info("Пополняю баланс с биржи", "profile", s.Account.ProfileNumber, "exchange", o.Exchange.Name(),
		"amount", req.Amount.String(), "token", req.Token, "chain", req.Chain)
	if err := o.Exchange.Withdraw(ctx, req); err != nil {
		return err
	}
	return t.waitBalance(ctx, s, client, start)
}

func (t *Topup) waitBalance(ctx context.Context, s *Session, client port.OnchainClient, start entity.Amount) error {
	o := t.opts
	for i := 0; i < o.PollAttempts; i++ {
		if err := o.Sleep(ctx, utils.UniformDuration(o.Random, o.PollRange[0], o.PollRange[1])); err != nil {
			return err
		}
		balance, err := client.GetBalance(ctx, nil, nil)
		if err != nil {
			o.Logger.Warn("Не удалось проверить баланс", "profile", s.Account.ProfileNumber, "error", err)
			continue
		}
		if arrived, _ := balance.Gt(start); arrived {
			o.Logger.Info("Средства зачислены", "profile", s.Account.ProfileNumber,
				"chain", o.TargetChain.Name, "balance", balance.String())
			return nil
		}
	}
	return fmt.Errorf("%w: balance on %s did not rise above %s after %d checks",
		entity.ErrTransactionTimeout, o.TargetChain.Name, start, o.PollAttempts)
}
