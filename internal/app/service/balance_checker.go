package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"airdrop_farmer/internal/app/port"
	"airdrop_farmer/internal/domain/entity"
	"airdrop_farmer/internal/pkg/logger"
)

// Режимы отчёта о балансах.
const (
	BalanceModeNative = "native"
	BalanceModeTokens = "tokens"
	BalanceModeCustom = "custom"
)

const (
	nativePlaces int32 = 5
	tokenPlaces  int32 = 2
)

// BalanceCheckerOptions настраивает BalanceChecker.
type BalanceCheckerOptions struct {
	Mode     string
	Chain    entity.Chain
	Contract string // custom mode
	Tokens   port.TokenRegistry
	Prices   port.TokenPriceService // nil = без колонки USD
	Ledger   port.Ledger
	Logger   port.Logger
	Now      func() time.Time
}

// BalanceChecker writes account balances on one chain into the ledger.
type BalanceChecker struct {
	opts BalanceCheckerOptions
}

func NewBalanceChecker(opts BalanceCheckerOptions) (*BalanceChecker, error) {
	switch opts.Mode {
	case BalanceModeNative, BalanceModeTokens:
	case BalanceModeCustom:
		if opts.Contract == "" {
			return nil, fmt.Errorf("custom balance mode requires a contract address")
		}
	default:
		return nil, fmt.Errorf("unknown balance mode %q", opts.Mode)
	}
	if opts.Ledger == nil {
		return nil, fmt.Errorf("balance checker requires a ledger")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewSlogAdapter("activity", "balance_checker")
	}
	return &BalanceChecker{opts: opts}, nil
}

func (b *BalanceChecker) Name() string { return "balance_checker" }

// BalanceColumn is the ledger column for symbol on chain, e.g. "ETH BASE".
func BalanceColumn(symbol string, chain entity.Chain) string {
	return fmt.Sprintf("%s %s", symbol, strings.ToUpper(chain.Name))
}

// Run implements Activity.
func (b *BalanceChecker) Run(ctx context.Context, s *Session) error {
	client, err := s.Client(ctx, b.opts.Chain)
	if err != nil {
		return err
	}
	profile := s.Account.ProfileNumber
	if err := b.opts.Ledger.SetCell(profile, "Address", s.Account.Address().Hex()); err != nil {
		return err
	}
	if err := b.opts.Ledger.SetDate(profile, "Date", b.opts.Now()); err != nil {
		return err
	}

	switch b.opts.Mode {
	case BalanceModeNative:
		return b.native(ctx, profile, client)
	case BalanceModeTokens:
		return b.tokens(ctx, s, client)
	default:
		return b.custom(ctx, profile, client)
	}
}

func (b *BalanceChecker) native(ctx context.Context, profile int, client port.OnchainClient) error {
	balance, err := client.GetBalance(ctx, nil, nil)
	if err != nil {
		return err
	}
	return b.write(ctx, profile, b.opts.Chain.NativeToken, balance, nativePlaces)
}

func (b *BalanceChecker) tokens(ctx context.Context, s *Session, client port.OnchainClient) error {
	if b.opts.Tokens == nil {
		return fmt.Errorf("tokens mode requires a token registry")
	}
	tokens := b.opts.Tokens.ByChain(b.opts.Chain)
	if len(tokens) == 0 {
		b.opts.Logger.Warn("В каталоге нет токенов для сети", "chain", b.opts.Chain.Name)
		return nil
	}

	results, err := client.GetBalances(ctx, tokens, s.Account.Address())
	if err != nil {
		return err
	}
	for _, res := range results {
		if res.Error != nil {
			b.opts.Logger.Warn("Не удалось получить баланс токена", "profile", s.Account.ProfileNumber,
				"token", res.Token.Symbol, "error", res.Error)
			continue
		}
		if err := b.write(ctx, s.Account.ProfileNumber, res.Token.Symbol, res.Balance, tokenPlaces); err != nil {
			return err
		}
	}
	return nil
}

func (b *BalanceChecker) custom(ctx context.Context, profile int, client port.OnchainClient) error {
	token, err := client.TokenParams(ctx, b.opts.Contract)
	if err != nil {
		return err
	}
	balance, err := client.GetBalance(ctx, &token, nil)
	if err != nil {
		return err
	}
	return b.write(ctx, profile, token.Symbol, balance, tokenPlaces)
}

func (b *BalanceChecker) write(ctx context.Context, profile int, symbol string, balance entity.Amount, places int32) error {
	column := BalanceColumn(symbol, b.opts.Chain)
	if err := b.opts.Ledger.SetCell(profile, column, balance.StringFixed(places)); err != nil {
		return err
	}
	b.opts.Logger.Info("Баланс записан", "profile", profile, "column", column, "balance", balance.StringFixed(places))

	if b.opts.Prices == nil {
		return nil
	}
	price, ok := b.opts.Prices.PriceUSD(ctx, symbol)
	if !ok {
		return nil
	}
	usd := balance.Decimal().Mul(price).Truncate(2).StringFixed(2)
	return b.opts.Ledger.SetCell(profile, column+" USD", usd)
}
