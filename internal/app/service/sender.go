package service

import (
	"context"
	"fmt"
	"strings"

	"airdrop_farmer/internal/app/port"
	"airdrop_farmer/internal/domain/entity"
	"airdrop_farmer/internal/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Колонки учёта отправок.
const (
	DepositAddressColumn = "Deposit Address"
	SendsColumn          = "Sends"
)

// SenderOptions настраивает отправку на адреса депозита.
type SenderOptions struct {
	Chain    entity.Chain
	Token    string          // символ или адрес контракта, пусто = нативный
	Amount   decimal.Decimal // 0 = весь баланс
	GasLimit decimal.Decimal // gwei
	// Deposits: адреса по порядку выбранных аккаунтов; пусто = колонка Deposit Address.
	Deposits []string
	Tokens   port.TokenRegistry
	Ledger   port.Ledger
	Logger   port.Logger
}

// Sender sends native or token balance of every account to its deposit
// address once gas price is acceptable.
type Sender struct {
	opts SenderOptions
}

func NewSender(opts SenderOptions) (*Sender, error) {
	if opts.Ledger == nil {
		return nil, fmt.Errorf("sender requires a ledger")
	}
	if opts.Amount.IsNegative() {
		return nil, fmt.Errorf("sender amount must not be negative, got %s", opts.Amount)
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewSlogAdapter("activity", "sender")
	}
	return &Sender{opts: opts}, nil
}

func (s *Sender) Name() string { return "sender" }

func (s *Sender) depositAddress(sess *Session) (common.Address, error) {
	var raw string
	if len(s.opts.Deposits) > 0 {
		if sess.Index >= len(s.opts.Deposits) {
			return common.Address{}, fmt.Errorf("no deposit address for account #%d: list has %d entries", sess.Index+1, len(s.opts.Deposits))
		}
		raw = s.opts.Deposits[sess.Index]
	} else {
		var err error
		if raw, err = s.opts.Ledger.GetCell(sess.Account.ProfileNumber, DepositAddressColumn); err != nil {
			return common.Address{}, err
		}
	}
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%w: deposit address %q", entity.ErrInvalidAddress, raw)
	}
	return common.HexToAddress(raw), nil
}

func (s *Sender) token(ctx context.Context, client port.OnchainClient) (*entity.Token, error) {
	ref := strings.TrimSpace(s.opts.Token)
	if ref == "" {
		return nil, nil
	}
	if common.IsHexAddress(ref) {
		token, err := client.TokenParams(ctx, ref)
		if err != nil {
			return nil, err
		}
		return &token, nil
	}
	if strings.EqualFold(ref, s.opts.Chain.NativeToken) {
		return nil, nil
	}
	if s.opts.Tokens == nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrTokenNotFound, ref)
	}
	token, err := s.opts.Tokens.BySymbolAndChain(ref, s.opts.Chain)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Run implements Activity.
func (s *Sender) Run(ctx context.Context, sess *Session) error {
	to, err := s.depositAddress(sess)
	if err != nil {
		return err
	}
	client, err := sess.Client(ctx, s.opts.Chain)
	if err != nil {
		return err
	}
	token, err := s.token(ctx, client)
	if err != nil {
		return err
	}

	if s.opts.GasLimit.IsPositive() {
		if err := client.WaitForAcceptableGasPrice(ctx, s.opts.GasLimit); err != nil {
			return err
		}
	}

	var amount *entity.Amount
	if s.opts.Amount.IsPositive() {
		decimals := entity.NativeDecimals
		if token != nil {
			decimals = token.Decimals
		}
		a := entity.NewAmount(s.opts.Amount, decimals)
		amount = &a
	}

	hash, err := client.SendToken(ctx, to, amount, token)
	if err != nil {
		return err
	}
	symbol := s.opts.Chain.NativeToken
	if token != nil {
		symbol = token.Symbol
	}
	s.opts.Logger.Info("Отправлено на депозит", "profile", sess.Account.ProfileNumber, "to", to.Hex(),
		"token", symbol, "chain", s.opts.Chain.Name, "tx", hash.Hex())

	if _, err := s.opts.Ledger.IncreaseCounter(sess.Account.ProfileNumber, SendsColumn, 1); err != nil {
		return fmt.Errorf("sent %s but failed to update ledger: %w", hash.Hex(), err)
	}
	return nil
}
