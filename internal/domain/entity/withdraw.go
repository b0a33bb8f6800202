package entity

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// WithdrawRequest is a validated, exchange-ready withdrawal.
type WithdrawRequest struct {
	Address string          // адрес получателя
	Token   string          // символ монеты на бирже
	Amount  decimal.Decimal // сумма в человекочитаемом виде
	Chain   string          // название сети на бирже
}

// Validate fails with ErrInvalidWithdrawRequest when any field is missing.
func (w WithdrawRequest) Validate() error {
	var missing []string
	if w.Address == "" {
		missing = append(missing, "address")
	}
	if w.Token == "" {
		missing = append(missing, "token")
	}
	if !w.Amount.IsPositive() {
		missing = append(missing, "amount")
	}
	if w.Chain == "" {
		missing = append(missing, "chain")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s (%s)", ErrInvalidWithdrawRequest, strings.Join(missing, ", "), w)
	}
	return nil
}

func (w WithdrawRequest) String() string {
	return fmt.Sprintf("address: %s, token: %s, amount: %s, chain: %s", w.Address, w.Token, w.Amount, w.Chain)
}
