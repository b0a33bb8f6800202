package entity

import "errors"

// Ошибки предметной области. Вызывающий код проверяет их через errors.Is.
var (
	// ErrScaleMismatch returned when two amounts with different decimals meet in one operation.
	ErrScaleMismatch = errors.New("amount scale mismatch")
	// ErrDivisionByZero returned by Div, Mod and FloorDiv on a zero divisor.
	ErrDivisionByZero = errors.New("amount division by zero")

	ErrChainNotFound = errors.New("chain not found")
	ErrTokenNotFound = errors.New("token not found")

	// ErrInsufficientFunds означает, что после резерва на комиссию отправлять нечего.
	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrInvalidWithdrawRequest = errors.New("invalid withdraw request")
	ErrWithdrawalFailed       = errors.New("withdrawal failed")
	ErrWithdrawalTimeout      = errors.New("withdrawal timeout")

	// ErrRPCFailure wraps every JSON-RPC transport or response error.
	ErrRPCFailure = errors.New("rpc failure")

	// ErrTransactionReverted returned when a mined receipt has failed status.
	ErrTransactionReverted = errors.New("transaction reverted")

	// ErrTransactionTimeout означает, что ожидаемое изменение баланса так и не наступило.
	ErrTransactionTimeout = errors.New("transaction timeout")

	ErrInvalidProxy   = errors.New("invalid proxy format, expected ip:port:login:password")
	ErrNoPrivateKey   = errors.New("account has no private key")
	ErrInvalidAddress = errors.New("invalid evm address")
)
