package port

import "time"

// Ledger is row-per-profile bookkeeping with columns created on demand.
type Ledger interface {
	SetCell(profile int, column string, value any) error
	GetCell(profile int, column string) (string, error)
	SetDate(profile int, column string, at time.Time) error
	GetDate(profile int, column string) (time.Time, error)
	GetCounter(profile int, column string) (int, error)
	IncreaseCounter(profile int, column string, delta int) (int, error)
}
