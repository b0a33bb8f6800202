package entity

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Amount is an immutable token amount stored in base units (wei) with a fixed
// number of decimals. Operations between two amounts require equal decimals;
// operations with plain numbers run in decimal space and are truncated back to
// the amount's decimals.
type Amount struct {
	wei      *big.Int
	decimals uint8
}

// NewAmount converts a human readable value into base units, truncating
// everything below the smallest unit.
func NewAmount(value decimal.Decimal, decimals uint8) Amount {
	return Amount{wei: value.Shift(int32(decimals)).BigInt(), decimals: decimals}
}

// NewAmountFromFloat is NewAmount for float inputs such as config values.
func NewAmountFromFloat(value float64, decimals uint8) Amount {
	return NewAmount(decimal.NewFromFloat(value), decimals)
}

// NewAmountFromString parses a decimal string ("1.25").
func NewAmountFromString(value string, decimals uint8) (Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("failed to parse amount %q: %w", value, err)
	}
	return NewAmount(d, decimals), nil
}

// AmountFromWei wraps base units. The input is copied.
func AmountFromWei(wei *big.Int, decimals uint8) Amount {
	if wei == nil {
		return Amount{wei: new(big.Int), decimals: decimals}
	}
	return Amount{wei: new(big.Int).Set(wei), decimals: decimals}
}

// ZeroAmount returns 0 with the given decimals.
func ZeroAmount(decimals uint8) Amount {
	return Amount{wei: new(big.Int), decimals: decimals}
}

func (a Amount) raw() *big.Int {
	if a.wei == nil {
		return new(big.Int)
	}
	return a.wei
}

// Wei returns a copy of the base-unit value.
func (a Amount) Wei() *big.Int { return new(big.Int).Set(a.raw()) }

func (a Amount) Decimals() uint8 { return a.decimals }

// Decimal returns the human readable value.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(a.raw(), -int32(a.decimals))
}

// Float is a lossy view for logs and spreadsheets.
func (a Amount) Float() float64 {
	f, _ := a.Decimal().Float64()
	return f
}

func (a Amount) String() string { return a.Decimal().String() }

// StringFixed renders the value with exactly places digits after the point.
func (a Amount) StringFixed(places int32) string {
	return a.Decimal().Truncate(places).StringFixed(places)
}

func (a Amount) Sign() int        { return a.raw().Sign() }
func (a Amount) IsZero() bool     { return a.Sign() == 0 }
func (a Amount) IsPositive() bool { return a.Sign() > 0 }

// MarshalJSON renders the decimal value as a JSON string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

func (a Amount) sameScale(b Amount) error {
	if a.decimals != b.decimals {
		return fmt.Errorf("%w: %d vs %d decimals", ErrScaleMismatch, a.decimals, b.decimals)
	}
	return nil
}

func (a Amount) quantize(d decimal.Decimal) Amount {
	return NewAmount(d, a.decimals)
}

func (a Amount) Add(b Amount) (Amount, error) {
	if err := a.sameScale(b); err != nil {
		return Amount{}, err
	}
	return Amount{wei: new(big.Int).Add(a.raw(), b.raw()), decimals: a.decimals}, nil
}

func (a Amount) Sub(b Amount) (Amount, error) {
	if err := a.sameScale(b); err != nil {
		return Amount{}, err
	}
	return Amount{wei: new(big.Int).Sub(a.raw(), b.raw()), decimals: a.decimals}, nil
}

func (a Amount) Mul(b Amount) (Amount, error) {
	if err := a.sameScale(b); err != nil {
		return Amount{}, err
	}
	return a.MulNum(b.Decimal()), nil
}

// Div returns a / b truncated to a's decimals.
func (a Amount) Div(b Amount) (Amount, error) {
	if err := a.sameScale(b); err != nil {
		return Amount{}, err
	}
	return a.DivNum(b.Decimal())
}

func (a Amount) Mod(b Amount) (Amount, error) {
	if err := a.sameScale(b); err != nil {
		return Amount{}, err
	}
	return a.ModNum(b.Decimal())
}

func (a Amount) Pow(b Amount) (Amount, error) {
	if err := a.sameScale(b); err != nil {
		return Amount{}, err
	}
	return a.PowNum(b.Decimal())
}

// FloorDiv returns floor(a / b) as a whole number with a's decimals.
func (a Amount) FloorDiv(b Amount) (Amount, error) {
	if err := a.sameScale(b); err != nil {
		return Amount{}, err
	}
	return a.FloorDivNum(b.Decimal())
}

func (a Amount) AddNum(x decimal.Decimal) Amount { return a.quantize(a.Decimal().Add(x)) }
func (a Amount) SubNum(x decimal.Decimal) Amount { return a.quantize(a.Decimal().Sub(x)) }
func (a Amount) MulNum(x decimal.Decimal) Amount { return a.quantize(a.Decimal().Mul(x)) }

func (a Amount) DivNum(x decimal.Decimal) (Amount, error) {
	if x.IsZero() {
		return Amount{}, ErrDivisionByZero
	}
	q, _ := a.Decimal().QuoRem(x, int32(a.decimals))
	return a.quantize(q), nil
}

func (a Amount) ModNum(x decimal.Decimal) (Amount, error) {
	if x.IsZero() {
		return Amount{}, ErrDivisionByZero
	}
	return a.quantize(a.Decimal().Mod(x)), nil
}

func (a Amount) FloorDivNum(x decimal.Decimal) (Amount, error) {
	if x.IsZero() {
		return Amount{}, ErrDivisionByZero
	}
	q, r := a.Decimal().QuoRem(x, 0)
	if !r.IsZero() && r.Sign() != x.Sign() {
		q = q.Sub(decimal.NewFromInt(1))
	}
	return a.quantize(q), nil
}

func (a Amount) PowNum(x decimal.Decimal) (Amount, error) {
	base := a.Decimal()
	if base.IsZero() && x.Sign() < 0 {
		return Amount{}, ErrDivisionByZero
	}
	if x.Equal(x.Truncate(0)) && x.Sign() >= 0 {
		return a.quantize(base.Pow(x)), nil
	}
	bf, _ := base.Float64()
	xf, _ := x.Float64()
	res := math.Pow(bf, xf)
	if math.IsNaN(res) || math.IsInf(res, 0) {
		return Amount{}, fmt.Errorf("amount pow %s^%s is undefined", base, x)
	}
	return a.quantize(decimal.NewFromFloat(res)), nil
}

// Cmp compares two amounts of equal scale.
func (a Amount) Cmp(b Amount) (int, error) {
	if err := a.sameScale(b); err != nil {
		return 0, err
	}
	return a.raw().Cmp(b.raw()), nil
}

func (a Amount) Eq(b Amount) (bool, error) {
	c, err := a.Cmp(b)
	return c == 0, err
}

func (a Amount) Lt(b Amount) (bool, error) {
	c, err := a.Cmp(b)
	return c < 0, err
}

func (a Amount) Le(b Amount) (bool, error) {
	c, err := a.Cmp(b)
	return c <= 0, err
}

func (a Amount) Gt(b Amount) (bool, error) {
	c, err := a.Cmp(b)
	return c > 0, err
}

func (a Amount) Ge(b Amount) (bool, error) {
	c, err := a.Cmp(b)
	return c >= 0, err
}

// CmpNum compares with a plain number in decimal space.
func (a Amount) CmpNum(x decimal.Decimal) int { return a.Decimal().Cmp(x) }

func (a Amount) EqNum(x decimal.Decimal) bool { return a.CmpNum(x) == 0 }
func (a Amount) LtNum(x decimal.Decimal) bool { return a.CmpNum(x) < 0 }
func (a Amount) LeNum(x decimal.Decimal) bool { return a.CmpNum(x) <= 0 }
func (a Amount) GtNum(x decimal.Decimal) bool { return a.CmpNum(x) > 0 }
func (a Amount) GeNum(x decimal.Decimal) bool { return a.CmpNum(x) >= 0 }
