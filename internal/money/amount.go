// Package money holds the ledger's fixed-point currency type. Amounts are
// stored as int64 minor units (cents); decimal arithmetic is only used at the
// edges, for parsing and for percentage splits.
package money

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of minor-unit digits of the ledger currency.
const Scale = 2

var (
	ErrTooPrecise = errors.New("amount has more than two decimal places")
	ErrOverflow   = errors.New("amount out of range")
	ErrMalformed  = errors.New("amount is not a number")
)

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// Amount is a quantity of the ledger currency in minor units.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// FromDecimal converts a major-unit decimal to an Amount, rejecting values
// that would lose precision.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	minor := d.Shift(Scale)
	if !minor.IsInteger() {
		return 0, ErrTooPrecise
	}
	if minor.Abs().GreaterThan(maxMinor) {
		return 0, ErrOverflow
	}
	return Amount(minor.IntPart()), nil
}

// Parse reads a major-unit string such as "1000" or "12.50".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrMalformed
	}
	return FromDecimal(d)
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic("money: " + err.Error() + ": " + s)
	}
	return a
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

func (a Amount) IsPositive() bool { return a > 0 }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted and bare JSON numbers.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return ErrMalformed
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Split divides gross into the platform cut and the remaining share for a
// commission expressed in percent. The cut is rounded half-up to the minor
// unit and the share absorbs the remainder, so cut+share == gross always.
func Split(gross Amount, percent decimal.Decimal) (cut, share Amount) {
	c := gross.Decimal().Mul(percent).Shift(-2).Round(Scale)
	cut = Amount(c.Shift(Scale).IntPart())
	return cut, gross - cut
}
