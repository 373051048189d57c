package gcode

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// ErrFixedPoint indicates a value outside the fixed-point range.
var ErrFixedPoint = errors.New("fixed point error")

// Value is a signed fixed-point quantity with the range of a 16.16 number.
// Decimal keeps the digits sent by the host so values are reported back
// exactly as received.
type Value = decimal.Decimal

var (
	minValue = decimal.New(-32768, 0)
	maxValue = decimal.New(32768, 0)
)

// NewValue creates a Value from an integer.
func NewValue(n int64) Value {
	return decimal.New(n, 0)
}

// MustParseValue parses a literal and panics on error. Used for constants.
func MustParseValue(s string) Value {
	v, err := ParseValue(s)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseValue parses a decimal literal and validates its range.
func ParseValue(s string) (Value, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return Value{}, err
	}
	return v, CheckRange(v)
}

// ValueFromFloat converts a tokenizer float into a Value.
func ValueFromFloat(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, ErrFixedPoint
	}
	v := decimal.NewFromFloat(f)
	return v, CheckRange(v)
}

// CheckRange returns ErrFixedPoint if v is not representable.
func CheckRange(v Value) error {
	if v.LessThan(minValue) || !v.LessThan(maxValue) {
		return ErrFixedPoint
	}
	return nil
}

// IntValue floors v to an integer.
func IntValue(v Value) (int64, error) {
	if err := CheckRange(v); err != nil {
		return 0, err
	}
	return v.Floor().IntPart(), nil
}

// Uint32Value floors v to an unsigned integer.
func Uint32Value(v Value) (uint32, error) {
	n, err := IntValue(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrFixedPoint
	}
	return uint32(n), nil
}

// Flag converts a value into a boolean, non-zero is true.
func Flag(v Value) bool {
	return !v.IsZero()
}

// FlagValue converts a boolean into 0 or 1.
func FlagValue(b bool) Value {
	if b {
		return NewValue(1)
	}
	return NewValue(0)
}
