// Package money holds the minor-unit arithmetic shared by tax and discount
// calculation. Amounts are int64 minor units; rates are basis points.
package money

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// BasisPointsScale is 100% expressed in basis points.
const BasisPointsScale = 10000

var bpDivisor = decimal.NewFromInt(BasisPointsScale)

var ErrOverflow = errors.New("amount out of range")

// Mul returns a × b, or ErrOverflow when the product does not fit in int64.
func Mul(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, ErrOverflow
	}
	return p, nil
}

// Add returns a + b, or ErrOverflow when the sum does not fit in int64.
func Add(a, b int64) (int64, error) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, ErrOverflow
	}
	return s, nil
}

// ApplyRate returns amount × bp / 10000 rounded half-up to the nearest minor unit.
// Negative inputs are treated as 0.
func ApplyRate(amount, bp int64) int64 {
	if amount <= 0 || bp <= 0 {
		return 0
	}
	// decimal.Round rounds half away from zero, which is half-up for non-negative values.
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(bp)).
		Div(bpDivisor).
		Round(0).
		IntPart()
}

// NonNegative clamps v to zero.
func NonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// Min returns the smaller of a and b.
func Min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// Finite reports whether v is a usable numeric value: a Go integer type or a
// finite float. Strings and nil are not finite numbers.
func Finite(v any) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return !math.IsNaN(float64(n)) && !math.IsInf(float64(n), 0)
	case float64:
		return !math.IsNaN(n) && !math.IsInf(n, 0)
	case json.Number:
		_, err := decimal.NewFromString(n.String())
		return err == nil
	default:
		return false
	}
}

// Sanitize coerces v to an int64 for storage; anything that is not a finite
// number becomes 0.
func Sanitize(v any) int64 {
	if !Finite(v) {
		return 0
	}
	n, _ := ToMinor(v)
	return n
}

// ToMinor parses a loosely typed store value into minor units. Floats are
// rounded half-up; numeric strings are accepted. ok is false for anything else.
func ToMinor(v any) (int64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return fromFloat(float64(n))
	case float64:
		return fromFloat(n)
	case json.Number:
		return fromString(n.String())
	case string:
		return fromString(n)
	default:
		return 0, false
	}
}

func fromFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return decimal.NewFromFloat(f).Round(0).IntPart(), true
}

func fromString(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.Round(0).IntPart(), true
}
