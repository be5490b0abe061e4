/*
money.go - Exact currency arithmetic in minor units

PURPOSE:
  Money is the single representation of currency in the engine. Internally
  it is an integer count of minor units (cents), so balance math is exact
  integer arithmetic - no binary floating-point drift, no epsilon
  comparisons.

DECIMAL BOUNDARY:
  decimal.Decimal is used ONLY at the edges: parsing user input like
  "50.00" into cents, and formatting cents back for display. It never
  participates in balance arithmetic.

SIGNED INTERMEDIATE MATH:
  Sub is allowed to produce a negative Money. Non-negativity is a ledger
  invariant, not a Money invariant - the ledger checks IsNegative/LessThan
  before committing any balance. This keeps Money a plain value type.

SEE ALSO:
  - ledger.go: Where non-negativity is actually enforced
  - types.go: Card and Record, which carry Money values
*/
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Integer minor units (cents)
// =============================================================================

// Money is an amount of currency in minor units. The zero value is zero
// currency. Money is comparable with == (exact integer equality).
type Money struct {
	units int64
}

// Cents constructs a Money from an integer count of minor units.
// Negative counts are permitted; callers that require non-negativity
// must check IsNegative themselves.
func Cents(n int64) Money {
	return Money{units: n}
}

// ParseMoney parses a decimal string like "50.00" or "15.5" into Money.
// More than two fractional digits is rejected - there is no sub-cent
// currency at an event.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money %q: %w", s, err)
	}
	cents := d.Mul(decimal.New(100, 0))
	if !cents.IsInteger() {
		return Money{}, fmt.Errorf("invalid money %q: more than two decimal places", s)
	}
	return Money{units: cents.IntPart()}, nil
}

// Units returns the raw minor-unit count.
func (m Money) Units() int64 { return m.units }

// Decimal returns the amount as a decimal in major units (e.g. 1550 -> 15.50).
func (m Money) Decimal() decimal.Decimal { return decimal.New(m.units, -2) }

// String formats the amount with two decimal places, e.g. "34.50".
func (m Money) String() string { return m.Decimal().StringFixed(2) }

// =============================================================================
// ARITHMETIC AND COMPARISON
// =============================================================================

func (m Money) Add(o Money) Money { return Money{units: m.units + o.units} }

// Sub subtracts o from m. The result may be negative; see the package
// note on signed intermediate math.
func (m Money) Sub(o Money) Money { return Money{units: m.units - o.units} }

func (m Money) Neg() Money { return Money{units: -m.units} }

func (m Money) IsZero() bool     { return m.units == 0 }
func (m Money) IsNegative() bool { return m.units < 0 }
func (m Money) IsPositive() bool { return m.units > 0 }

func (m Money) LessThan(o Money) bool    { return m.units < o.units }
func (m Money) GreaterThan(o Money) bool { return m.units > o.units }

// Cmp returns -1, 0, or 1 comparing m to o.
func (m Money) Cmp(o Money) int {
	switch {
	case m.units < o.units:
		return -1
	case m.units > o.units:
		return 1
	default:
		return 0
	}
}
