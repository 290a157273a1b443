package backtest

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Sizer decides how much to buy when the strategy goes long. It returns the
// quantity acquired and the cash it costs.
type Sizer interface {
	Size(cash, price decimal.Decimal) (quantity, notional decimal.Decimal)
}

// Sizing modes accepted by NewSizer
const (
	SizingAllCash  = "all_cash"
	SizingFraction = "fraction"
	SizingFixed    = "fixed"
)

// AllCash invests the entire cash balance
type AllCash struct{}

// Size spends all available cash.
func (AllCash) Size(cash, price decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if !cash.IsPositive() || !price.IsPositive() {
		return decimal.Zero, decimal.Zero
	}
	return cash.Div(price), cash
}

// Fraction invests a fixed share of the cash balance
type Fraction float64

// Size spends f of the available cash.
func (f Fraction) Size(cash, price decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if !cash.IsPositive() || !price.IsPositive() || f <= 0 {
		return decimal.Zero, decimal.Zero
	}
	notional := cash.Mul(decimal.NewFromFloat(float64(f)))
	return notional.Div(price), notional
}

// FixedQuantity buys the same number of units every time. Cash is not checked
// and may go negative.
type FixedQuantity float64

// Size buys q units at price.
func (q FixedQuantity) Size(_, price decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if q <= 0 || !price.IsPositive() {
		return decimal.Zero, decimal.Zero
	}
	qty := decimal.NewFromFloat(float64(q))
	return qty, qty.Mul(price)
}

// NewSizer builds a Sizer from its configured mode
func NewSizer(mode string, fraction, quantity float64) (Sizer, error) {
	switch mode {
	case "", SizingAllCash:
		return AllCash{}, nil
	case SizingFraction:
		if fraction <= 0 || fraction > 1 {
			return nil, fmt.Errorf("fraction must be in (0, 1], got %f", fraction)
		}
		return Fraction(fraction), nil
	case SizingFixed:
		if quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive, got %f", quantity)
		}
		return FixedQuantity(quantity), nil
	default:
		return nil, fmt.Errorf("unknown sizing mode: %s", mode)
	}
}
