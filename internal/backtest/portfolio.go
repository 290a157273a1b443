package backtest

import (
	"time"

	"github.com/newthinker/quantbench/internal/core"
	"github.com/shopspring/decimal"
)

// Portfolio is the simulated account owned by a single run
type Portfolio struct {
	cash     decimal.Decimal
	quantity decimal.Decimal
	position core.Position
	sizer    Sizer
	trades   []TradeEvent
}

// NewPortfolio creates a flat portfolio holding initialCash
func NewPortfolio(initialCash float64, sizer Sizer) *Portfolio {
	if sizer == nil {
		sizer = AllCash{}
	}
	return &Portfolio{
		cash:     decimal.NewFromFloat(initialCash),
		quantity: decimal.Zero,
		position: core.PositionFlat,
		sizer:    sizer,
	}
}

// Buy opens a long position at price. It is a no-op when already long or when
// the sizer yields nothing to buy.
func (p *Portfolio) Buy(at time.Time, price float64) bool {
	if p.position == core.PositionLong {
		return false
	}

	px := decimal.NewFromFloat(price)
	qty, notional := p.sizer.Size(p.cash, px)
	if !qty.IsPositive() {
		return false
	}

	p.cash = p.cash.Sub(notional)
	p.quantity = qty
	p.position = core.PositionLong
	p.trades = append(p.trades, TradeEvent{
		Time:     at,
		Action:   core.ActionBuy,
		Price:    price,
		Quantity: qty.InexactFloat64(),
	})
	return true
}

// Sell liquidates the whole holding at price. It is a no-op when flat.
func (p *Portfolio) Sell(at time.Time, price float64) bool {
	if p.position != core.PositionLong {
		return false
	}

	qty := p.quantity
	p.cash = p.cash.Add(qty.Mul(decimal.NewFromFloat(price)))
	p.quantity = decimal.Zero
	p.position = core.PositionFlat
	p.trades = append(p.trades, TradeEvent{
		Time:     at,
		Action:   core.ActionSell,
		Price:    price,
		Quantity: qty.InexactFloat64(),
	})
	return true
}

// MarkToMarket values cash plus the holding at price
func (p *Portfolio) MarkToMarket(price float64) float64 {
	return p.cash.Add(p.quantity.Mul(decimal.NewFromFloat(price))).InexactFloat64()
}

// Cash returns the cash balance
func (p *Portfolio) Cash() float64 {
	return p.cash.InexactFloat64()
}

// Quantity returns the units currently held
func (p *Portfolio) Quantity() float64 {
	return p.quantity.InexactFloat64()
}

// Position returns flat or long
func (p *Portfolio) Position() core.Position {
	return p.position
}

// IsLong returns true while a position is open
func (p *Portfolio) IsLong() bool {
	return p.position == core.PositionLong
}

// Trades returns a copy of the trade log
func (p *Portfolio) Trades() []TradeEvent {
	out := make([]TradeEvent, len(p.trades))
	copy(out, p.trades)
	return out
}
