package backtest

import (
	"testing"

	"github.com/newthinker/quantbench/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortfolio_BuySell(t *testing.T) {
	p := NewPortfolio(10000, nil)
	assert.Equal(t, core.PositionFlat, p.Position())

	require.True(t, p.Buy(baseTime, 100))
	assert.True(t, p.IsLong())
	assert.Equal(t, 100.0, p.Quantity())
	assert.Equal(t, 0.0, p.Cash())
	assert.Equal(t, 12000.0, p.MarkToMarket(120))

	require.True(t, p.Sell(baseTime.AddDate(0, 0, 1), 120))
	assert.Equal(t, core.PositionFlat, p.Position())
	assert.Equal(t, 0.0, p.Quantity())
	assert.Equal(t, 12000.0, p.Cash())

	trades := p.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, core.ActionBuy, trades[0].Action)
	assert.Equal(t, core.ActionSell, trades[1].Action)
	assert.Equal(t, 100.0, trades[1].Quantity)
}

func TestPortfolio_Guards(t *testing.T) {
	p := NewPortfolio(10000, nil)

	assert.False(t, p.Sell(baseTime, 100), "sell while flat is a no-op")
	assert.True(t, p.Buy(baseTime, 100))
	assert.False(t, p.Buy(baseTime, 90), "buy while long is a no-op")
	assert.Len(t, p.Trades(), 1)
	assert.Equal(t, 100.0, p.Quantity())
}

func TestPortfolio_AllCashNonTerminatingDivision(t *testing.T) {
	p := NewPortfolio(10000, AllCash{})
	require.True(t, p.Buy(baseTime, 3))

	assert.Equal(t, 0.0, p.Cash(), "all cash is deployed exactly")
	assert.InDelta(t, 10000, p.MarkToMarket(3), 1e-9)
}

func TestPortfolio_FixedQuantityCanOverdraw(t *testing.T) {
	p := NewPortfolio(1000, FixedQuantity(20))
	require.True(t, p.Buy(baseTime, 100))

	assert.Equal(t, -1000.0, p.Cash())
	assert.Equal(t, 1000.0, p.MarkToMarket(100))
}

func TestPortfolio_NothingToBuy(t *testing.T) {
	p := NewPortfolio(1000, FixedQuantity(5))
	require.True(t, p.Buy(baseTime, 300))
	require.True(t, p.Sell(baseTime, 100))
	// cash is now 1000 - 1500 + 500 = 0
	assert.Equal(t, 0.0, p.Cash())

	all := NewPortfolio(1000, AllCash{})
	all.cash = all.cash.Sub(all.cash)
	assert.False(t, all.Buy(baseTime, 10), "no cash means no order")
	assert.Empty(t, all.Trades())
}

func TestPortfolio_TradesIsCopy(t *testing.T) {
	p := NewPortfolio(1000, nil)
	p.Buy(baseTime, 10)

	trades := p.Trades()
	trades[0].Price = 999
	assert.Equal(t, 10.0, p.Trades()[0].Price)
}
