package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stocksim/algo"
	"github.com/rustyeddy/stocksim/journal"
	"github.com/rustyeddy/stocksim/market"
	"github.com/rustyeddy/stocksim/portfolio"
	"github.com/rustyeddy/stocksim/sim"
)

// seeded builds a controller around a portfolio holding the given
// shares of TICK, with the default fee schedule and no slippage or
// failure simulation.
func seeded(t *testing.T, balance, price, shares float64) *Controller {
	t.Helper()

	p, err := portfolio.New(balance)
	require.NoError(t, err)
	require.NoError(t, p.Update("TICK", price))
	require.NoError(t, p.SetShares("TICK", shares))

	a, err := algo.NewTrendFollower(algo.DefaultConfig())
	require.NoError(t, err)

	api := sim.New(sim.Config{PerShareFee: 0.005}, nil)
	return NewController(p, a, api, &journal.Memory{}, nil)
}

func ts() time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
}

func TestReceiptBuyWithinBudget(t *testing.T) {
	c := seeded(t, 33, 12.3, 3)

	ok, err := c.ProcessReceipt(ts(), sim.Receipt{Stock: "TICK", Price: 11, Quantity: 2, Fee: 10})
	require.NoError(t, err)
	assert.True(t, ok)

	assert.InDelta(t, 1.0, c.Portfolio().Cash(), 1e-7)
	shares, err := c.Portfolio().Shares("TICK")
	require.NoError(t, err)
	assert.InDelta(t, 5.0, shares, 1e-7)
}

func TestReceiptBuyOverdrawRejected(t *testing.T) {
	c := seeded(t, 13, 12.3, 3)

	// Cost 11*2 + 10 = 32 against 13 cash: rejected, never downsized.
	ok, err := c.ProcessReceipt(ts(), sim.Receipt{Stock: "TICK", Price: 11, Quantity: 2, Fee: 10})
	require.NoError(t, err)
	assert.False(t, ok)

	assert.InDelta(t, 13.0, c.Portfolio().Cash(), 1e-7)
	shares, err := c.Portfolio().Shares("TICK")
	require.NoError(t, err)
	assert.InDelta(t, 3.0, shares, 1e-7)
}

func TestReceiptSell(t *testing.T) {
	c := seeded(t, 13, 12.3, 3)

	ok, err := c.ProcessReceipt(ts(), sim.Receipt{Stock: "TICK", Price: 11, Quantity: -2, Fee: 10})
	require.NoError(t, err)
	assert.True(t, ok)

	// 13 + (22 - 10) = 25.
	assert.InDelta(t, 25.0, c.Portfolio().Cash(), 1e-7)
	shares, err := c.Portfolio().Shares("TICK")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, shares, 1e-7)
}

func TestReceiptOversizedSellClampsToLiquidation(t *testing.T) {
	c := seeded(t, 13, 12.3, 3)

	// Selling 5 with only 3 held: clamp to 3 and recompute the fee
	// for the clamped size.
	ok, err := c.ProcessReceipt(ts(), sim.Receipt{Stock: "TICK", Price: 11, Quantity: -5, Fee: 10})
	require.NoError(t, err)
	assert.True(t, ok)

	clampedFee := 0.005 * 3
	assert.InDelta(t, 13.0+3*11.0-clampedFee, c.Portfolio().Cash(), 1e-7)

	shares, err := c.Portfolio().Shares("TICK")
	require.NoError(t, err)
	assert.InDelta(t, 0.0, shares, 1e-7)

	price, err := c.Portfolio().Price("TICK")
	require.NoError(t, err)
	assert.InDelta(t, 11.0, price, 1e-7)
}

func TestReceiptSellNothingHeldRejected(t *testing.T) {
	c := seeded(t, 13, 12.3, 0)

	ok, err := c.ProcessReceipt(ts(), sim.Receipt{Stock: "TICK", Price: 11, Quantity: -5, Fee: 1})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.InDelta(t, 13.0, c.Portfolio().Cash(), 1e-7)
}

func TestReceiptUnknownInstrumentIsFatal(t *testing.T) {
	c := seeded(t, 13, 12.3, 3)

	_, err := c.ProcessReceipt(ts(), sim.Receipt{Stock: "GHOST", Price: 11, Quantity: -1, Fee: 0})
	assert.ErrorIs(t, err, portfolio.ErrNotFound)
}

func TestReceiptNonPositiveFillPriceRejected(t *testing.T) {
	c := seeded(t, 100, 12.3, 3)

	ok, err := c.ProcessReceipt(ts(), sim.Receipt{Stock: "TICK", Price: -0.5, Quantity: 1, Fee: 0})
	require.NoError(t, err)
	assert.False(t, ok)
}

// droppingAPI simulates a venue that drops every order.
type droppingAPI struct{}

func (droppingAPI) ProcessOrder(portfolio.Order) (sim.Receipt, bool) { return sim.Receipt{}, false }
func (droppingAPI) Fee(portfolio.Order) float64                      { return 0 }

func TestProcessOrderDropIsNotFatal(t *testing.T) {
	p, err := portfolio.New(100)
	require.NoError(t, err)
	a, err := algo.NewTrendFollower(algo.DefaultConfig())
	require.NoError(t, err)
	c := NewController(p, a, droppingAPI{}, nil, nil)

	o, err := portfolio.NewOrder("TICK", 10, 1)
	require.NoError(t, err)

	require.NoError(t, c.ProcessOrder(ts(), o))
	assert.Equal(t, 1, c.Result().Dropped)
	assert.Equal(t, 0, c.Result().Fills)
}

func TestBacktestEndToEnd(t *testing.T) {
	c := seeded(t, 10, 9, 3)

	feed := NewSliceFeed(
		market.Tick{Time: ts(), Instrument: "TICK", Price: 10},
		market.Tick{Time: ts().Add(time.Hour), Instrument: "TICK", Price: 11},
		market.Tick{Time: ts().Add(2 * time.Hour), Instrument: "TICK", Price: 12},
	)

	res, err := Run(context.Background(), feed, c, 8)
	require.NoError(t, err)

	// The 20-observation window never warms in three ticks, so no
	// trades happen: final value is starting cash plus the holding
	// marked to the last tick.
	assert.Equal(t, 3, res.Ticks)
	assert.Equal(t, 0, res.Fills)
	assert.InDelta(t, 10.0+3.0*12.0, res.TotalValue, 1e-7)

	price, err := c.Portfolio().Price("TICK")
	require.NoError(t, err)
	assert.InDelta(t, 12.0, price, 1e-7)
}

// failingAlgo blows up on evaluation, standing in for any unexpected
// loop-body failure.
type failingAlgo struct{ err error }

func (failingAlgo) AddStock(string, float64) {}
func (failingAlgo) Update(string, float64)   {}
func (a failingAlgo) GenerateOrders(time.Time, *portfolio.Portfolio) ([]portfolio.Order, error) {
	return nil, a.err
}

func TestBacktestUnexpectedErrorStopsLoop(t *testing.T) {
	p, err := portfolio.New(10)
	require.NoError(t, err)
	boom := errors.New("boom")
	j := &journal.Memory{}
	c := NewController(p, failingAlgo{err: boom}, sim.New(sim.Config{}, nil), j, nil)

	feed := NewSliceFeed(
		market.Tick{Time: ts(), Instrument: "TICK", Price: 10},
		market.Tick{Time: ts().Add(time.Hour), Instrument: "TICK", Price: 11},
	)

	res, err := Run(context.Background(), feed, c, 0)
	assert.ErrorIs(t, err, boom)

	// The loop stopped on the first tick, and the final valuation was
	// still reported.
	assert.Equal(t, 1, res.Ticks)
	require.NotEmpty(t, j.Equity)
	assert.InDelta(t, 10.0, j.Equity[len(j.Equity)-1].TotalValue, 1e-7)
}

func TestBacktestContextCancel(t *testing.T) {
	p, err := portfolio.New(10)
	require.NoError(t, err)
	a, err := algo.NewTrendFollower(algo.DefaultConfig())
	require.NoError(t, err)
	c := NewController(p, a, sim.New(sim.Config{}, nil), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ticks := make(chan market.Tick)
	err = c.Backtest(ctx, ticks)
	assert.ErrorIs(t, err, context.Canceled)
}

// erroringFeed fails after its ticks run out.
type erroringFeed struct {
	ticks []market.Tick
	err   error
}

func (f *erroringFeed) Next() (market.Tick, bool, error) {
	if len(f.ticks) == 0 {
		return market.Tick{}, false, f.err
	}
	t := f.ticks[0]
	f.ticks = f.ticks[1:]
	return t, true, nil
}

func TestRunSurfacesFeedError(t *testing.T) {
	c := seeded(t, 10, 9, 0)
	feedFail := errors.New("disk gone")

	_, err := Run(context.Background(), &erroringFeed{
		ticks: []market.Tick{{Time: ts(), Instrument: "TICK", Price: 10}},
		err:   feedFail,
	}, c, 0)
	assert.ErrorIs(t, err, feedFail)
}
