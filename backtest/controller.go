package backtest

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/stocksim/algo"
	"github.com/rustyeddy/stocksim/journal"
	"github.com/rustyeddy/stocksim/market"
	"github.com/rustyeddy/stocksim/pkg/id"
	"github.com/rustyeddy/stocksim/portfolio"
	"github.com/rustyeddy/stocksim/sim"
)

// OrderAPI is the execution venue the controller routes orders through.
type OrderAPI interface {
	ProcessOrder(portfolio.Order) (sim.Receipt, bool)
	Fee(portfolio.Order) float64
}

// Controller drives the simulation: it pulls ticks off a channel,
// pushes prices into the portfolio and the decision engine, routes the
// engine's orders through the execution venue, and applies successful
// fills to the ledger. It is the sole owner of the portfolio and the
// engine; no locking is needed.
type Controller struct {
	portfolio *portfolio.Portfolio
	algo      algo.Algorithm
	api       OrderAPI
	journal   journal.Journal
	log       *zap.Logger

	ticks     int
	fills     int
	rejected  int
	dropped   int
	lastTime  time.Time
	firstTime time.Time
}

// NewController wires the simulation loop. Journal and logger may be
// nil; they default to no-ops.
func NewController(p *portfolio.Portfolio, a algo.Algorithm, api OrderAPI, j journal.Journal, log *zap.Logger) *Controller {
	if j == nil {
		j = journal.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		portfolio: p,
		algo:      a,
		api:       api,
		journal:   j,
		log:       log,
	}
}

// Portfolio exposes the ledger, e.g. for seeding holdings before a run.
func (c *Controller) Portfolio() *portfolio.Portfolio { return c.portfolio }

// Backtest consumes the tick channel until it is closed (end of
// stream) or the context is cancelled. Any unexpected error inside the
// loop body logs, stops the simulation, and is returned; the final
// valuation is reported either way.
func (c *Controller) Backtest(ctx context.Context, ticks <-chan market.Tick) error {
	var loopErr error

loop:
	for {
		select {
		case <-ctx.Done():
			loopErr = ctx.Err()
			break loop
		case t, ok := <-ticks:
			if !ok {
				break loop
			}
			if err := c.handleTick(t); err != nil {
				c.log.Error("simulation halted", zap.Error(err))
				loopErr = err
				break loop
			}
		}
	}

	c.log.Info(c.portfolio.ValueSummary(time.Time{}))
	if err := c.journal.RecordEquity(c.snapshot(c.lastTime)); err != nil && loopErr == nil {
		loopErr = err
	}
	return loopErr
}

func (c *Controller) handleTick(t market.Tick) error {
	c.ticks++
	c.lastTime = t.Time
	if c.firstTime.IsZero() {
		c.firstTime = t.Time
	}

	if err := c.processPricing(t.Instrument, t.Price); err != nil {
		return err
	}

	orders, err := c.algo.GenerateOrders(t.Time, c.portfolio)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return nil
	}

	for _, o := range orders {
		if err := c.ProcessOrder(t.Time, o); err != nil {
			return err
		}
	}

	c.log.Info(c.portfolio.ValueSummary(t.Time))
	return c.journal.RecordEquity(c.snapshot(t.Time))
}

func (c *Controller) processPricing(instrument string, price float64) error {
	if err := c.portfolio.Update(instrument, price); err != nil {
		return err
	}
	c.algo.Update(instrument, price)
	return nil
}

// ProcessOrder sends the order to the execution venue. A dropped order
// is logged and forgotten; there are no retries. A returned receipt is
// validated and applied via ProcessReceipt.
func (c *Controller) ProcessOrder(ts time.Time, o portfolio.Order) error {
	receipt, ok := c.api.ProcessOrder(o)
	if !ok {
		c.dropped++
		c.log.Warn("order dropped by execution",
			zap.String("side", o.Side()),
			zap.String("instrument", o.Stock),
			zap.Float64("price", o.Price),
			zap.Float64("quantity", o.Quantity))
		return nil
	}

	applied, err := c.ProcessReceipt(ts, receipt)
	if err != nil {
		return err
	}
	if !applied {
		c.rejected++
		c.log.Info("trade rejected",
			zap.String("side", o.Side()),
			zap.String("instrument", o.Stock),
			zap.Float64("price", receipt.Price),
			zap.Float64("quantity", receipt.Quantity))
	}
	return nil
}

// ProcessReceipt is the trade-validation gate. A buy that would
// overdraw cash is rejected outright; a sell larger than the holding is
// clamped to a full liquidation with its fee recomputed, then rejected
// only if even the clamped proceeds cannot cover the fee. The applied
// transaction moves cash by exactly -(price*shares + fee).
func (c *Controller) ProcessReceipt(ts time.Time, r sim.Receipt) (bool, error) {
	if c.portfolio.Cash()-(r.Price*r.Quantity+r.Fee) <= 0 {
		return false, nil
	}

	qty, fee := r.Quantity, r.Fee
	if qty < 0 {
		held, err := c.portfolio.Shares(r.Stock)
		if err != nil {
			// Selling an instrument the ledger never priced is a
			// wiring bug, not a rejection.
			return false, err
		}
		if -qty > held {
			qty = -held
			if math.Abs(qty) < portfolio.MinQuantity {
				return false, nil
			}
			clamped, err := portfolio.NewOrder(r.Stock, r.Price, qty)
			if err != nil {
				return false, nil
			}
			fee = c.api.Fee(clamped)
			if fee > math.Abs(qty*r.Price) {
				return false, nil
			}
		}
	}

	order, err := portfolio.NewOrder(r.Stock, r.Price, qty)
	if err != nil {
		// A slipped fill can land on a non-positive price; treat the
		// malformed receipt as a rejection.
		return false, nil
	}
	txn, err := portfolio.NewTransaction(order, fee)
	if err != nil {
		return false, nil
	}

	if err := c.portfolio.UpdateTrade(txn); err != nil {
		return false, err
	}

	c.fills++
	fill := journal.FillRecord{
		FillID:     id.New(),
		Time:       ts,
		Instrument: txn.Stock,
		Side:       txn.Side(),
		Price:      txn.Price,
		Shares:     txn.Quantity,
		Fee:        txn.Fee,
	}
	if err := c.journal.RecordFill(fill); err != nil {
		return true, err
	}

	c.log.Debug("trade applied",
		zap.String("side", txn.Side()),
		zap.String("instrument", txn.Stock),
		zap.Float64("price", txn.Price),
		zap.Float64("shares", math.Abs(txn.Quantity)),
		zap.Float64("fee", txn.Fee))
	return true, nil
}

func (c *Controller) snapshot(ts time.Time) journal.EquitySnapshot {
	return journal.EquitySnapshot{
		Time:       ts,
		StockValue: c.portfolio.StockValue(),
		Cash:       c.portfolio.Cash(),
		TotalValue: c.portfolio.TotalValue(),
	}
}
