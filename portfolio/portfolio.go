package portfolio

import (
	"fmt"
	"time"
)

// Portfolio tracks cash plus one Position per instrument. Cash is a
// dedicated field, not a sentinel entry in the position map, so no
// instrument name can ever collide with it. Positions keep insertion
// order for stable iteration.
//
// The portfolio trusts its input: UpdateTrade assumes the caller has
// already validated cash sufficiency and clamped over-sized sells.
type Portfolio struct {
	positions map[string]*Position
	order     []string
	cash      float64
}

// New creates a portfolio with a starting cash balance.
func New(balance float64) (*Portfolio, error) {
	if balance < 0 {
		return nil, fmt.Errorf("%w: balance must not be negative, got %v", ErrInvalidPortfolio, balance)
	}
	return &Portfolio{
		positions: make(map[string]*Position),
		cash:      balance,
	}, nil
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() float64 { return p.cash }

// AdjustCash moves the cash balance by delta.
func (p *Portfolio) AdjustCash(delta float64) { p.cash += delta }

// Update marks an instrument to an observed price, creating a zero-share
// position on first sight, and bumps that instrument's update counter.
func (p *Portfolio) Update(instrument string, price float64) error {
	if pos, ok := p.positions[instrument]; ok {
		if err := pos.SetPrice(price); err != nil {
			return err
		}
		pos.updates++
		return nil
	}

	pos, err := NewPosition(instrument, price, 0)
	if err != nil {
		return err
	}
	pos.updates = 1
	p.positions[instrument] = pos
	p.order = append(p.order, instrument)
	return nil
}

// Has reports whether the instrument is known to the portfolio.
func (p *Portfolio) Has(instrument string) bool {
	_, ok := p.positions[instrument]
	return ok
}

// Instruments returns instrument ids in the order they were first seen.
func (p *Portfolio) Instruments() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

func (p *Portfolio) position(instrument string) (*Position, error) {
	pos, ok := p.positions[instrument]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, instrument)
	}
	return pos, nil
}

// Price returns the last observed price for the instrument.
func (p *Portfolio) Price(instrument string) (float64, error) {
	pos, err := p.position(instrument)
	if err != nil {
		return 0, err
	}
	return pos.price, nil
}

// Shares returns the held share count for the instrument.
func (p *Portfolio) Shares(instrument string) (float64, error) {
	pos, err := p.position(instrument)
	if err != nil {
		return 0, err
	}
	return pos.shares, nil
}

// SetShares overwrites the held share count, mainly to seed holdings
// before a run. Trades go through UpdateTrade.
func (p *Portfolio) SetShares(instrument string, shares float64) error {
	pos, err := p.position(instrument)
	if err != nil {
		return err
	}
	pos.shares = shares
	return nil
}

// UpdateCount returns how many price updates the instrument has seen.
func (p *Portfolio) UpdateCount(instrument string) (int, error) {
	pos, err := p.position(instrument)
	if err != nil {
		return 0, err
	}
	return pos.updates, nil
}

// UpdateTrade applies a filled transaction: the position absorbs the
// share and cost-basis effect, and cash moves by -(price*shares + fee).
func (p *Portfolio) UpdateTrade(txn Transaction) error {
	pos, err := p.position(txn.Stock)
	if err != nil {
		return err
	}
	if err := pos.AddTransaction(txn); err != nil {
		return err
	}
	p.cash -= txn.Price*txn.Quantity + txn.Fee
	return nil
}

// StockValue is the marked value of all holdings, excluding cash.
func (p *Portfolio) StockValue() float64 {
	total := 0.0
	for _, pos := range p.positions {
		total += pos.shares * pos.price
	}
	return total
}

// TotalValue is cash plus the marked value of every position.
func (p *Portfolio) TotalValue() float64 {
	return p.cash + p.StockValue()
}

// ValueSummary renders a one-line valuation for logging.
func (p *Portfolio) ValueSummary(ts time.Time) string {
	when := "end"
	if !ts.IsZero() {
		when = ts.Format("2006-01-02")
	}
	return fmt.Sprintf("%s : Stock value: $%.2f, Cash: $%.2f, Total $%.2f",
		when, p.StockValue(), p.cash, p.TotalValue())
}
