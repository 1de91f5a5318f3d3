// Package journal records what a simulation run did: every applied
// fill and periodic equity snapshots. Implementations exist for SQLite,
// CSV, and in-memory capture.
package journal

import "time"

// FillRecord is one applied trade.
type FillRecord struct {
	FillID     string
	Time       time.Time
	Instrument string
	Side       string
	Price      float64
	Shares     float64
	Fee        float64
}

// EquitySnapshot is a point-in-time portfolio valuation.
type EquitySnapshot struct {
	Time       time.Time
	StockValue float64
	Cash       float64
	TotalValue float64
}

type Journal interface {
	RecordFill(FillRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordFill(FillRecord) error       { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) Close() error                      { return nil }

// Memory keeps records in slices, mainly for tests and quick summaries.
type Memory struct {
	Fills  []FillRecord
	Equity []EquitySnapshot
	Closed bool
}

func (m *Memory) RecordFill(f FillRecord) error {
	m.Fills = append(m.Fills, f)
	return nil
}

func (m *Memory) RecordEquity(e EquitySnapshot) error {
	m.Equity = append(m.Equity, e)
	return nil
}

func (m *Memory) Close() error {
	m.Closed = true
	return nil
}
