// Package algo holds trading decision engines. An Algorithm consumes
// price updates and portfolio state and emits orders; the backtest
// controller feeds it one tick at a time.
package algo

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/stocksim/portfolio"
)

// Algorithm is the contract a decision engine must implement.
type Algorithm interface {
	// AddStock registers an instrument with an initial reference price.
	AddStock(stock string, price float64)
	// Update feeds one price observation into the engine's history.
	Update(stock string, price float64)
	// GenerateOrders evaluates the portfolio at the given time and
	// returns the trades to attempt, possibly none.
	GenerateOrders(ts time.Time, p *portfolio.Portfolio) ([]portfolio.Order, error)
}

// ByName builds a fresh algorithm instance for the given name.
func ByName(name string, cfg Config) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trend", "trend-follow":
		return NewTrendFollower(cfg)
	case "noop", "none":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown algorithm %q (supported: trend, noop)", name)
	}
}

// Noop never trades. Useful as a baseline run.
type Noop struct{}

func (Noop) AddStock(string, float64) {}
func (Noop) Update(string, float64)   {}
func (Noop) GenerateOrders(time.Time, *portfolio.Portfolio) ([]portfolio.Order, error) {
	return nil, nil
}
