package backtest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/stocksim/market"
)

// Result is a lightweight summary of a simulation run.
type Result struct {
	Start time.Time
	End   time.Time

	Ticks    int
	Fills    int
	Rejected int
	Dropped  int

	StockValue float64
	Cash       float64
	TotalValue float64
}

// Result snapshots the run counters and final valuation.
func (c *Controller) Result() Result {
	return Result{
		Start:      c.firstTime,
		End:        c.lastTime,
		Ticks:      c.ticks,
		Fills:      c.fills,
		Rejected:   c.rejected,
		Dropped:    c.dropped,
		StockValue: c.portfolio.StockValue(),
		Cash:       c.portfolio.Cash(),
		TotalValue: c.portfolio.TotalValue(),
	}
}

// Run pumps the feed into a bounded channel from a producer goroutine
// and drives the controller as the single consumer. The producer closes
// the channel when the feed is exhausted; that close is the end-of-
// stream signal.
func Run(ctx context.Context, feed TickFeed, c *Controller, buffer int) (Result, error) {
	if buffer < 0 {
		buffer = 0
	}

	// The producer must not outlive the consumer: if the loop stops
	// early, cancelling releases a producer blocked on send.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ticks := make(chan market.Tick, buffer)
	feedErr := make(chan error, 1)

	go func() {
		defer close(ticks)
		for {
			t, ok, err := feed.Next()
			if err != nil {
				feedErr <- err
				return
			}
			if !ok {
				return
			}
			select {
			case ticks <- t:
			case <-ctx.Done():
				return
			}
		}
	}()

	err := c.Backtest(ctx, ticks)
	select {
	case perr := <-feedErr:
		if err == nil {
			err = fmt.Errorf("tick feed: %w", perr)
		}
	default:
	}

	return c.Result(), err
}

// PrintResult renders a run summary.
func PrintResult(w io.Writer, r Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Simulation Result")
	fmt.Fprintln(w, "==================================================")

	if !r.Start.IsZero() {
		fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Ticks:         %d\n", r.Ticks)
	fmt.Fprintf(w, "Fills:         %d\n", r.Fills)
	fmt.Fprintf(w, "Rejected:      %d\n", r.Rejected)
	fmt.Fprintf(w, "Dropped:       %d\n", r.Dropped)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Stock Value:   $%.2f\n", r.StockValue)
	fmt.Fprintf(w, "Cash:          $%.2f\n", r.Cash)
	fmt.Fprintf(w, "Total Value:   $%.2f\n", r.TotalValue)
}
