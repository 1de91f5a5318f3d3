package market

import (
	"fmt"
	"strings"
	"time"
)

// Tick is one price observation from a historical or streaming supplier.
type Tick struct {
	Time       time.Time
	Instrument string
	Price      float64
}

// Validate reports whether the tick is well formed enough to feed the
// simulation. Feeds are expected to skip ticks that fail validation.
func (t Tick) Validate() error {
	if strings.TrimSpace(t.Instrument) == "" {
		return fmt.Errorf("tick: missing instrument")
	}
	if t.Price <= 0 {
		return fmt.Errorf("tick %s: price must be positive, got %v", t.Instrument, t.Price)
	}
	return nil
}
