// Package sim simulates order execution: fills carry randomized
// slippage, may stochastically fail, and are charged a per-share plus
// fixed fee. The simulator holds no portfolio state; it is a pure
// order-in, receipt-out component.
package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/rustyeddy/stocksim/portfolio"
)

// Receipt describes a simulated fill.
type Receipt struct {
	Stock    string
	Price    float64
	Quantity float64
	Fee      float64
}

// Config controls execution behavior. Both simulation toggles default
// to off, which makes fills exact and infallible.
type Config struct {
	SlippageStdDev float64 `json:"slippage_std_dev" yaml:"slippage_std_dev"`
	FailureProb    float64 `json:"failure_prob" yaml:"failure_prob"`
	PerShareFee    float64 `json:"per_share_fee" yaml:"per_share_fee"`
	FixedFee       float64 `json:"fixed_fee" yaml:"fixed_fee"`
	AllowSlippage  bool    `json:"allow_slippage" yaml:"allow_slippage"`
	AllowFailure   bool    `json:"allow_failure" yaml:"allow_failure"`
}

// DefaultConfig mirrors a discount retail broker: half a cent per
// share, no fixed fee, 1% slippage deviation and a 0.01% failure chance
// when the respective toggles are enabled.
func DefaultConfig() Config {
	return Config{
		SlippageStdDev: 0.01,
		FailureProb:    0.0001,
		PerShareFee:    0.005,
		FixedFee:       0,
	}
}

// Simulator fills orders. The randomness source is injected so tests
// can seed it deterministically.
type Simulator struct {
	cfg Config
	rng *rand.Rand
}

// New creates a simulator. A nil rng gets a time-seeded source.
func New(cfg Config, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{cfg: cfg, rng: rng}
}

// ProcessOrder attempts to fill the order. The second return value is
// false when the simulated venue dropped the order.
func (s *Simulator) ProcessOrder(o portfolio.Order) (Receipt, bool) {
	slippage := 0.0
	if s.cfg.AllowSlippage {
		slippage = s.rng.NormFloat64() * s.cfg.SlippageStdDev
	}

	if s.cfg.AllowFailure && s.rng.Float64() < s.cfg.FailureProb {
		return Receipt{}, false
	}

	return Receipt{
		Stock:    o.Stock,
		Price:    o.Price * (1 + slippage),
		Quantity: o.Quantity,
		Fee:      s.Fee(o),
	}, true
}

// Fee returns the charge for filling the order: per-share rate times
// magnitude, plus the fixed component.
func (s *Simulator) Fee(o portfolio.Order) float64 {
	return s.cfg.PerShareFee*math.Abs(o.Quantity) + s.cfg.FixedFee
}
