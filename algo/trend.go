package algo

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/stocksim/internal/window"
	"github.com/rustyeddy/stocksim/portfolio"
)

// Config holds the trend follower's tuning knobs.
type Config struct {
	// Window is the lookback length of the per-instrument price
	// history and the portfolio-value trend buffer.
	Window int `json:"window" yaml:"window"`
	// CooldownDays is the minimum calendar-day gap between trading
	// evaluations. Must be shorter than Window.
	CooldownDays int `json:"cooldown_days" yaml:"cooldown_days"`
	// DeviationThreshold is the relative gap between an instrument's
	// windowed mean and its current price that triggers an order.
	DeviationThreshold float64 `json:"deviation_threshold" yaml:"deviation_threshold"`
	// TrendOverride forces an evaluation when the trend-buffer mean
	// deviates from current portfolio value by more than this.
	TrendOverride float64 `json:"trend_override" yaml:"trend_override"`
	// IdleCashRatio forces an evaluation when cash exceeds this share
	// of portfolio value.
	IdleCashRatio float64 `json:"idle_cash_ratio" yaml:"idle_cash_ratio"`
	// MinQuantity discards orders smaller than this as dust.
	MinQuantity float64 `json:"min_quantity" yaml:"min_quantity"`
}

// DefaultConfig returns the stock tuning: 20-observation windows, a
// 5-day cooldown, 3% deviation rule, 5% trend and 3% idle-cash
// overrides, and a 0.01-share dust threshold.
func DefaultConfig() Config {
	return Config{
		Window:             20,
		CooldownDays:       5,
		DeviationThreshold: 0.03,
		TrendOverride:      0.05,
		IdleCashRatio:      0.03,
		MinQuantity:        0.01,
	}
}

// Validate checks the config for internal consistency.
func (c Config) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("algo: window must be positive, got %d", c.Window)
	}
	if c.CooldownDays < 0 || c.CooldownDays >= c.Window {
		return fmt.Errorf("algo: cooldown (%d days) must be non-negative and shorter than the window (%d)",
			c.CooldownDays, c.Window)
	}
	if c.MinQuantity <= 0 {
		return fmt.Errorf("algo: min quantity must be positive, got %v", c.MinQuantity)
	}
	return nil
}

// TrendFollower is a mean-reversion heuristic over sliding price
// windows: instruments trading below their recent mean are bought with
// an even split of available cash, instruments above it are liquidated.
// Not safe for concurrent use; the controller owns it exclusively.
type TrendFollower struct {
	cfg Config

	prices map[string]*window.Window
	stocks []string // registration order

	trend    *window.Window
	updates  int
	lastDate time.Time
	traded   bool
}

// NewTrendFollower builds the engine after validating cfg.
func NewTrendFollower(cfg Config) (*TrendFollower, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TrendFollower{
		cfg:    cfg,
		prices: make(map[string]*window.Window),
		trend:  window.New(cfg.Window),
	}, nil
}

// AddStock registers an instrument with an initial reference price,
// seeding the first slot of its price history.
func (tf *TrendFollower) AddStock(stock string, price float64) {
	if _, ok := tf.prices[stock]; ok {
		return
	}
	w := window.New(tf.cfg.Window)
	w.Push(price)
	tf.prices[stock] = w
	tf.stocks = append(tf.stocks, stock)
}

// Update appends a price observation to the instrument's sliding
// window, registering the instrument on first sight.
func (tf *TrendFollower) Update(stock string, price float64) {
	if w, ok := tf.prices[stock]; ok {
		w.Push(price)
		return
	}
	tf.AddStock(stock, price)
}

// shouldTrade is the trading gate. A trade inside the cooldown window
// is always vetoed; otherwise the first fully populated trend buffer,
// a large trend deviation, or idle cash opens the gate.
func (tf *TrendFollower) shouldTrade(ts time.Time, value, cash float64) bool {
	tf.updates++

	if tf.traded {
		days := int(ts.Sub(tf.lastDate).Hours() / 24)
		if days <= tf.cfg.CooldownDays {
			return false
		}
	}

	trade := tf.updates == tf.cfg.Window+1

	override := false
	if value > 0 && (tf.trend.Mean()-value)/value > tf.cfg.TrendOverride {
		override = true
	}
	if cash > value*tf.cfg.IdleCashRatio {
		override = true
	}

	return trade || override
}

// GenerateOrders pushes the current portfolio value into the trend
// buffer, evaluates the trading gate, and sizes one order per
// sufficiently deviating instrument. Buys split available cash evenly
// across warmed-up instruments; sells liquidate the whole holding.
func (tf *TrendFollower) GenerateOrders(ts time.Time, p *portfolio.Portfolio) ([]portfolio.Order, error) {
	cash := p.Cash()
	value := p.TotalValue()
	tf.trend.Push(value)

	if !tf.shouldTrade(ts, value, cash) {
		return nil, nil
	}

	var valid []string
	for _, stock := range tf.stocks {
		n, err := p.UpdateCount(stock)
		if err != nil {
			return nil, fmt.Errorf("trend: %q not priced in portfolio: %w", stock, err)
		}
		if n > tf.cfg.Window {
			valid = append(valid, stock)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}

	allocation := cash / float64(len(valid))

	var orders []portfolio.Order
	for _, stock := range valid {
		w := tf.prices[stock]
		price := w.Last()
		deviation := (w.Mean() - price) / price
		if math.Abs(deviation) <= tf.cfg.DeviationThreshold {
			continue
		}

		var qty float64
		if deviation > 0 {
			// Trading below its recent mean: deploy this
			// instrument's slice of cash.
			qty = math.Round(allocation / price)
		} else {
			held, err := p.Shares(stock)
			if err != nil {
				return nil, err
			}
			qty = -held
		}

		if math.Abs(qty) < tf.cfg.MinQuantity {
			continue
		}

		o, err := portfolio.NewOrder(stock, price, qty)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	// The evaluation counts as a trade for cooldown purposes even if
	// every candidate was filtered out.
	tf.lastDate = ts
	tf.traded = true

	return orders, nil
}
