// Package config loads and validates simulation configuration from
// YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/stocksim/algo"
	"github.com/rustyeddy/stocksim/sim"
)

// Config represents the complete simulation configuration.
type Config struct {
	Account   AccountConfig `json:"account" yaml:"account"`
	Algorithm algo.Config   `json:"algorithm" yaml:"algorithm"`
	Simulator sim.Config    `json:"simulator" yaml:"simulator"`
	Journal   JournalConfig `json:"journal" yaml:"journal"`
	Feed      FeedConfig    `json:"feed" yaml:"feed"`
}

// AccountConfig contains account initialization parameters.
type AccountConfig struct {
	Balance float64 `json:"balance" yaml:"balance"`
}

// FeedConfig optionally restricts the replayed time range. Dates are
// RFC3339 timestamps or plain YYYY-MM-DD days; empty means unbounded.
type FeedConfig struct {
	From string `json:"from,omitempty" yaml:"from,omitempty"`
	To   string `json:"to,omitempty" yaml:"to,omitempty"`
}

// JournalConfig selects where run records go.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	FillsFile  string `json:"fills_file,omitempty" yaml:"fills_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// Default returns a runnable configuration: $10,000 cash, the stock
// trend-follower tuning, exact fills, and no journaling.
func Default() *Config {
	return &Config{
		Account:   AccountConfig{Balance: 10_000},
		Algorithm: algo.DefaultConfig(),
		Simulator: sim.DefaultConfig(),
		Journal:   JournalConfig{Type: "none"},
	}
}

// LoadFromFile loads configuration from a file, trying YAML first and
// falling back to JSON. Unset algorithm fields are filled from the
// defaults before validation.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Account.Balance < 0 {
		return fmt.Errorf("config: account balance must not be negative, got %v", c.Account.Balance)
	}

	if err := c.Algorithm.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	s := c.Simulator
	if s.FailureProb < 0 || s.FailureProb > 1 {
		return fmt.Errorf("config: failure probability must be in [0,1], got %v", s.FailureProb)
	}
	if s.SlippageStdDev < 0 {
		return fmt.Errorf("config: slippage std dev must not be negative, got %v", s.SlippageStdDev)
	}
	if s.PerShareFee < 0 || s.FixedFee < 0 {
		return fmt.Errorf("config: fees must not be negative")
	}

	switch c.Journal.Type {
	case "", "none", "csv", "sqlite":
	default:
		return fmt.Errorf("config: unknown journal type %q (want none, csv or sqlite)", c.Journal.Type)
	}

	if _, err := parseDate(c.Feed.From); err != nil {
		return fmt.Errorf("config: feed.from: %w", err)
	}
	if _, err := parseDate(c.Feed.To); err != nil {
		return fmt.Errorf("config: feed.to: %w", err)
	}

	return nil
}

// From returns the lower replay bound, zero when unset.
func (c *Config) From() time.Time {
	t, _ := parseDate(c.Feed.From)
	return t
}

// To returns the upper replay bound, zero when unset.
func (c *Config) To() time.Time {
	t, _ := parseDate(c.Feed.To)
	return t
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q (want RFC3339 or YYYY-MM-DD)", s)
	}
	return t, nil
}
