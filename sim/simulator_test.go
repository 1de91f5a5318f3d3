package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stocksim/portfolio"
)

func order(t *testing.T, price, qty float64) portfolio.Order {
	t.Helper()
	o, err := portfolio.NewOrder("TICK", price, qty)
	require.NoError(t, err)
	return o
}

func TestFee(t *testing.T) {
	s := New(Config{PerShareFee: 0.005, FixedFee: 1}, nil)

	assert.InDelta(t, 1.05, s.Fee(order(t, 10, 10)), 1e-9)
	// Fee is charged on magnitude, sells cost the same as buys.
	assert.InDelta(t, 1.05, s.Fee(order(t, 10, -10)), 1e-9)
}

func TestProcessOrderExactWhenTogglesOff(t *testing.T) {
	s := New(Config{SlippageStdDev: 0.5, FailureProb: 1.0, PerShareFee: 0.01}, rand.New(rand.NewSource(1)))

	r, ok := s.ProcessOrder(order(t, 20, 4))
	require.True(t, ok)
	assert.Equal(t, "TICK", r.Stock)
	assert.Equal(t, 20.0, r.Price)
	assert.Equal(t, 4.0, r.Quantity)
	assert.InDelta(t, 0.04, r.Fee, 1e-9)
}

func TestProcessOrderFailure(t *testing.T) {
	cfg := Config{FailureProb: 1.0, AllowFailure: true}
	s := New(cfg, rand.New(rand.NewSource(7)))

	_, ok := s.ProcessOrder(order(t, 20, 4))
	assert.False(t, ok)

	// Zero probability never drops, even with the toggle on.
	s = New(Config{FailureProb: 0, AllowFailure: true}, rand.New(rand.NewSource(7)))
	_, ok = s.ProcessOrder(order(t, 20, 4))
	assert.True(t, ok)
}

func TestProcessOrderSlippageIsDeterministicWhenSeeded(t *testing.T) {
	cfg := Config{SlippageStdDev: 0.02, AllowSlippage: true}

	a := New(cfg, rand.New(rand.NewSource(42)))
	b := New(cfg, rand.New(rand.NewSource(42)))

	ra, ok := a.ProcessOrder(order(t, 100, 1))
	require.True(t, ok)
	rb, ok := b.ProcessOrder(order(t, 100, 1))
	require.True(t, ok)

	assert.Equal(t, ra.Price, rb.Price)
	assert.NotEqual(t, 100.0, ra.Price)

	// Expected perturbation from the same seed and draw order.
	want := 100 * (1 + rand.New(rand.NewSource(42)).NormFloat64()*0.02)
	assert.InDelta(t, want, ra.Price, 1e-12)
}
