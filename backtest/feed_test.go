package backtest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stocksim/market"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ticks.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func drain(t *testing.T, f TickFeed) []market.Tick {
	t.Helper()
	var out []market.Tick
	for {
		tick, ok, err := f.Next()
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, tick)
	}
}

func TestCSVTicksFeed(t *testing.T) {
	path := writeCSV(t, `time,instrument,price
2024-03-01T00:00:00Z,TICK,10.5
2024-03-01T01:00:00Z,TOCK,3.25
`)
	f, err := NewCSVTicksFeed(path, time.Time{}, time.Time{})
	require.NoError(t, err)
	defer f.Close()

	ticks := drain(t, f)
	require.Len(t, ticks, 2)
	assert.Equal(t, "TICK", ticks[0].Instrument)
	assert.Equal(t, 10.5, ticks[0].Price)
	assert.Equal(t, "TOCK", ticks[1].Instrument)

	// Exhausted feeds stay exhausted.
	_, ok, err := f.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCSVTicksFeedSkipsMalformedRows(t *testing.T) {
	path := writeCSV(t, `2024-03-01T00:00:00Z,TICK,10.5
2024-03-01T01:00:00Z,,3.25
2024-03-01T02:00:00Z,TICK,-1
2024-03-01T03:00:00Z,TICK
2024-03-01T04:00:00Z,TICK,11
`)
	f, err := NewCSVTicksFeed(path, time.Time{}, time.Time{})
	require.NoError(t, err)
	defer f.Close()

	ticks := drain(t, f)
	require.Len(t, ticks, 2)
	assert.Equal(t, 10.5, ticks[0].Price)
	assert.Equal(t, 11.0, ticks[1].Price)
}

func TestCSVTicksFeedTimeRange(t *testing.T) {
	path := writeCSV(t, `2024-03-01T00:00:00Z,TICK,1
2024-03-02T00:00:00Z,TICK,2
2024-03-03T00:00:00Z,TICK,3
`)
	from := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)

	f, err := NewCSVTicksFeed(path, from, to)
	require.NoError(t, err)
	defer f.Close()

	ticks := drain(t, f)
	require.Len(t, ticks, 1)
	assert.Equal(t, 2.0, ticks[0].Price)
}

func TestCSVTicksFeedBadPrice(t *testing.T) {
	path := writeCSV(t, `2024-03-01T00:00:00Z,TICK,abc
`)
	f, err := NewCSVTicksFeed(path, time.Time{}, time.Time{})
	require.NoError(t, err)
	defer f.Close()

	_, _, err = f.Next()
	assert.Error(t, err)
}

func TestSliceFeedIdempotentExhaustion(t *testing.T) {
	f := NewSliceFeed(market.Tick{Time: time.Now(), Instrument: "TICK", Price: 1})

	_, ok, err := f.Next()
	require.NoError(t, err)
	assert.True(t, ok)

	for i := 0; i < 3; i++ {
		_, ok, err = f.Next()
		require.NoError(t, err)
		assert.False(t, ok)
	}
}
