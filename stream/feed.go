// Package stream feeds live ticks from a websocket supplier into the
// same TickFeed contract the backtester consumes, so a simulation can
// run against a live stream or record one to CSV for later replay.
package stream

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rustyeddy/stocksim/market"
)

// frame is the wire format: one JSON object per tick.
type frame struct {
	Time       string  `json:"time"`
	Instrument string  `json:"instrument"`
	Price      float64 `json:"price"`
}

// Feed reads ticks from a websocket connection. A normal close from
// the supplier ends the stream; Next then keeps reporting exhaustion.
type Feed struct {
	conn *websocket.Conn
	done bool
}

// Dial connects to a tick supplier at url (ws:// or wss://).
func Dial(ctx context.Context, url string) (*Feed, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("stream: dial %s: %w", url, err)
	}
	return &Feed{conn: conn}, nil
}

// Next blocks for the next tick. Malformed frames are skipped.
func (f *Feed) Next() (market.Tick, bool, error) {
	if f.done {
		return market.Tick{}, false, nil
	}

	for {
		var fr frame
		if err := f.conn.ReadJSON(&fr); err != nil {
			f.done = true
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return market.Tick{}, false, nil
			}
			return market.Tick{}, false, fmt.Errorf("stream: read: %w", err)
		}

		ts, err := time.Parse(time.RFC3339, fr.Time)
		if err != nil {
			if ts, err = time.Parse(time.RFC3339Nano, fr.Time); err != nil {
				continue
			}
		}

		tick := market.Tick{Time: ts, Instrument: fr.Instrument, Price: fr.Price}
		if tick.Validate() != nil {
			continue
		}
		return tick, true, nil
	}
}

// Close tears down the connection.
func (f *Feed) Close() error {
	f.done = true
	return f.conn.Close()
}

// RecordToCSV drains the feed into canonical tick CSV rows
// (time,instrument,price) until the stream ends, ctx is done, or
// maxTicks rows were written (0 = unlimited). It returns the number of
// rows written.
func (f *Feed) RecordToCSV(ctx context.Context, w io.Writer, maxTicks int) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "instrument", "price"}); err != nil {
		return 0, err
	}

	n := 0
	for {
		if ctx.Err() != nil {
			break
		}
		if maxTicks > 0 && n >= maxTicks {
			break
		}

		t, ok, err := f.Next()
		if err != nil {
			cw.Flush()
			return n, err
		}
		if !ok {
			break
		}

		err = cw.Write([]string{
			t.Time.Format(time.RFC3339Nano),
			t.Instrument,
			strconv.FormatFloat(t.Price, 'f', -1, 64),
		})
		if err != nil {
			return n, err
		}
		n++
	}

	cw.Flush()
	return n, cw.Error()
}
