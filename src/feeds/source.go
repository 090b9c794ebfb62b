// Package feeds produces ticks from replay files and live streams.
package feeds

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tradesim/src/model"
)

// Source streams ticks until it is exhausted or ctx is cancelled. Both
// channels are closed when the source stops. Errors are per message and do
// not stop the stream.
type Source interface {
	Ticks(ctx context.Context) (<-chan model.Tick, <-chan error)
}

// Message is the wire form of a tick shared by every feed.
type Message struct {
	Symbol    string          `json:"symbol"`
	Timestamp time.Time       `json:"timestamp"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
}

// Tick validates m and converts it into a tick with a UTC timestamp.
func (m Message) Tick() (model.Tick, error) {
	tick := model.Tick{
		SymbolName: strings.ToUpper(strings.TrimSpace(m.Symbol)),
		Timestamp:  m.Timestamp.UTC(),
		Bid:        m.Bid,
		Ask:        m.Ask,
	}
	if err := tick.Validate(); err != nil {
		return model.Tick{}, err
	}
	return tick, nil
}

func send[T any](ctx context.Context, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
