package feeds

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"tradesim/src/model"
)

// CSVSource replays ticks from rows of symbol,timestamp,bid,ask with RFC3339
// timestamps. A header row is skipped.
type CSVSource struct {
	open func() (io.ReadCloser, error)
	name string
}

func NewCSVFileSource(path string) *CSVSource {
	return &CSVSource{
		name: path,
		open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

func NewCSVSource(r io.Reader) *CSVSource {
	return &CSVSource{
		name: "reader",
		open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
	}
}

func (s *CSVSource) Ticks(ctx context.Context) (<-chan model.Tick, <-chan error) {
	ticks := make(chan model.Tick, 64)
	errs := make(chan error, 16)

	go func() {
		defer close(ticks)
		defer close(errs)

		rc, err := s.open()
		if err != nil {
			send[error](ctx, errs, fmt.Errorf("open %s: %w", s.name, err))
			return
		}
		defer rc.Close()

		reader := csv.NewReader(rc)
		reader.FieldsPerRecord = 4
		reader.TrimLeadingSpace = true

		line := 0
		for {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				logger.WithFields(map[string]interface{}{
					"feed":  "csv",
					"file":  s.name,
					"lines": line,
				}).Info("replay finished")
				return
			}
			line++
			if err != nil {
				if !send[error](ctx, errs, fmt.Errorf("%s line %d: %w", s.name, line, err)) {
					return
				}
				continue
			}
			if line == 1 && strings.EqualFold(record[0], "symbol") {
				continue
			}

			tick, err := parseRecord(record)
			if err != nil {
				if !send[error](ctx, errs, fmt.Errorf("%s line %d: %w", s.name, line, err)) {
					return
				}
				continue
			}
			if !send(ctx, ticks, tick) {
				return
			}
		}
	}()

	return ticks, errs
}

func parseRecord(record []string) (model.Tick, error) {
	ts, err := time.Parse(time.RFC3339Nano, record[1])
	if err != nil {
		return model.Tick{}, &model.ValidationError{Field: "timestamp", Reason: err.Error()}
	}
	bid, err := decimal.NewFromString(record[2])
	if err != nil {
		return model.Tick{}, &model.ValidationError{Field: "bid", Reason: err.Error()}
	}
	ask, err := decimal.NewFromString(record[3])
	if err != nil {
		return model.Tick{}, &model.ValidationError{Field: "ask", Reason: err.Error()}
	}
	return Message{Symbol: record[0], Timestamp: ts, Bid: bid, Ask: ask}.Tick()
}
