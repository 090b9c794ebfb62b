package executors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	logger "github.com/sirupsen/logrus"

	"tradesim/src/activation"
	"tradesim/src/exceptions"
	"tradesim/src/model"
	"tradesim/src/observability"
)

type OrderCloser interface {
	CloseOlderThan(ctx context.Context, symbol string, days int) ([]model.Order, error)
}

type Recommender interface {
	Recommend(ctx context.Context, symbol string) ([]activation.Recommendation, error)
}

// Sweeper closes stale orders and reports the trades worth activating. It
// never activates anything itself.
type Sweeper struct {
	closer      OrderCloser
	recommender Recommender
	recorder    exceptions.Recorder
	symbols     []string
	days        int
	timeout     time.Duration
}

func NewSweeper(closer OrderCloser, recommender Recommender, recorder exceptions.Recorder, config Config) (*Sweeper, error) {
	if config.CloseAfterDays <= 0 {
		return nil, &model.ValidationError{Field: "close after days", Reason: fmt.Sprintf("%d is not positive", config.CloseAfterDays)}
	}
	if len(config.Symbols) == 0 {
		return nil, &model.ValidationError{Field: "symbols", Reason: "at least one symbol is required"}
	}
	symbols := make([]string, 0, len(config.Symbols))
	for _, s := range config.Symbols {
		symbols = append(symbols, strings.ToUpper(strings.TrimSpace(s)))
	}
	return &Sweeper{
		closer:      closer,
		recommender: recommender,
		recorder:    recorder,
		symbols:     symbols,
		days:        config.CloseAfterDays,
		timeout:     config.SweepTimeout,
	}, nil
}

// Run performs one sweep over every symbol. A failing symbol does not stop
// the others.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var errs []error
	for _, symbol := range s.symbols {
		if err := s.sweepSymbol(ctx, symbol); err != nil {
			errs = append(errs, fmt.Errorf("sweep %s: %w", symbol, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		observability.RecordSweep("error")
		return err
	}
	observability.RecordSweep("ok")
	return nil
}

func (s *Sweeper) sweepSymbol(ctx context.Context, symbol string) error {
	source := exceptions.Source{Service: "sweep", Module: "executors"}

	closed, err := s.closer.CloseOlderThan(ctx, symbol, s.days)
	if err != nil {
		source.Method = "CloseOlderThan"
		exceptions.Capture(ctx, s.recorder, source, symbol, err, map[string]interface{}{"days": s.days})
		return err
	}

	recommendations, err := s.recommender.Recommend(ctx, symbol)
	if err != nil {
		source.Method = "Recommend"
		exceptions.Capture(ctx, s.recorder, source, symbol, err, nil)
		return err
	}
	observability.UpdateActivationCandidates(symbol, len(recommendations))

	for _, rec := range recommendations {
		logger.WithFields(map[string]interface{}{
			"op":          "Sweep",
			"symbol":      symbol,
			"trade_id":    rec.Trade.ID,
			"scope":       rec.Trade.Scope.String(),
			"reason":      rec.Reason,
			"balance":     rec.Trade.Balance.String(),
			"win_rate":    rec.WinRate,
			"open_orders": rec.OpenCount,
		}).Info("trade recommended for activation")
	}

	logger.WithFields(map[string]interface{}{
		"op":          "Sweep",
		"symbol":      symbol,
		"closed":      len(closed),
		"recommended": len(recommendations),
	}).Info("sweep finished")
	return nil
}

// StartSweepLoop runs the sweeper on schedule until ctx is cancelled.
func StartSweepLoop(ctx context.Context, sweeper *Sweeper, schedule string) error {
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(schedule, func() {
		if err := sweeper.Run(ctx); err != nil {
			logger.WithError(err).Error("sweep failed")
		}
	}); err != nil {
		return &model.ValidationError{Field: "sweep schedule", Reason: err.Error()}
	}

	c.Start()
	logger.WithField("schedule", schedule).Info("sweep loop started")

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("sweep loop stopped")
	return nil
}
