// Package generator expands the configured bands into trade variants and
// persists them.
package generator

import (
	"context"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tradesim/src/model"
	"tradesim/src/observability"
	"tradesim/src/slots"
	"tradesim/src/utils"
)

// TradeSaver persists a batch of new trades.
type TradeSaver interface {
	SaveAll(ctx context.Context, trades []model.Trade) error
}

type Generator struct {
	saver       TradeSaver
	trades      TradeConfig
	slotMinutes int
	batchSize   int
	parallelism int
	weekdays    []string
}

func NewGenerator(saver TradeSaver, config Config) *Generator {
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}
	parallelism := config.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	return &Generator{
		saver:       saver,
		trades:      config.Trades,
		slotMinutes: config.SlotMinutes,
		batchSize:   batchSize,
		parallelism: parallelism,
		weekdays:    config.Weekdays,
	}
}

// Generate creates every trade variant for the scopes whose timeframe is
// configured. Configuration is validated before anything is persisted. Scopes
// are persisted in parallel; Generate returns once every batch of every scope
// is stored, so the result is always fully persisted.
func (g *Generator) Generate(ctx context.Context, scopes []model.Scope) ([]model.Trade, error) {
	if err := g.trades.Validate(); err != nil {
		return nil, err
	}
	daySlots, err := slots.Partition(g.slotMinutes)
	if err != nil {
		return nil, err
	}
	weekdays := Weekdays
	if len(g.weekdays) > 0 {
		if weekdays, err = utils.ParseWeekdays(g.weekdays); err != nil {
			return nil, err
		}
		for _, day := range weekdays {
			if day == time.Saturday || day == time.Sunday {
				return nil, &model.ValidationError{Field: "weekday", Reason: day.String() + " is not a trading day"}
			}
		}
	}

	targets := make([]model.Scope, 0, len(scopes))
	seen := make(map[model.Scope]struct{}, len(scopes))
	for _, scope := range scopes {
		if _, ok := seen[scope]; ok {
			continue
		}
		seen[scope] = struct{}{}
		if _, ok := g.trades[scope.TimeFrame]; !ok {
			logger.WithFields(map[string]interface{}{
				"op":    "Generate",
				"scope": scope.String(),
			}).Debug("timeframe not configured, skipping scope")
			continue
		}
		targets = append(targets, scope)
	}

	results := make([][]model.Trade, len(targets))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(g.parallelism)

	for i, scope := range targets {
		group.Go(func() error {
			trades, err := g.generateScope(gctx, scope, weekdays, daySlots)
			if err != nil {
				return fmt.Errorf("generate trades for %s: %w", scope, err)
			}
			results[i] = trades
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		logger.WithError(err).Error("trade generation failed")
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]model.Trade, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}

	logger.WithFields(map[string]interface{}{
		"op":     "Generate",
		"scopes": len(targets),
		"trades": total,
	}).Info("trades generated")

	return out, nil
}

func (g *Generator) generateScope(ctx context.Context, scope model.Scope, weekdays []time.Weekday, daySlots []model.TimeSlot) ([]model.Trade, error) {
	var (
		out   []model.Trade
		batch = make([]model.Trade, 0, g.batchSize)
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := g.saver.SaveAll(ctx, batch); err != nil {
			return err
		}
		out = append(out, batch...)
		batch = make([]model.Trade, 0, g.batchSize)
		return nil
	}

	for c := range Combinations(g.trades[scope.TimeFrame], weekdays, daySlots) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		trade, err := c.Trade(scope)
		if err != nil {
			return nil, err
		}
		batch = append(batch, trade)
		if len(batch) == g.batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	observability.RecordTradesGenerated(scope.SymbolName, string(scope.TimeFrame), len(out))
	logger.WithFields(map[string]interface{}{
		"op":     "Generate",
		"scope":  scope.String(),
		"trades": len(out),
	}).Debug("scope persisted")

	return out, nil
}
