// Package ticks ingests quotes and enforces per-symbol timestamp ordering.
package ticks

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"tradesim/src/model"
)

// Store is the append-only tick log.
type Store interface {
	LatestForSymbol(ctx context.Context, symbol string) (*model.Tick, error)
	Append(ctx context.Context, tick *model.Tick) error
	FindBySymbol(ctx context.Context, symbol string) ([]model.Tick, error)
	FindRecentBySymbol(ctx context.Context, symbol string, limit int) ([]model.Tick, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Add validates tick and appends it when it is strictly newer than the latest
// stored tick of its symbol. A rejected tick leaves the store untouched.
func (s *Service) Add(ctx context.Context, tick model.Tick) (model.Tick, error) {
	if err := tick.Validate(); err != nil {
		return model.Tick{}, err
	}
	tick.Timestamp = tick.Timestamp.UTC()

	latest, err := s.store.LatestForSymbol(ctx, tick.SymbolName)
	if err != nil {
		return model.Tick{}, fmt.Errorf("latest tick for %s: %w", tick.SymbolName, err)
	}
	if latest != nil && !latest.Timestamp.Before(tick.Timestamp) {
		logger.WithFields(map[string]interface{}{
			"op":        "Add",
			"symbol":    tick.SymbolName,
			"timestamp": tick.Timestamp,
			"latest":    latest.Timestamp,
		}).Warn("tick rejected, not after latest stored tick")
		return model.Tick{}, &model.OutOfOrderTickError{Symbol: tick.SymbolName, Timestamp: tick.Timestamp, Latest: latest.Timestamp}
	}

	if err := s.store.Append(ctx, &tick); err != nil {
		return model.Tick{}, fmt.Errorf("append tick for %s: %w", tick.SymbolName, err)
	}
	return tick, nil
}

// Latest returns the newest stored tick of symbol.
func (s *Service) Latest(ctx context.Context, symbol string) (model.Tick, error) {
	latest, err := s.store.LatestForSymbol(ctx, symbol)
	if err != nil {
		return model.Tick{}, err
	}
	if latest == nil {
		return model.Tick{}, &model.NotFoundError{Entity: "tick", Key: symbol}
	}
	return *latest, nil
}

// History returns every tick of symbol ordered by timestamp.
func (s *Service) History(ctx context.Context, symbol string) ([]model.Tick, error) {
	return s.store.FindBySymbol(ctx, symbol)
}

// Recent returns the newest limit ticks of symbol ordered by timestamp.
func (s *Service) Recent(ctx context.Context, symbol string, limit int) ([]model.Tick, error) {
	if limit <= 0 {
		return nil, &model.ValidationError{Field: "limit", Reason: "must be positive"}
	}
	return s.store.FindRecentBySymbol(ctx, symbol, limit)
}
