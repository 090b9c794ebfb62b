package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradesim/src/database"
	"tradesim/src/model"
)

// TickRepository is the append-only tick log.
type TickRepository struct {
	db *gorm.DB
}

func NewTickRepository() *TickRepository {
	return &TickRepository{
		db: database.MainDB,
	}
}

func (r *TickRepository) WithDB(db *gorm.DB) *TickRepository {
	return &TickRepository{db: db}
}

// LatestForSymbol returns the newest tick of symbol.
// Returns (nil, nil) if the symbol has no tick.
func (r *TickRepository) LatestForSymbol(ctx context.Context, symbol string) (*model.Tick, error) {
	var ticks []model.Tick
	err := r.db.WithContext(ctx).
		Where("symbol_name = ?", symbol).
		Order("timestamp DESC").
		Limit(1).
		Find(&ticks).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "TickRepository",
			"op":     "LatestForSymbol",
			"symbol": symbol,
		}).WithError(err).Error("Failed to fetch latest tick")
		return nil, err
	}
	if len(ticks) == 0 {
		return nil, nil
	}
	return &ticks[0], nil
}

// Append stores tick. The ordering rule is enforced by the caller.
func (r *TickRepository) Append(ctx context.Context, tick *model.Tick) error {
	if err := r.db.WithContext(ctx).Create(tick).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "TickRepository",
			"op":     "Append",
			"symbol": tick.SymbolName,
		}).WithError(err).Error("Failed to append tick")
		return err
	}
	return nil
}

// FindRecentBySymbol returns the newest limit ticks of symbol, oldest first.
func (r *TickRepository) FindRecentBySymbol(ctx context.Context, symbol string, limit int) ([]model.Tick, error) {
	var ticks []model.Tick
	err := r.db.WithContext(ctx).
		Where("symbol_name = ?", symbol).
		Order("timestamp DESC").
		Limit(limit).
		Find(&ticks).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "TickRepository",
			"op":     "FindRecentBySymbol",
			"symbol": symbol,
			"limit":  limit,
		}).WithError(err).Error("Failed to fetch recent ticks")
		return nil, err
	}
	for i, j := 0, len(ticks)-1; i < j; i, j = i+1, j-1 {
		ticks[i], ticks[j] = ticks[j], ticks[i]
	}
	return ticks, nil
}

// FindBySymbol returns every tick of symbol, oldest first.
func (r *TickRepository) FindBySymbol(ctx context.Context, symbol string) ([]model.Tick, error) {
	var ticks []model.Tick
	err := r.db.WithContext(ctx).
		Where("symbol_name = ?", symbol).
		Order("timestamp ASC").
		Find(&ticks).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "TickRepository",
			"op":     "FindBySymbol",
			"symbol": symbol,
		}).WithError(err).Error("Failed to fetch ticks")
		return nil, err
	}
	return ticks, nil
}
