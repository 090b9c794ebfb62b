package repository

import (
	"context"
	"errors"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tradesim/src/database"
	"tradesim/src/model"
)

// SymbolRepository keeps the local copy of the symbol reference data.
type SymbolRepository struct {
	db *gorm.DB
}

func NewSymbolRepository() *SymbolRepository {
	return &SymbolRepository{
		db: database.MainDB,
	}
}

func (r *SymbolRepository) WithDB(db *gorm.DB) *SymbolRepository {
	return &SymbolRepository{db: db}
}

// GetByName returns the symbol or a NotFoundError.
func (r *SymbolRepository) GetByName(ctx context.Context, name string) (*model.Symbol, error) {
	var symbol model.Symbol
	err := r.db.WithContext(ctx).
		Where("name = ?", strings.ToUpper(name)).
		First(&symbol).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &model.NotFoundError{Entity: "symbol", Key: name}
		}
		logger.WithFields(map[string]interface{}{
			"repo":   "SymbolRepository",
			"op":     "GetByName",
			"symbol": name,
		}).WithError(err).Error("Failed to fetch symbol")
		return nil, err
	}
	return &symbol, nil
}

// Upsert inserts symbol or refreshes the stored copy with the same name.
func (r *SymbolRepository) Upsert(ctx context.Context, symbol *model.Symbol) error {
	symbol.Name = strings.ToUpper(symbol.Name)
	if err := symbol.Validate(); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"currency_base", "currency_quote", "digits", "swap_long", "swap_short", "description", "updated_at"}),
		}).
		Create(symbol).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "SymbolRepository",
			"op":     "Upsert",
			"symbol": symbol.Name,
		}).WithError(err).Error("Failed to upsert symbol")
		return err
	}
	return nil
}

// FindAll returns every stored symbol ordered by name.
func (r *SymbolRepository) FindAll(ctx context.Context) ([]model.Symbol, error) {
	var symbols []model.Symbol
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&symbols).Error; err != nil {
		return nil, err
	}
	return symbols, nil
}
