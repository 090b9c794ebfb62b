package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradesim/src/database"
	"tradesim/src/model"
)

// ExceptionRepository handles persistence of system exceptions.
type ExceptionRepository struct {
	db *gorm.DB
}

// NewExceptionRepository creates a new repository instance.
func NewExceptionRepository() *ExceptionRepository {
	return &ExceptionRepository{
		db: database.MainDB,
	}
}

func (r *ExceptionRepository) WithDB(db *gorm.DB) *ExceptionRepository {
	return &ExceptionRepository{db: db}
}

// Create persists a new exception in the database.
func (r *ExceptionRepository) Create(
	ctx context.Context,
	exc *model.Exception,
) error {

	logger.WithFields(map[string]interface{}{
		"service":  exc.Service,
		"module":   exc.Module,
		"method":   exc.Method,
		"category": exc.Category,
		"level":    exc.Level,
	}).Debug("Persisting system exception")

	return r.db.WithContext(ctx).Create(exc).Error
}

// FindRecent returns the latest exceptions, newest first, optionally limited
// to one symbol.
func (r *ExceptionRepository) FindRecent(ctx context.Context, symbol string, limit int) ([]model.Exception, error) {
	if limit <= 0 {
		limit = 20
	}

	q := r.db.WithContext(ctx)
	if symbol != "" {
		q = q.Where("symbol = ?", symbol)
	}

	var out []model.Exception
	if err := q.Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
