package migrations

import (
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DataMigration is one applied entry of the data_migrations ledger.
type DataMigration struct {
	ID        string    `gorm:"primaryKey;size:200;column:id"`
	AppliedAt time.Time `gorm:"not null;column:applied_at"`
}

func (DataMigration) TableName() string { return "data_migrations" }

// Migration rewrites stored data that schema auto-migration cannot fix.
type Migration struct {
	ID string
	Fn func(*gorm.DB) error
}

// registry is applied in order. IDs are permanent: append, never rename.
var registry = []Migration{
	{ID: "00001_uppercase_symbol_names", Fn: uppercaseSymbolNames},
	{ID: "00002_backfill_order_opened_at", Fn: backfillOrderOpenedAt},
}

// Run applies every registered migration not yet in the ledger.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	for _, m := range registry {
		if err := RunOnce(db, m.ID, m.Fn); err != nil {
			return err
		}
	}
	return nil
}

// RunOnce applies fn inside a transaction unless migrationID is already in the
// ledger. The ledger entry is written in the same transaction, so a failing fn
// leaves no trace.
func RunOnce(db *gorm.DB, migrationID string, fn func(*gorm.DB) error) error {
	switch {
	case db == nil:
		return nil
	case migrationID == "":
		return errors.New("migration id is empty")
	case fn == nil:
		return fmt.Errorf("migration %q has no function", migrationID)
	}

	if err := db.AutoMigrate(&DataMigration{}); err != nil {
		return fmt.Errorf("prepare data_migrations: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		done, err := applied(tx, migrationID)
		if err != nil || done {
			return err
		}
		if err := fn(tx); err != nil {
			return fmt.Errorf("migration %q: %w", migrationID, err)
		}
		if err := tx.Create(&DataMigration{ID: migrationID, AppliedAt: time.Now().UTC()}).Error; err != nil {
			return fmt.Errorf("record migration %q: %w", migrationID, err)
		}
		logger.WithField("migration", migrationID).Info("data migration applied")
		return nil
	})
}

func applied(tx *gorm.DB, migrationID string) (bool, error) {
	var m DataMigration
	err := tx.First(&m, "id = ?", migrationID).Error
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("look up migration %q: %w", migrationID, err)
	}
}
