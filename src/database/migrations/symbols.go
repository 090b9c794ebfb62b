package migrations

import (
	"fmt"

	"gorm.io/gorm"
)

// uppercaseSymbolNames normalizes symbol names loaded before the feeds started
// upper-casing them, so lookups by name keep matching.
func uppercaseSymbolNames(db *gorm.DB) error {
	statements := []string{
		"UPDATE symbols SET name = UPPER(name) WHERE name <> UPPER(name)",
		"UPDATE ticks SET symbol_name = UPPER(symbol_name) WHERE symbol_name <> UPPER(symbol_name)",
		"UPDATE trades SET scope_symbol_name = UPPER(scope_symbol_name) WHERE scope_symbol_name <> UPPER(scope_symbol_name)",
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("uppercase symbol names: %w", err)
		}
	}
	return nil
}

// backfillOrderOpenedAt copies the open tick timestamp into orders created
// before opened_at was stored on the order row.
func backfillOrderOpenedAt(db *gorm.DB) error {
	return db.Exec(`UPDATE orders SET opened_at = (SELECT ticks.timestamp FROM ticks WHERE ticks.id = orders.open_tick_id)
WHERE opened_at IS NULL OR opened_at < '1971-01-01'`).Error
}
