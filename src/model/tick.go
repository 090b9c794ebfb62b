package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tick is a bid/ask quote. Ticks are append-only and strictly increasing in
// time per symbol.
type Tick struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SymbolName string          `gorm:"size:6;not null;index:idx_ticks_symbol_timestamp,priority:1" json:"symbol_name"`
	Timestamp  time.Time       `gorm:"not null;index:idx_ticks_symbol_timestamp,priority:2" json:"timestamp"`
	Bid        decimal.Decimal `gorm:"type:double precision;not null" json:"bid"`
	Ask        decimal.Decimal `gorm:"type:double precision;not null" json:"ask"`
}

func (Tick) TableName() string {
	return "ticks"
}

func (t *Tick) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Validate enforces ask >= bid and a known symbol and timestamp.
func (t Tick) Validate() error {
	if t.SymbolName == "" {
		return &InvariantViolation{Entity: "tick", Rule: "symbol is required"}
	}
	if t.Timestamp.IsZero() {
		return &InvariantViolation{Entity: "tick", Rule: "timestamp is required"}
	}
	if t.Ask.LessThan(t.Bid) {
		return &InvariantViolation{Entity: "tick " + t.SymbolName, Rule: "ask must be greater than or equal to bid"}
	}
	return nil
}

// Spread returns ask - bid in price units.
func (t Tick) Spread() decimal.Decimal {
	return t.Ask.Sub(t.Bid)
}

// SpreadPips returns the spread scaled by the symbol digits.
func (t Tick) SpreadPips(digits int) decimal.Decimal {
	return t.Spread().Mul(PipFactor(digits))
}

func (t Tick) Weekday() time.Weekday {
	return t.Timestamp.Weekday()
}

func (t Tick) TimeOfDay() TimeOfDay {
	return TimeOfDayOf(t.Timestamp)
}
