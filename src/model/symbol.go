package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Symbol is the reference data of a currency pair. It is managed outside of
// this system; we only keep the copy needed to scale prices into pips.
type Symbol struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"size:6;not null;uniqueIndex" json:"name"`
	CurrencyBase  string          `gorm:"size:3;not null" json:"currency_base"`
	CurrencyQuote string          `gorm:"size:3;not null" json:"currency_quote"`
	Digits        int             `gorm:"not null" json:"digits"`
	SwapLong      decimal.Decimal `gorm:"type:double precision;not null;default:0" json:"swap_long"`
	SwapShort     decimal.Decimal `gorm:"type:double precision;not null;default:0" json:"swap_short"`
	Description   string          `gorm:"size:255" json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Symbol) TableName() string {
	return "symbols"
}

// PipFactor returns 10^Digits, the multiplier turning a price difference into pips.
func (s Symbol) PipFactor() decimal.Decimal {
	return PipFactor(s.Digits)
}

func PipFactor(digits int) decimal.Decimal {
	return decimal.New(1, int32(digits))
}

// Validate checks the fields the pip arithmetic depends on.
func (s Symbol) Validate() error {
	if len(s.Name) != 6 {
		return &InvariantViolation{Entity: "symbol", Rule: "name must have 6 characters"}
	}
	if s.Digits < 1 {
		return &InvariantViolation{Entity: "symbol " + s.Name, Rule: "digits must be at least 1"}
	}
	return nil
}
