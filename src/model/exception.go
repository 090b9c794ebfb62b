package model

import (
	"errors"
	"time"
)

// Exception is a rejected input or failed step of the tick pipeline, kept for
// auditing. Every failure is scoped to the single input that caused it, so
// each record points at its symbol and, when known, its tick.
type Exception struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Service string `gorm:"size:100;index" json:"service"` // e.g. "pipeline"
	Module  string `gorm:"size:100;index" json:"module"`  // e.g. "orders"
	Method  string `gorm:"size:100" json:"method"`        // e.g. "Revalue"

	Category string `gorm:"size:40;index" json:"category"` // validation | not_found | out_of_order | invariant | internal
	Symbol   string `gorm:"size:6;index" json:"symbol,omitempty"`
	Message  string `gorm:"type:text" json:"message"`
	Stack    string `gorm:"type:text" json:"stack"`

	Level string `gorm:"size:20;index" json:"level"` // debug | info | warn | error

	// JSON encoded extra context
	Context string `gorm:"type:text" json:"context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Exception) TableName() string {
	return "exceptions"
}

// ErrorCategory maps an error onto the taxonomy recorded in Exception.Category.
func ErrorCategory(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrOutOfOrderTick):
		return "out_of_order"
	case errors.Is(err, ErrInvariantViolation):
		return "invariant"
	default:
		return "internal"
	}
}
