package model

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors. The typed errors below match them through errors.Is so
// callers can branch on the category without caring about the details.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrOutOfOrderTick     = errors.New("tick out of order")
	ErrInvariantViolation = errors.New("invariant violation")
)

// ValidationError is returned for malformed configuration (slot width, empty
// candidate lists, unknown timeframe). Nothing is produced when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an unknown trade, order, tick or symbol.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// OutOfOrderTickError is returned when a tick is not strictly newer than the
// latest stored tick of its symbol.
type OutOfOrderTickError struct {
	Symbol    string
	Timestamp time.Time
	Latest    time.Time
}

func (e *OutOfOrderTickError) Error() string {
	return fmt.Sprintf("tick timestamp %s for symbol %s is not after latest stored tick %s",
		e.Timestamp.Format(time.RFC3339Nano), e.Symbol, e.Latest.Format(time.RFC3339Nano))
}

func (e *OutOfOrderTickError) Is(target error) bool { return target == ErrOutOfOrderTick }

// InvariantViolation is returned when an entity is constructed with values
// that break its invariants (ask < bid, stop loss above take profit, ...).
type InvariantViolation struct {
	Entity string
	Rule   string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("%s violates invariant: %s", e.Entity, e.Rule)
}

func (e *InvariantViolation) Is(target error) bool { return target == ErrInvariantViolation }
