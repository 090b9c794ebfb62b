package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Trade is a parameterized rule set: when (weekday + time slot) and under which
// spread a position may be opened for a scope, and where it is closed
// (stop loss / take profit, in pips). Trades are compared by ID.
type Trade struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Scope      Scope           `gorm:"embedded;embeddedPrefix:scope_" json:"scope"`
	StopLoss   int             `gorm:"not null" json:"stop_loss"`
	TakeProfit int             `gorm:"not null" json:"take_profit"`
	SpreadMax  int             `gorm:"not null" json:"spread_max"`
	SlotWeek   time.Weekday    `gorm:"not null;index:idx_trades_slot,priority:1" json:"slot_week"`
	SlotStart  TimeOfDay       `gorm:"not null;index:idx_trades_slot,priority:2" json:"slot_start"`
	SlotEnd    TimeOfDay       `gorm:"not null;index:idx_trades_slot,priority:3" json:"slot_end"`
	Active     bool            `gorm:"not null;default:false;index" json:"active"`
	Balance    decimal.Decimal `gorm:"type:double precision;not null;default:0" json:"balance"`
	Orders     []Order         `gorm:"foreignKey:TradeID;constraint:OnDelete:CASCADE" json:"orders,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (Trade) TableName() string {
	return "trades"
}

func (t *Trade) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// NewTrade builds an inactive trade with zero balance and checks its invariants.
func NewTrade(scope Scope, spreadMax, takeProfit, stopLoss int, week time.Weekday, slot TimeSlot) (Trade, error) {
	t := Trade{
		ID:         uuid.New(),
		Scope:      scope,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		SpreadMax:  spreadMax,
		SlotWeek:   week,
		SlotStart:  slot.Start,
		SlotEnd:    slot.End,
		Active:     false,
		Balance:    decimal.Zero,
	}
	if err := t.Validate(); err != nil {
		return Trade{}, err
	}
	return t, nil
}

// Validate checks stopLoss <= takeProfit, stopLoss > spreadMax and the sign of
// every threshold.
func (t Trade) Validate() error {
	entity := "trade " + t.Scope.String()
	switch {
	case t.StopLoss < 0:
		return &InvariantViolation{Entity: entity, Rule: "stop loss must not be negative"}
	case t.TakeProfit <= 0:
		return &InvariantViolation{Entity: entity, Rule: "take profit must be positive"}
	case t.SpreadMax < 0:
		return &InvariantViolation{Entity: entity, Rule: "spread max must not be negative"}
	case t.StopLoss > t.TakeProfit:
		return &InvariantViolation{Entity: entity, Rule: fmt.Sprintf("stop loss %d above take profit %d", t.StopLoss, t.TakeProfit)}
	case t.StopLoss <= t.SpreadMax:
		return &InvariantViolation{Entity: entity, Rule: fmt.Sprintf("stop loss %d not above spread max %d", t.StopLoss, t.SpreadMax)}
	case t.SlotStart > t.SlotEnd:
		return &InvariantViolation{Entity: entity, Rule: "slot start after slot end"}
	}
	return nil
}

func (t Trade) Slot() TimeSlot {
	return TimeSlot{Start: t.SlotStart, End: t.SlotEnd}
}

// AcceptsTick reports whether an active trade may open a position on tick.
func (t Trade) AcceptsTick(tick Tick, digits int) bool {
	if !t.Active || t.Scope.SymbolName != tick.SymbolName {
		return false
	}
	if decimal.NewFromInt(int64(t.SpreadMax)).LessThan(tick.SpreadPips(digits)) {
		return false
	}
	return t.SlotWeek == tick.Weekday() && t.Slot().Contains(tick.TimeOfDay())
}

// Evaluate applies the close conditions to a freshly marked OPEN order:
// stop loss first, then take profit. It returns the resulting status.
func (t Trade) Evaluate(o Order) OrderStatus {
	if o.Status != OrderStatusOpen {
		return o.Status
	}
	if o.Profit.LessThanOrEqual(decimal.NewFromInt(int64(-t.StopLoss))) {
		return OrderStatusStopLoss
	}
	if o.Profit.GreaterThanOrEqual(decimal.NewFromInt(int64(t.TakeProfit))) {
		return OrderStatusTakeProfit
	}
	return OrderStatusOpen
}

// CountOrders returns the number of orders in status.
func (t Trade) CountOrders(status OrderStatus) int {
	n := 0
	for _, o := range t.Orders {
		if o.Status == status {
			n++
		}
	}
	return n
}
