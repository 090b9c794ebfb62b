package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderType string

const (
	OrderTypeBuy  OrderType = "BUY"
	OrderTypeSell OrderType = "SELL"
)

func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(s) {
	case OrderTypeBuy, OrderTypeSell:
		return OrderType(s), nil
	default:
		return "", &ValidationError{Field: "order type", Reason: fmt.Sprintf("unknown order type %q", s)}
	}
}

type OrderStatus string

const (
	OrderStatusOpen       OrderStatus = "OPEN"
	OrderStatusTakeProfit OrderStatus = "TAKE_PROFIT"
	OrderStatusStopLoss   OrderStatus = "STOP_LOSS"
	OrderStatusClosed     OrderStatus = "CLOSED"
)

// IsTerminal reports whether no transition can leave the status.
func (s OrderStatus) IsTerminal() bool {
	return s != OrderStatusOpen
}

// CanTransitionTo encodes OPEN -> {TAKE_PROFIT, STOP_LOSS, CLOSED}.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s != OrderStatusOpen {
		return false
	}
	switch next {
	case OrderStatusTakeProfit, OrderStatusStopLoss, OrderStatusClosed:
		return true
	default:
		return false
	}
}

// Order is one position opened under a trade. Profit is expressed in pips.
type Order struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TradeID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"trade_id"`
	OpenTickID     uuid.UUID       `gorm:"type:uuid;not null" json:"open_tick_id"`
	OpenTick       *Tick           `gorm:"foreignKey:OpenTickID" json:"open_tick,omitempty"`
	CloseTickID    uuid.UUID       `gorm:"type:uuid;not null" json:"close_tick_id"`
	CloseTick      *Tick           `gorm:"foreignKey:CloseTickID" json:"close_tick,omitempty"`
	OpenedAt       time.Time       `gorm:"not null;index" json:"opened_at"`
	OrderType      OrderType       `gorm:"size:4;not null" json:"order_type"`
	Status         OrderStatus     `gorm:"size:20;not null;index;default:OPEN" json:"status"`
	Profit         decimal.Decimal `gorm:"type:double precision;not null;default:0" json:"profit"`
	Simulator      bool            `gorm:"not null;default:true" json:"simulator"`
	HistoricProfit []OrderProfit   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"historic_profit,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderProfit is one snapshot of an order's profit.
type OrderProfit struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Timestamp time.Time       `gorm:"not null" json:"timestamp"`
	Profit    decimal.Decimal `gorm:"type:double precision;not null" json:"profit"`
}

func (OrderProfit) TableName() string {
	return "order_profits"
}

// ProfitAt values the order at current with the same formula used at open,
// at every intermediate tick and at close:
//
//	BUY:  (current.Bid - open.Ask) * 10^digits
//	SELL: (open.Bid - current.Ask) * 10^digits
func ProfitAt(orderType OrderType, open, current Tick, digits int) decimal.Decimal {
	var diff decimal.Decimal
	switch orderType {
	case OrderTypeSell:
		diff = open.Bid.Sub(current.Ask)
	default:
		diff = current.Bid.Sub(open.Ask)
	}
	return diff.Mul(PipFactor(digits))
}

// Mark values an OPEN order at tick and appends the snapshot. It returns false
// and leaves the order untouched when the order is already closed.
func (o *Order) Mark(tick Tick, digits int) bool {
	if o.Status.IsTerminal() || o.OpenTick == nil {
		return false
	}
	t := tick
	o.Profit = ProfitAt(o.OrderType, *o.OpenTick, t, digits)
	o.CloseTickID = t.ID
	o.CloseTick = &t
	o.HistoricProfit = append(o.HistoricProfit, OrderProfit{
		OrderID:   o.ID,
		Timestamp: t.Timestamp,
		Profit:    o.Profit,
	})
	return true
}

// Transition moves the order to next if the state machine allows it.
func (o *Order) Transition(next OrderStatus) error {
	if !o.Status.CanTransitionTo(next) {
		return &InvariantViolation{
			Entity: "order " + o.ID.String(),
			Rule:   fmt.Sprintf("cannot transition from %s to %s", o.Status, next),
		}
	}
	o.Status = next
	return nil
}
