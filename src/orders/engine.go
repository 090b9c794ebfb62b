// Package orders opens, values and closes the orders of simulated trades.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"tradesim/src/model"
	"tradesim/src/observability"
)

// TradeStore persists trades together with their orders. GetByID returns the
// full aggregate (orders, their ticks and snapshots) or a NotFoundError.
type TradeStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Trade, error)
	FindOpenBySymbol(ctx context.Context, symbol string) ([]model.Trade, error)
	AddOrder(ctx context.Context, trade *model.Trade, order *model.Order) error
	SaveOrders(ctx context.Context, trade *model.Trade, orders []model.Order) error
	FindOrdersBySymbolAndStatus(ctx context.Context, symbol string, status model.OrderStatus) ([]model.Order, error)
}

// SymbolLookup resolves the reference data needed to scale prices into pips.
type SymbolLookup interface {
	GetByName(ctx context.Context, name string) (*model.Symbol, error)
}

// LatestTick returns the newest stored tick of a symbol, nil when none exists.
type LatestTick interface {
	LatestForSymbol(ctx context.Context, symbol string) (*model.Tick, error)
}

type Engine struct {
	trades  TradeStore
	symbols SymbolLookup
	ticks   LatestTick
	locks   *tradeLocks
}

func NewEngine(trades TradeStore, symbols SymbolLookup, ticks LatestTick) *Engine {
	return &Engine{
		trades:  trades,
		symbols: symbols,
		ticks:   ticks,
		locks:   newTradeLocks(),
	}
}

// Open creates an OPEN order on the trade at tick. Open and close tick are the
// same, so the initial profit is the entry spread cost.
func (e *Engine) Open(ctx context.Context, tradeID uuid.UUID, tick model.Tick, orderType model.OrderType, simulator bool) (*model.Order, error) {
	if tick.ID == uuid.Nil {
		return nil, &model.ValidationError{Field: "tick", Reason: "tick must be stored before an order can reference it"}
	}
	if _, err := model.ParseOrderType(string(orderType)); err != nil {
		return nil, err
	}

	unlock := e.locks.lock(tradeID)
	defer unlock()

	trade, err := e.trades.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.Scope.SymbolName != tick.SymbolName {
		return nil, &model.ValidationError{
			Field:  "tick",
			Reason: fmt.Sprintf("tick symbol %s does not match trade scope %s", tick.SymbolName, trade.Scope),
		}
	}
	digits, err := e.digits(ctx, tick.SymbolName)
	if err != nil {
		return nil, err
	}

	t := tick
	order := model.Order{
		ID:          uuid.New(),
		TradeID:     trade.ID,
		OpenTickID:  t.ID,
		OpenTick:    &t,
		CloseTickID: t.ID,
		CloseTick:   &t,
		OpenedAt:    t.Timestamp,
		OrderType:   orderType,
		Status:      model.OrderStatusOpen,
		Simulator:   simulator,
	}
	order.Mark(t, digits)

	if err := e.trades.AddOrder(ctx, trade, &order); err != nil {
		return nil, fmt.Errorf("add order to trade %s: %w", trade.ID, err)
	}
	observability.RecordOrderOpened(string(orderType))

	logger.WithFields(map[string]interface{}{
		"op":         "Open",
		"trade_id":   trade.ID,
		"order_id":   order.ID,
		"order_type": orderType,
		"profit":     order.Profit.String(),
	}).Debug("order opened")

	return &order, nil
}

// Revalue marks every OPEN order of the tick's symbol at tick, then closes it
// on stop loss or take profit, stop loss first. It returns the orders that
// were updated. Each trade is persisted in a single call.
func (e *Engine) Revalue(ctx context.Context, tick model.Tick) ([]model.Order, error) {
	digits, err := e.digits(ctx, tick.SymbolName)
	if err != nil {
		return nil, err
	}
	candidates, err := e.trades.FindOpenBySymbol(ctx, tick.SymbolName)
	if err != nil {
		return nil, fmt.Errorf("find open trades for %s: %w", tick.SymbolName, err)
	}

	var out []model.Order
	for _, candidate := range candidates {
		updated, err := e.updateTrade(ctx, candidate.ID, func(trade *model.Trade, o *model.Order) (bool, error) {
			if !o.Mark(tick, digits) {
				return false, nil
			}
			if next := trade.Evaluate(*o); next != model.OrderStatusOpen {
				if err := o.Transition(next); err != nil {
					return false, err
				}
			}
			return true, nil
		})
		if err != nil {
			return out, err
		}
		out = append(out, updated...)
	}
	return out, nil
}

// CloseOlderThan closes, valued at the latest tick of symbol, every OPEN order
// opened strictly before latest - days.
func (e *Engine) CloseOlderThan(ctx context.Context, symbol string, days int) ([]model.Order, error) {
	if days <= 0 {
		return nil, &model.ValidationError{Field: "days", Reason: fmt.Sprintf("%d is not positive", days)}
	}
	latest, err := e.ticks.LatestForSymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("latest tick for %s: %w", symbol, err)
	}
	if latest == nil {
		logger.WithFields(map[string]interface{}{
			"op":     "CloseOlderThan",
			"symbol": symbol,
		}).Debug("no tick stored, nothing to close")
		return nil, nil
	}
	digits, err := e.digits(ctx, symbol)
	if err != nil {
		return nil, err
	}
	cutoff := latest.Timestamp.Add(-time.Duration(days) * 24 * time.Hour)

	candidates, err := e.trades.FindOpenBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("find open trades for %s: %w", symbol, err)
	}

	var out []model.Order
	for _, candidate := range candidates {
		updated, err := e.updateTrade(ctx, candidate.ID, func(_ *model.Trade, o *model.Order) (bool, error) {
			if !openedAt(*o).Before(cutoff) || !o.Mark(*latest, digits) {
				return false, nil
			}
			return true, o.Transition(model.OrderStatusClosed)
		})
		if err != nil {
			return out, err
		}
		out = append(out, updated...)
	}

	logger.WithFields(map[string]interface{}{
		"op":     "CloseOlderThan",
		"symbol": symbol,
		"days":   days,
		"cutoff": cutoff,
		"closed": len(out),
	}).Info("old orders closed")

	return out, nil
}

// Orders returns the orders of symbol in status, oldest first.
func (e *Engine) Orders(ctx context.Context, symbol string, status model.OrderStatus) ([]model.Order, error) {
	return e.trades.FindOrdersBySymbolAndStatus(ctx, symbol, status)
}

// updateTrade reloads the trade under its lock, applies fn to every OPEN
// order and persists the changed orders with the new balance.
func (e *Engine) updateTrade(ctx context.Context, tradeID uuid.UUID, fn func(*model.Trade, *model.Order) (bool, error)) ([]model.Order, error) {
	unlock := e.locks.lock(tradeID)
	defer unlock()

	trade, err := e.trades.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}

	var changed []model.Order
	for i := range trade.Orders {
		o := &trade.Orders[i]
		if o.Status != model.OrderStatusOpen {
			continue
		}
		ok, err := fn(trade, o)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if o.Status.IsTerminal() {
			trade.Balance = trade.Balance.Add(o.Profit)
			observability.RecordOrderClosed(string(o.Status))
			logger.WithFields(map[string]interface{}{
				"trade_id": trade.ID,
				"order_id": o.ID,
				"status":   o.Status,
				"profit":   o.Profit.String(),
				"balance":  trade.Balance.String(),
			}).Info("order closed")
		}
		changed = append(changed, *o)
	}

	if len(changed) == 0 {
		return nil, nil
	}
	if err := e.trades.SaveOrders(ctx, trade, changed); err != nil {
		return nil, fmt.Errorf("save orders of trade %s: %w", trade.ID, err)
	}
	return changed, nil
}

func (e *Engine) digits(ctx context.Context, symbol string) (int, error) {
	s, err := e.symbols.GetByName(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if err := s.Validate(); err != nil {
		return 0, err
	}
	return s.Digits, nil
}

func openedAt(o model.Order) time.Time {
	if o.OpenTick != nil {
		return o.OpenTick.Timestamp
	}
	return o.OpenedAt
}
