package model

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tick(ts time.Time, bid, ask string) Tick {
	return Tick{ID: uuid.New(), SymbolName: "EURUSD", Timestamp: ts, Bid: d(bid), Ask: d(ask)}
}

func TestProfitAt_BuyMovesWithBid(t *testing.T) {
	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	open := tick(now, "1.0998", "1.1000")
	current := tick(now.Add(time.Minute), "1.1050", "1.1052")

	profit := ProfitAt(OrderTypeBuy, open, current, 4)
	if !profit.Equal(d("50")) {
		t.Fatalf("expected 50 pips, got=%s", profit.String())
	}
}

func TestProfitAt_SellIsSymmetric(t *testing.T) {
	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	open := tick(now, "1.1000", "1.1002")
	current := tick(now.Add(time.Minute), "1.0948", "1.1050")

	profit := ProfitAt(OrderTypeSell, open, current, 4)
	if !profit.Equal(d("-50")) {
		t.Fatalf("expected -50 pips, got=%s", profit.String())
	}
}

func TestProfitAt_OpenTickCostsTheSpread(t *testing.T) {
	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	open := tick(now, "1.10000", "1.10015")

	require.True(t, ProfitAt(OrderTypeBuy, open, open, 5).Equal(d("-15")))
	require.True(t, ProfitAt(OrderTypeSell, open, open, 5).Equal(d("-15")))
}

func TestOrderStatus_StateMachine(t *testing.T) {
	require.True(t, OrderStatusOpen.CanTransitionTo(OrderStatusTakeProfit))
	require.True(t, OrderStatusOpen.CanTransitionTo(OrderStatusStopLoss))
	require.True(t, OrderStatusOpen.CanTransitionTo(OrderStatusClosed))
	require.False(t, OrderStatusOpen.CanTransitionTo(OrderStatusOpen))

	for _, terminal := range []OrderStatus{OrderStatusTakeProfit, OrderStatusStopLoss, OrderStatusClosed} {
		require.True(t, terminal.IsTerminal())
		for _, next := range []OrderStatus{OrderStatusOpen, OrderStatusTakeProfit, OrderStatusStopLoss, OrderStatusClosed} {
			if terminal.CanTransitionTo(next) {
				t.Fatalf("terminal status %s must not move to %s", terminal, next)
			}
		}
	}
}

func TestOrder_MarkIgnoresClosedOrders(t *testing.T) {
	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	open := tick(now, "1.1000", "1.1001")
	o := Order{ID: uuid.New(), OrderType: OrderTypeBuy, Status: OrderStatusTakeProfit, OpenTick: &open, Profit: d("12")}

	if o.Mark(tick(now.Add(time.Minute), "1.2000", "1.2001"), 4) {
		t.Fatalf("expected closed order to be left untouched")
	}
	require.True(t, o.Profit.Equal(d("12")))
	require.Empty(t, o.HistoricProfit)

	err := o.Transition(OrderStatusClosed)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvariantViolation))
}

func TestOrder_MarkAppendsSnapshot(t *testing.T) {
	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	open := tick(now, "1.1000", "1.1001")
	o := Order{ID: uuid.New(), OrderType: OrderTypeBuy, Status: OrderStatusOpen, OpenTick: &open, OpenTickID: open.ID}

	next := tick(now.Add(time.Minute), "1.1011", "1.1012")
	require.True(t, o.Mark(next, 4))
	require.True(t, o.Profit.Equal(d("10")))
	require.Equal(t, next.ID, o.CloseTickID)
	require.Len(t, o.HistoricProfit, 1)
	require.Equal(t, next.Timestamp, o.HistoricProfit[0].Timestamp)
}

func TestParseOrderType(t *testing.T) {
	ot, err := ParseOrderType("SELL")
	require.NoError(t, err)
	require.Equal(t, OrderTypeSell, ot)

	_, err = ParseOrderType("HOLD")
	require.ErrorIs(t, err, ErrValidation)
}
