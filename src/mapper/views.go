package mapper

import (
	"tradesim/src/activation"
	"tradesim/src/externalmodel"
	"tradesim/src/model"
	"tradesim/src/sessions"
)

func MapTick(t model.Tick) externalmodel.Tick {
	return externalmodel.Tick{
		ID:        t.ID.String(),
		Symbol:    t.SymbolName,
		Timestamp: t.Timestamp.UTC(),
		Bid:       t.Bid.String(),
		Ask:       t.Ask.String(),
	}
}

func MapTicks(ticks []model.Tick) []externalmodel.Tick {
	out := make([]externalmodel.Tick, 0, len(ticks))
	for _, t := range ticks {
		out = append(out, MapTick(t))
	}
	return out
}

func MapSymbols(symbols []model.Symbol) []externalmodel.Symbol {
	out := make([]externalmodel.Symbol, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, externalmodel.Symbol{
			Name:          s.Name,
			CurrencyBase:  s.CurrencyBase,
			CurrencyQuote: s.CurrencyQuote,
			Digits:        s.Digits,
			SwapLong:      s.SwapLong.String(),
			SwapShort:     s.SwapShort.String(),
			Description:   s.Description,
		})
	}
	return out
}

func MapTrade(t model.Trade) externalmodel.Trade {
	return externalmodel.Trade{
		ID:         t.ID.String(),
		Symbol:     t.Scope.SymbolName,
		TimeFrame:  string(t.Scope.TimeFrame),
		Weekday:    t.SlotWeek.String(),
		SlotStart:  t.SlotStart.String(),
		SlotEnd:    t.SlotEnd.String(),
		SpreadMax:  t.SpreadMax,
		TakeProfit: t.TakeProfit,
		StopLoss:   t.StopLoss,
		Active:     t.Active,
		Balance:    t.Balance.String(),
	}
}

// MapOrder prices the order from the side of the book it trades against:
// BUY opens at ask and closes at bid, SELL the other way round.
func MapOrder(o model.Order) externalmodel.Order {
	out := externalmodel.Order{
		ID:        o.ID.String(),
		TradeID:   o.TradeID.String(),
		OrderType: string(o.OrderType),
		Status:    string(o.Status),
		Simulator: o.Simulator,
		Profit:    o.Profit.String(),
		OpenedAt:  o.OpenedAt.UTC(),
		Session:   string(sessions.At(o.OpenedAt)),
	}
	if o.OpenTick != nil {
		if o.OrderType == model.OrderTypeSell {
			out.OpenPrice = o.OpenTick.Bid.String()
		} else {
			out.OpenPrice = o.OpenTick.Ask.String()
		}
	}
	if o.CloseTick != nil {
		if o.OrderType == model.OrderTypeSell {
			out.ClosePrice = o.CloseTick.Ask.String()
		} else {
			out.ClosePrice = o.CloseTick.Bid.String()
		}
		ts := o.CloseTick.Timestamp.UTC()
		out.LastValueAt = &ts
	}
	return out
}

func MapOrders(orders []model.Order) []externalmodel.Order {
	out := make([]externalmodel.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, MapOrder(o))
	}
	return out
}

func MapRecommendations(recs []activation.Recommendation) []externalmodel.Recommendation {
	out := make([]externalmodel.Recommendation, 0, len(recs))
	for _, r := range recs {
		out = append(out, externalmodel.Recommendation{
			Trade:           MapTrade(r.Trade),
			Reason:          r.Reason,
			OpenOrders:      r.OpenCount,
			ClosedOrders:    r.ClosedCount,
			TakeProfitCount: r.TakeProfitCount,
			WinRate:         r.WinRate,
		})
	}
	return out
}

func MapExceptions(excs []model.Exception) []externalmodel.Exception {
	out := make([]externalmodel.Exception, 0, len(excs))
	for _, e := range excs {
		out = append(out, externalmodel.Exception{
			ID:        e.ID,
			Category:  e.Category,
			Symbol:    e.Symbol,
			Method:    e.Method,
			Message:   e.Message,
			Level:     e.Level,
			CreatedAt: e.CreatedAt.UTC(),
		})
	}
	return out
}
