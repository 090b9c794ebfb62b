// Package activation scores trades by realized performance and recommends
// which ones to activate. It never changes a trade itself.
package activation

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	logger "github.com/sirupsen/logrus"

	"tradesim/src/model"
)

const (
	ReasonNoStopLoss = "no_stop_loss"
	ReasonWinRate    = "win_rate_below_cutoff"
)

// TradeLister loads every trade of a symbol with its orders.
type TradeLister interface {
	FindBySymbol(ctx context.Context, symbol string) ([]model.Trade, error)
}

type Recommendation struct {
	Trade           model.Trade
	Reason          string
	OpenCount       int
	ClosedCount     int
	TakeProfitCount int
	// WinRate is only computed for trades that hit a stop loss.
	WinRate int64
}

type Policy struct {
	trades TradeLister
	config Config
}

func NewPolicy(trades TradeLister, config Config) *Policy {
	return &Policy{trades: trades, config: config}
}

// Recommend returns the trades of symbol recommended for activation, worst
// balance first.
func (p *Policy) Recommend(ctx context.Context, symbol string) ([]Recommendation, error) {
	trades, err := p.trades.FindBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("find trades for %s: %w", symbol, err)
	}

	var out []Recommendation
	for _, trade := range trades {
		if rec, ok := p.Evaluate(trade); ok {
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		bi, bj := out[i].Trade.Balance, out[j].Trade.Balance
		if !bi.Equal(bj) {
			return bi.LessThan(bj)
		}
		return bytes.Compare(out[i].Trade.ID[:], out[j].Trade.ID[:]) < 0
	})

	logger.WithFields(map[string]interface{}{
		"op":          "Recommend",
		"symbol":      symbol,
		"trades":      len(trades),
		"recommended": len(out),
	}).Info("activation policy evaluated")

	return out, nil
}

// Evaluate scores a single trade. Only trades with more than MinOpenOrders
// OPEN orders and a positive balance can be recommended: either no order ever
// hit the stop loss, or the take profit rate among closed orders is under
// WinRateCutoff.
func (p *Policy) Evaluate(trade model.Trade) (Recommendation, bool) {
	rec := Recommendation{Trade: trade}
	for _, o := range trade.Orders {
		switch o.Status {
		case model.OrderStatusOpen:
			rec.OpenCount++
		case model.OrderStatusTakeProfit:
			rec.TakeProfitCount++
			rec.ClosedCount++
		default:
			rec.ClosedCount++
		}
	}

	if rec.OpenCount <= p.config.MinOpenOrders || !trade.Balance.IsPositive() {
		return rec, false
	}
	if trade.CountOrders(model.OrderStatusStopLoss) == 0 {
		rec.Reason = ReasonNoStopLoss
		return rec, true
	}

	// a stop loss exists, so ClosedCount > 0
	rec.WinRate = int64(rec.TakeProfitCount) * 100 / int64(rec.ClosedCount)
	if rec.WinRate < p.config.WinRateCutoff {
		rec.Reason = ReasonWinRate
		return rec, true
	}
	return rec, false
}
