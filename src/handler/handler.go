// Package handler exposes read access to the simulation and the operator
// activation endpoint.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"tradesim/src/activation"
	"tradesim/src/auth"
	"tradesim/src/externalmodel"
	"tradesim/src/mapper"
	"tradesim/src/model"
)

type orderLister interface {
	Orders(ctx context.Context, symbol string, status model.OrderStatus) ([]model.Order, error)
}

type latestTicker interface {
	Latest(ctx context.Context, symbol string) (model.Tick, error)
}

type tickHistory interface {
	Recent(ctx context.Context, symbol string, limit int) ([]model.Tick, error)
}

type symbolLister interface {
	FindAll(ctx context.Context) ([]model.Symbol, error)
}

type recommender interface {
	Recommend(ctx context.Context, symbol string) ([]activation.Recommendation, error)
}

type tradeActivator interface {
	SetActive(ctx context.Context, ids []uuid.UUID, active bool) (int64, error)
}

type exceptionFinder interface {
	FindRecent(ctx context.Context, symbol string, limit int) ([]model.Exception, error)
}

func symbolParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
}

// OrdersHandler lists the orders of a symbol, OPEN unless ?status= says otherwise.
func OrdersHandler(orders orderLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := model.OrderStatusOpen
		if raw := r.URL.Query().Get("status"); raw != "" {
			status = model.OrderStatus(strings.ToUpper(raw))
			switch status {
			case model.OrderStatusOpen, model.OrderStatusTakeProfit, model.OrderStatusStopLoss, model.OrderStatusClosed:
			default:
				http.Error(w, "invalid status", http.StatusBadRequest)
				return
			}
		}

		found, err := orders.Orders(r.Context(), symbolParam(r), status)
		if err != nil {
			writeError(w, err, "failed to list orders")
			return
		}
		writeJSON(w, http.StatusOK, mapper.MapOrders(found))
	}
}

func LatestTickHandler(ticks latestTicker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tick, err := ticks.Latest(r.Context(), symbolParam(r))
		if err != nil {
			writeError(w, err, "failed to load latest tick")
			return
		}
		writeJSON(w, http.StatusOK, mapper.MapTick(tick))
	}
}

// TickHistoryHandler returns the most recent ?limit= ticks of a symbol (100
// by default) in timestamp order.
func TickHistoryHandler(ticks tickHistory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := limitParam(w, r, 100)
		if !ok {
			return
		}
		history, err := ticks.Recent(r.Context(), symbolParam(r), limit)
		if err != nil {
			writeError(w, err, "failed to load tick history")
			return
		}
		writeJSON(w, http.StatusOK, mapper.MapTicks(history))
	}
}

func SymbolsHandler(symbols symbolLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		found, err := symbols.FindAll(r.Context())
		if err != nil {
			writeError(w, err, "failed to list symbols")
			return
		}
		writeJSON(w, http.StatusOK, mapper.MapSymbols(found))
	}
}

func RecommendationsHandler(policy recommender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := policy.Recommend(r.Context(), symbolParam(r))
		if err != nil {
			writeError(w, err, "failed to evaluate trades")
			return
		}
		writeJSON(w, http.StatusOK, mapper.MapRecommendations(recs))
	}
}

// ActivateHandler activates every trade currently recommended for the symbol.
func ActivateHandler(policy recommender, trades tradeActivator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := symbolParam(r)
		recs, err := policy.Recommend(r.Context(), symbol)
		if err != nil {
			writeError(w, err, "failed to evaluate trades")
			return
		}

		ids := make([]uuid.UUID, 0, len(recs))
		out := externalmodel.Activation{Symbol: symbol, TradeIDs: make([]string, 0, len(recs))}
		for _, rec := range recs {
			ids = append(ids, rec.Trade.ID)
			out.TradeIDs = append(out.TradeIDs, rec.Trade.ID.String())
		}

		n, err := trades.SetActive(r.Context(), ids, true)
		if err != nil {
			writeError(w, err, "failed to activate trades")
			return
		}
		out.Activated = n

		caller, _ := auth.GetCallerFromContext(r.Context())
		logger.WithFields(map[string]interface{}{
			"handler":   "Activate",
			"symbol":    symbol,
			"activated": n,
			"caller":    caller,
		}).Info("trades activated")
		writeJSON(w, http.StatusOK, out)
	}
}

func ExceptionsHandler(repo exceptionFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := limitParam(w, r, 50)
		if !ok {
			return
		}

		symbol := strings.ToUpper(r.URL.Query().Get("symbol"))
		excs, err := repo.FindRecent(r.Context(), symbol, limit)
		if err != nil {
			writeError(w, err, "failed to list exceptions")
			return
		}
		writeJSON(w, http.StatusOK, mapper.MapExceptions(excs))
	}
}

// limitParam reads ?limit= in 1..500, falling back to def when absent. It
// writes the 400 itself and returns false on a bad value.
func limitParam(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 || parsed > 500 {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return 0, false
	}
	return parsed, true
}

func writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, model.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.WithError(err).Error(msg)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}
