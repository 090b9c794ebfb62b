// Package matcher selects the active trades allowed to open a position on a tick.
package matcher

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"tradesim/src/model"
)

// TradeFinder narrows the candidate trades of a scope. Implementations may
// over-approximate; the matcher re-checks every candidate.
type TradeFinder interface {
	FindByMatchCriteria(ctx context.Context, scope model.Scope, spread decimal.Decimal, week time.Weekday, tod model.TimeOfDay) ([]model.Trade, error)
}

type Matcher struct {
	finder TradeFinder
}

func NewMatcher(finder TradeFinder) *Matcher {
	return &Matcher{finder: finder}
}

// Match returns every active trade of scope whose spread limit, weekday and
// slot accept tick. No match is an empty result, not an error.
func (m *Matcher) Match(ctx context.Context, scope model.Scope, tick model.Tick, digits int) ([]model.Trade, error) {
	if scope.SymbolName != tick.SymbolName {
		return nil, &model.ValidationError{
			Field:  "scope",
			Reason: fmt.Sprintf("tick symbol %s does not belong to scope %s", tick.SymbolName, scope),
		}
	}

	spread := tick.SpreadPips(digits)
	candidates, err := m.finder.FindByMatchCriteria(ctx, scope, spread, tick.Weekday(), tick.TimeOfDay())
	if err != nil {
		return nil, fmt.Errorf("find trades for %s: %w", scope, err)
	}

	out := make([]model.Trade, 0, len(candidates))
	for _, trade := range candidates {
		if trade.Scope == scope && trade.AcceptsTick(tick, digits) {
			out = append(out, trade)
		}
	}

	logger.WithFields(map[string]interface{}{
		"op":         "Match",
		"scope":      scope.String(),
		"spread":     spread.String(),
		"candidates": len(candidates),
		"matched":    len(out),
	}).Debug("trades matched")

	return out, nil
}
