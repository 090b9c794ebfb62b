package generator

import (
	"iter"
	"time"

	"tradesim/src/model"
)

// Weekdays are the trading days trades are generated for.
var Weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// Combination is one candidate trade of a scope.
type Combination struct {
	Spread     int
	TakeProfit int
	StopLoss   int
	Week       time.Weekday
	Slot       model.TimeSlot
}

// Combinations lazily yields every (spread, tp, sl, weekday, slot) tuple of
// the cartesian product that satisfies sl <= tp and sl > spread. Invalid
// tuples are dropped before the weekday and slot expansion.
func Combinations(bands Bands, weekdays []time.Weekday, slots []model.TimeSlot) iter.Seq[Combination] {
	return func(yield func(Combination) bool) {
		for _, spread := range bands.Spreads {
			for _, tp := range bands.TakeProfits {
				for _, sl := range bands.StopLosses {
					if sl > tp || sl <= spread {
						continue
					}
					for _, week := range weekdays {
						for _, slot := range slots {
							c := Combination{Spread: spread, TakeProfit: tp, StopLoss: sl, Week: week, Slot: slot}
							if !yield(c) {
								return
							}
						}
					}
				}
			}
		}
	}
}

// Trade builds the inactive trade described by c for scope.
func (c Combination) Trade(scope model.Scope) (model.Trade, error) {
	return model.NewTrade(scope, c.Spread, c.TakeProfit, c.StopLoss, c.Week, c.Slot)
}
