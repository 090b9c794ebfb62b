// Package slots splits the trading day into contiguous intraday windows.
package slots

import (
	"fmt"

	"tradesim/src/model"
)

const (
	DefaultWidthMinutes = 15
	minutesPerDay       = 24 * 60
)

// Partition splits the day into consecutive slots of widthMinutes. Each slot
// ends one second before the next one starts and the last slot ends at
// 23:59:59, so every second of the day belongs to exactly one slot.
func Partition(widthMinutes int) ([]model.TimeSlot, error) {
	if widthMinutes <= 0 {
		return nil, &model.ValidationError{Field: "slot width", Reason: fmt.Sprintf("%d minutes is not positive", widthMinutes)}
	}
	if minutesPerDay%widthMinutes != 0 {
		return nil, &model.ValidationError{Field: "slot width", Reason: fmt.Sprintf("%d minutes does not divide a day", widthMinutes)}
	}

	width := model.TimeOfDay(widthMinutes * 60)
	out := make([]model.TimeSlot, 0, minutesPerDay/widthMinutes)
	for start := model.TimeOfDay(0); start < model.SecondsPerDay; start += width {
		out = append(out, model.TimeSlot{Start: start, End: start + width - 1})
	}
	return out, nil
}

// Contains reports whether tod falls in slot, both bounds included.
func Contains(slot model.TimeSlot, tod model.TimeOfDay) bool {
	return slot.Contains(tod)
}

// Find returns the slot holding tod.
func Find(slots []model.TimeSlot, tod model.TimeOfDay) (model.TimeSlot, bool) {
	for _, s := range slots {
		if s.Contains(tod) {
			return s, true
		}
	}
	return model.TimeSlot{}, false
}
