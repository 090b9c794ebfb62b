package utils

import (
	"fmt"
	"strings"
	"time"

	"tradesim/src/model"
)

var weekdayNames = map[string]time.Weekday{
	"SUN": time.Sunday, "SUNDAY": time.Sunday,
	"MON": time.Monday, "MONDAY": time.Monday,
	"TUE": time.Tuesday, "TUESDAY": time.Tuesday,
	"WED": time.Wednesday, "WEDNESDAY": time.Wednesday,
	"THU": time.Thursday, "THURSDAY": time.Thursday,
	"FRI": time.Friday, "FRIDAY": time.Friday,
	"SAT": time.Saturday, "SATURDAY": time.Saturday,
}

// ParseWeekdays accepts short or long English day names in any case. The
// result keeps the input order without duplicates.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(names))
	seen := make(map[time.Weekday]bool, len(names))
	for _, name := range names {
		day, ok := weekdayNames[strings.ToUpper(strings.TrimSpace(name))]
		if !ok {
			return nil, &model.ValidationError{Field: "weekday", Reason: fmt.Sprintf("unknown weekday %q", name)}
		}
		if !seen[day] {
			seen[day] = true
			out = append(out, day)
		}
	}
	if len(out) == 0 {
		return nil, &model.ValidationError{Field: "weekday", Reason: "at least one weekday is required"}
	}
	return out, nil
}
