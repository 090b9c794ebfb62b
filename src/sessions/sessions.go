// Package sessions labels timestamps with the FX market session they fall
// in, using New York wall-clock hours.
package sessions

import (
	"time"
	_ "time/tzdata"
)

type Session string

const (
	WeekendHoliday Session = "weekend_holiday"
	DeadZone       Session = "dead_zone"
	Asia           Session = "asia_session"
	London         Session = "london_session"
	US             Session = "us_session"
	NoTrade        Session = "no_trade"

	daysPerWeek = 7
)

var newYork = loadNewYork()

func loadNewYork() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}

// At returns the session of t. The weekly close, from Friday 09:00 until
// Sunday 03:00 New York time, and US holidays are reported as NoTrade.
func At(t time.Time) Session {
	ny := t.In(newYork)
	if IsNoTradeWindow(ny) {
		return NoTrade
	}
	return detect(ny)
}

// IsNoTradeWindow reports whether t, in New York time, falls between the end
// of Friday's London session and the start of Sunday's.
func IsNoTradeWindow(t time.Time) bool {
	ny := t.In(newYork)
	h := ny.Hour()
	switch ny.Weekday() {
	case time.Friday:
		return h >= 9 || IsHoliday(ny)
	case time.Saturday:
		return true
	case time.Sunday:
		return h < 3
	default:
		return IsHoliday(ny)
	}
}

func detect(ny time.Time) Session {
	h := ny.Hour()
	switch {
	case ny.Weekday() == time.Sunday && h >= 3 && h < 9:
		return London
	case ny.Weekday() == time.Saturday || ny.Weekday() == time.Sunday:
		return WeekendHoliday
	case h >= 17 && h < 20:
		return DeadZone
	case h >= 20 || h < 3:
		return Asia
	case h < 9:
		return London
	default:
		return US
	}
}

// IsHoliday reports whether the calendar date of t is a US market holiday.
// Holidays falling on a Sunday move to the Monday after.
func IsHoliday(t time.Time) bool {
	year := t.Year()
	observed := func(d time.Time) time.Time {
		if d.Weekday() == time.Sunday {
			return d.AddDate(0, 0, 1)
		}
		return d
	}

	memorial := time.Date(year, time.May, 31, 0, 0, 0, 0, time.UTC)
	for memorial.Weekday() != time.Monday {
		memorial = memorial.AddDate(0, 0, -1)
	}

	holidays := []time.Time{
		observed(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)),
		nthWeekday(year, time.January, time.Monday, 3),
		nthWeekday(year, time.February, time.Monday, 3),
		memorial,
		observed(time.Date(year, time.July, 4, 0, 0, 0, 0, time.UTC)),
		nthWeekday(year, time.September, time.Monday, 1),
		nthWeekday(year, time.November, time.Thursday, 4),
		observed(time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC)),
	}
	for _, d := range holidays {
		if d.Month() == t.Month() && d.Day() == t.Day() {
			return true
		}
	}
	return false
}

// nthWeekday returns the n-th (1 based) weekday of month.
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := int(weekday-first.Weekday()+daysPerWeek) % daysPerWeek
	return first.AddDate(0, 0, offset+(n-1)*daysPerWeek)
}
