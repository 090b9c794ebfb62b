package sessions

import (
	"testing"
	"time"
)

func nyDate(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, newYork)
}

func TestAt(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want Session
	}{
		{name: "Asia session Tuesday 21.00 NY", at: nyDate(2025, time.March, 4, 21), want: Asia},
		{name: "Asia session Tuesday 02.00 NY", at: nyDate(2025, time.March, 4, 2), want: Asia},
		{name: "London session Tuesday 04.00 NY", at: nyDate(2025, time.March, 4, 4), want: London},
		{name: "US session Tuesday 10.00 NY", at: nyDate(2025, time.March, 4, 10), want: US},
		{name: "dead zone Tuesday 18.00 NY", at: nyDate(2025, time.March, 4, 18), want: DeadZone},
		{name: "Friday after London", at: nyDate(2025, time.March, 7, 10), want: NoTrade},
		{name: "Friday London", at: nyDate(2025, time.March, 7, 5), want: London},
		{name: "Saturday", at: nyDate(2025, time.March, 8, 12), want: NoTrade},
		{name: "Sunday before open", at: nyDate(2025, time.March, 9, 2), want: NoTrade},
		{name: "Sunday London", at: nyDate(2025, time.March, 9, 4), want: London},
		{name: "Sunday evening", at: nyDate(2025, time.March, 9, 21), want: WeekendHoliday},
		{name: "Independence Day", at: nyDate(2025, time.July, 4, 5), want: NoTrade},
		{name: "Thanksgiving", at: nyDate(2025, time.November, 27, 11), want: NoTrade},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := At(tt.at); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAt_ConvertsFromUTC(t *testing.T) {
	// 14:00 UTC is 09:00 in New York during EST
	at := time.Date(2025, time.March, 4, 14, 0, 0, 0, time.UTC)
	if got := At(at); got != US {
		t.Fatalf("expected %s, got %s", US, got)
	}
}

func TestIsHoliday(t *testing.T) {
	holidays := []time.Time{
		time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC),  // MLK
		time.Date(2025, time.February, 17, 0, 0, 0, 0, time.UTC), // Presidents
		time.Date(2025, time.May, 26, 0, 0, 0, 0, time.UTC),      // Memorial
		time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), // Labor
		time.Date(2022, time.December, 26, 0, 0, 0, 0, time.UTC), // Christmas on Sunday
	}
	for _, d := range holidays {
		if !IsHoliday(d) {
			t.Fatalf("expected %s to be a holiday", d.Format("2006-01-02"))
		}
	}
	if IsHoliday(time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected 2025-03-04 not to be a holiday")
	}
}
