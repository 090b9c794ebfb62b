package model

import "strings"

type TimeFrame string

const (
	TimeFrameM1  TimeFrame = "M1"
	TimeFrameM5  TimeFrame = "M5"
	TimeFrameM15 TimeFrame = "M15"
	TimeFrameM30 TimeFrame = "M30"
	TimeFrameH1  TimeFrame = "H1"
	TimeFrameH4  TimeFrame = "H4"
	TimeFrameD1  TimeFrame = "D1"
)

var timeFrames = []TimeFrame{
	TimeFrameM1, TimeFrameM5, TimeFrameM15, TimeFrameM30, TimeFrameH1, TimeFrameH4, TimeFrameD1,
}

// ParseTimeFrame accepts the timeframe names case-insensitively.
func ParseTimeFrame(s string) (TimeFrame, error) {
	candidate := TimeFrame(strings.ToUpper(strings.TrimSpace(s)))
	for _, tf := range timeFrames {
		if tf == candidate {
			return tf, nil
		}
	}
	return "", &ValidationError{Field: "timeframe", Reason: "unknown timeframe " + s}
}

// Scope identifies the (symbol, timeframe) pair a trade operates on. It is a
// value: trades embed their own copy, so removing a trade removes its scope.
type Scope struct {
	SymbolName string    `gorm:"size:6;not null;index:idx_trades_scope,priority:1" json:"symbol_name"`
	TimeFrame  TimeFrame `gorm:"size:4;not null;index:idx_trades_scope,priority:2" json:"time_frame"`
}

func (s Scope) String() string {
	return s.SymbolName + "/" + string(s.TimeFrame)
}
