package executors

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"tradesim/src/model"
)

type Config struct {
	Symbols    []string `envconfig:"SIM_SYMBOLS" default:"EURUSD"`
	TimeFrames []string `envconfig:"SIM_TIMEFRAMES" default:"M15"`
	OrderTypes []string `envconfig:"SIM_ORDER_TYPES" default:"BUY,SELL"`
	Simulator  bool     `envconfig:"SIM_SIMULATOR" default:"true"`

	ChannelBuffer int `envconfig:"PIPELINE_CHANNEL_BUFFER" default:"256"`

	// robfig/cron schedule, seconds field included
	SweepSchedule  string        `envconfig:"SWEEP_SCHEDULE" default:"0 0 * * * *"`
	SweepTimeout   time.Duration `envconfig:"SWEEP_TIMEOUT" default:"5m"`
	CloseAfterDays int           `envconfig:"CLOSE_AFTER_DAYS" default:"7"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

func (c Config) parseTimeFrames() ([]model.TimeFrame, error) {
	if len(c.TimeFrames) == 0 {
		return nil, &model.ValidationError{Field: "timeframes", Reason: "at least one timeframe is required"}
	}
	out := make([]model.TimeFrame, 0, len(c.TimeFrames))
	seen := make(map[model.TimeFrame]bool)
	for _, raw := range c.TimeFrames {
		tf, err := model.ParseTimeFrame(raw)
		if err != nil {
			return nil, err
		}
		if !seen[tf] {
			seen[tf] = true
			out = append(out, tf)
		}
	}
	return out, nil
}

func (c Config) parseOrderTypes() ([]model.OrderType, error) {
	if len(c.OrderTypes) == 0 {
		return nil, &model.ValidationError{Field: "order types", Reason: "at least one order type is required"}
	}
	out := make([]model.OrderType, 0, len(c.OrderTypes))
	for _, raw := range c.OrderTypes {
		ot, err := model.ParseOrderType(strings.ToUpper(strings.TrimSpace(raw)))
		if err != nil {
			return nil, err
		}
		out = append(out, ot)
	}
	return out, nil
}
