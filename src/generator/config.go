package generator

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kelseyhightower/envconfig"

	"tradesim/src/model"
)

// Bands are the candidate values for one timeframe, all in pips.
type Bands struct {
	Spreads     []int `json:"spread"`
	TakeProfits []int `json:"tp"`
	StopLosses  []int `json:"sl"`
}

// TradeConfig maps a timeframe to its candidate bands. It decodes from JSON of
// the form {"M15":{"spread":[..],"tp":[..],"sl":[..]}}.
type TradeConfig map[model.TimeFrame]Bands

// Decode implements envconfig.Decoder.
func (c *TradeConfig) Decode(value string) error {
	raw := map[string]Bands{}
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		return &model.ValidationError{Field: "trade config", Reason: err.Error()}
	}
	out := make(TradeConfig, len(raw))
	for key, bands := range raw {
		tf, err := model.ParseTimeFrame(key)
		if err != nil {
			return err
		}
		out[tf] = bands
	}
	*c = out
	return nil
}

// Validate rejects an empty config, any timeframe with an empty candidate list
// and candidates no trade could carry: negative spreads or stop losses and
// take profits below one pip.
func (c TradeConfig) Validate() error {
	if len(c) == 0 {
		return &model.ValidationError{Field: "trade config", Reason: "no timeframe configured"}
	}
	for _, tf := range c.TimeFrames() {
		b := c[tf]
		switch {
		case len(b.Spreads) == 0:
			return &model.ValidationError{Field: "trade config " + string(tf), Reason: "spread list is empty"}
		case len(b.TakeProfits) == 0:
			return &model.ValidationError{Field: "trade config " + string(tf), Reason: "take profit list is empty"}
		case len(b.StopLosses) == 0:
			return &model.ValidationError{Field: "trade config " + string(tf), Reason: "stop loss list is empty"}
		}
		if err := checkBand(tf, "spread", b.Spreads, 0); err != nil {
			return err
		}
		if err := checkBand(tf, "take profit", b.TakeProfits, 1); err != nil {
			return err
		}
		if err := checkBand(tf, "stop loss", b.StopLosses, 0); err != nil {
			return err
		}
	}
	return nil
}

func checkBand(tf model.TimeFrame, name string, values []int, min int) error {
	for _, v := range values {
		if v < min {
			return &model.ValidationError{
				Field:  "trade config " + string(tf),
				Reason: fmt.Sprintf("%s %d below %d", name, v, min),
			}
		}
	}
	return nil
}

// TimeFrames returns the configured timeframes in a stable order.
func (c TradeConfig) TimeFrames() []model.TimeFrame {
	out := make([]model.TimeFrame, 0, len(c))
	for tf := range c {
		out = append(out, tf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type Config struct {
	SlotMinutes int         `envconfig:"TRADE_SLOT_MINUTES" default:"15"`
	Trades      TradeConfig `envconfig:"TRADE_SLOT_CONFIG" default:"{\"M15\":{\"spread\":[0,1,2],\"tp\":[10,20,30],\"sl\":[5,10,20]}}"`
	BatchSize   int         `envconfig:"TRADE_BATCH_SIZE" default:"500"`
	Parallelism int         `envconfig:"TRADE_GENERATION_PARALLELISM" default:"4"`
	Weekdays    []string    `envconfig:"TRADE_WEEKDAYS" default:"MON,TUE,WED,THU,FRI"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
