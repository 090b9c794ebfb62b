package generate

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Symbols    []string `envconfig:"SIM_SYMBOLS" default:"EURUSD"`
	TimeFrames []string `envconfig:"SIM_TIMEFRAMES" default:"M15"`
	// Replace deletes the existing trades of each scope first.
	Replace bool `envconfig:"GENERATE_REPLACE" default:"false"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
