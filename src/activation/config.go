package activation

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Trades need strictly more OPEN orders than this to be scored.
	MinOpenOrders int `envconfig:"ACTIVATION_MIN_OPEN_ORDERS" default:"2"`
	// Win rate, in whole percent, under which a profitable trade is recommended.
	WinRateCutoff int64 `envconfig:"ACTIVATION_WIN_RATE_CUTOFF" default:"66"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
