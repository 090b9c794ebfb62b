package ingest

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Feed is "csv" or "websocket".
	Feed string `envconfig:"INGEST_FEED" default:"csv"`
	File string `envconfig:"INGEST_FILE" default:"ticks.csv"`

	WebsocketURL string `envconfig:"INGEST_WS_URL" default:""`
	// JSON message sent after connecting, e.g. {"subscribe":["EURUSD"]}
	WebsocketSubscribe string `envconfig:"INGEST_WS_SUBSCRIBE" default:""`

	Serve bool `envconfig:"INGEST_SERVE" default:"true"`
	Sweep bool `envconfig:"INGEST_SWEEP" default:"false"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
