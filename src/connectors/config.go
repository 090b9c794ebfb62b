package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ReferenceBaseURL string        `envconfig:"REFERENCE_BASE_URL" default:"http://localhost:8081"`
	ReferenceAPIKey  string        `envconfig:"REFERENCE_API_KEY" default:""`
	ReferenceTimeout time.Duration `envconfig:"REFERENCE_TIMEOUT" default:"15s"`
	ReferenceRetries int           `envconfig:"REFERENCE_RETRY_ATTEMPTS" default:"5"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
