package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BufferSize  int           `envconfig:"E2E_BUFFER_SIZE" default:"256"`
	SinkTimeout time.Duration `envconfig:"E2E_SINK_TIMEOUT" default:"500ms"`
	// E2E_WAIT bounds the polls on asynchronous projections
	Wait              time.Duration `envconfig:"E2E_WAIT" default:"2s"`
	RestartInterval   time.Duration `envconfig:"E2E_RESTART_INTERVAL" default:"200ms"`
	AuthTokenDuration time.Duration `envconfig:"E2E_AUTH_TOKEN_DURATION" default:"24h"`
	CensorReplacement string        `envconfig:"E2E_CENSOR_REPLACEMENT" default:"*"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
