package internal

import (
	"fmt"
	"time"
)

type Config struct {
	BufferSize        int           `env:"BUFFER_SIZE,required=true"`
	CharReplacement   string        `env:"CHARACTER_REPLACEMENT,required=true"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,required=true"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,required=true"`
	TickInterval      time.Duration `env:"TICK_INTERVAL,required=true"`
	SentDelay         time.Duration `env:"SENT_DELAY,required=true"`
	DeliveredDelay    time.Duration `env:"DELIVERED_DELAY,required=true"`
	ReadDelay         time.Duration `env:"READ_DELAY,required=true"`
	TelemetryInterval time.Duration `env:"TELEMETRY_INTERVAL,required=true"`

	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`
	SearchLimit       int           `env:"SEARCH_LIMIT,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
