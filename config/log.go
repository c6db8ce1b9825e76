package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

func zerologLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	l, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level %q", s)
	}

	return l, nil
}

// Level returns the configured log level, info when unset or unknown.
func (c Config) Level() zerolog.Level {
	l, err := zerologLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}

	return l
}
