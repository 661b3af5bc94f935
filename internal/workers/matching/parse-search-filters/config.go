// internal/workers/matching/parse-search-filters/config.go
package parsesearchfilters

import (
	"time"

	"matchmaking-workers/internal/matching"
)

type Config struct {
	DefaultLimit int
	MaxLimit     int
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		DefaultLimit: matching.DefaultLimit,
		MaxLimit:     matching.DefaultMaxLimit,
		Timeout:      5 * time.Second,
	}
}
