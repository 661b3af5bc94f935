// internal/workers/matching/calculate-compatibility/config.go
package calculatecompatibility

import (
	"time"

	"matchmaking-workers/internal/matching"
)

type Config struct {
	Scoring matching.ScoringConfig
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Scoring: matching.DefaultScoringConfig(),
		Timeout: 10 * time.Second,
	}
}
