// internal/workers/communication/send-match-digest/config.go
package sendmatchdigest

import "time"

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	// HighScoreSMS is the best match score that also triggers an SMS.
	HighScoreSMS int
	DigestSize   int
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		EmailEnabled: true,
		HighScoreSMS: 90,
		DigestSize:   5,
		Timeout:      30 * time.Second,
	}
}
