package config

import (
	"fmt"

	"matchmaking-workers/internal/matching"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Matching      MatchingConfig          `mapstructure:"matching"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Metrics       MetricsConfig           `mapstructure:"metrics"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	// RegistryPath points at the activity registry checked at startup.
	RegistryPath string `mapstructure:"registry_path"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	ProfileIndex string   `mapstructure:"profile_index"`
	URL          string   `mapstructure:"url"` // single URL, overrides Addresses[0]
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// --- Matching ---

const (
	CandidateSourcePostgres      = "postgres"
	CandidateSourceElasticsearch = "elasticsearch"
)

// MatchingConfig tunes scoring, pagination and the candidate pipeline.
type MatchingConfig struct {
	ScoreThreshold                int              `mapstructure:"score_threshold"`
	ReasonThresholdMode           string           `mapstructure:"reason_threshold_mode"`
	LifestyleReasonThreshold      int              `mapstructure:"lifestyle_reason_threshold"`
	LocalLifestyleReasonThreshold int              `mapstructure:"local_lifestyle_reason_threshold"`
	Weights                       matching.Weights `mapstructure:"weights"`

	DefaultLimit    int `mapstructure:"default_limit"`
	MaxLimit        int `mapstructure:"max_limit"`
	OverFetchFactor int `mapstructure:"over_fetch_factor"`
	MaxFetch        int `mapstructure:"max_fetch"`

	CandidateSource string `mapstructure:"candidate_source"`
	ProfileCacheTTL int    `mapstructure:"profile_cache_ttl"` // seconds, 0 disables the cache

	Breaker BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig configures the circuit breaker guarding the candidate source.
type BreakerConfig struct {
	MaxRequests      uint32 `mapstructure:"max_requests"`
	Interval         int    `mapstructure:"interval"` // milliseconds
	Timeout          int    `mapstructure:"timeout"`  // milliseconds
	FailureThreshold uint32 `mapstructure:"failure_threshold"`
}

// ToScoringConfig maps the matching section onto the scorer's configuration.
func (m MatchingConfig) ToScoringConfig() matching.ScoringConfig {
	sc := matching.DefaultScoringConfig()
	if m.Weights != (matching.Weights{}) {
		sc.Weights = m.Weights
	}
	sc.ScoreThreshold = m.ScoreThreshold
	sc.ReasonThresholdMode = matching.ReasonThresholdMode(m.ReasonThresholdMode)
	sc.LifestyleReasonThreshold = m.LifestyleReasonThreshold
	sc.LocalLifestyleReasonThreshold = m.LocalLifestyleReasonThreshold
	return sc
}

// ToRankerOptions builds the ranker options. The caller attaches clock and logger.
func (m MatchingConfig) ToRankerOptions() matching.RankerOptions {
	return matching.RankerOptions{
		Scoring:         m.ToScoringConfig(),
		DefaultLimit:    m.DefaultLimit,
		MaxLimit:        m.MaxLimit,
		OverFetchFactor: m.OverFetchFactor,
		MaxFetch:        m.MaxFetch,
	}
}

// NotificationConfig holds settings for the send-match-digest worker.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled      bool `mapstructure:"enabled"`
		HighScoreSMS int  `mapstructure:"high_score_sms"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	DigestSize int `mapstructure:"digest_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}
