package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"matchmaking-workers/internal/matching"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and lets environment variables override any key.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finalize(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return finalize(v)
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = os.Getenv("DB_USER")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("DB_PASSWORD")
	}
	if cfg.Database.Redis.Password == "" {
		cfg.Database.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = os.Getenv("AWS_REGION")
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.RegistryPath == "" {
		cfg.App.RegistryPath = "configs/activity-registry.json"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if cfg.Database.Elasticsearch.ProfileIndex == "" {
		cfg.Database.Elasticsearch.ProfileIndex = "profiles"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = ":9090"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	applyMatchingDefaults(&cfg.Matching)

	if cfg.Notifications.SMS.HighScoreSMS == 0 {
		cfg.Notifications.SMS.HighScoreSMS = 90
	}
	if cfg.Notifications.DigestSize == 0 {
		cfg.Notifications.DigestSize = 5
	}
}

// applyMatchingDefaults fills only keys that were absent. A threshold of 0 is
// indistinguishable from "unset" in YAML, so it always falls back to the default.
func applyMatchingDefaults(m *MatchingConfig) {
	if m.ScoreThreshold == 0 {
		m.ScoreThreshold = matching.DefaultScoreThreshold
	}
	if m.ReasonThresholdMode == "" {
		m.ReasonThresholdMode = string(matching.ReasonThresholdCumulative)
	}
	if m.LifestyleReasonThreshold == 0 {
		m.LifestyleReasonThreshold = matching.DefaultLifestyleReasonThreshold
	}
	if m.LocalLifestyleReasonThreshold == 0 {
		m.LocalLifestyleReasonThreshold = matching.DefaultLocalLifestyleReasonThreshold
	}
	if m.Weights == (matching.Weights{}) {
		m.Weights = matching.DefaultWeights()
	}
	if m.DefaultLimit == 0 {
		m.DefaultLimit = matching.DefaultLimit
	}
	if m.MaxLimit == 0 {
		m.MaxLimit = matching.DefaultMaxLimit
	}
	if m.OverFetchFactor == 0 {
		m.OverFetchFactor = matching.DefaultOverFetchFactor
	}
	if m.MaxFetch == 0 {
		m.MaxFetch = matching.DefaultMaxFetch
	}
	if m.CandidateSource == "" {
		m.CandidateSource = CandidateSourcePostgres
	}
	if m.Breaker.MaxRequests == 0 {
		m.Breaker.MaxRequests = 1
	}
	if m.Breaker.Interval == 0 {
		m.Breaker.Interval = 60000
	}
	if m.Breaker.Timeout == 0 {
		m.Breaker.Timeout = 30000
	}
	if m.Breaker.FailureThreshold == 0 {
		m.Breaker.FailureThreshold = 5
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	switch cfg.Matching.CandidateSource {
	case CandidateSourcePostgres:
	case CandidateSourceElasticsearch:
		if cfg.Database.Elasticsearch.GetURL() == "" {
			return fmt.Errorf("database.elasticsearch.addresses or url is required for candidate_source %q", CandidateSourceElasticsearch)
		}
	default:
		return fmt.Errorf("matching.candidate_source must be %q or %q, got %q",
			CandidateSourcePostgres, CandidateSourceElasticsearch, cfg.Matching.CandidateSource)
	}

	if cfg.Matching.ProfileCacheTTL > 0 && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when matching.profile_cache_ttl is set")
	}
	if cfg.Matching.DefaultLimit > cfg.Matching.MaxLimit {
		return fmt.Errorf("matching.default_limit (%d) exceeds matching.max_limit (%d)",
			cfg.Matching.DefaultLimit, cfg.Matching.MaxLimit)
	}
	if err := cfg.Matching.ToScoringConfig().Validate(); err != nil {
		return fmt.Errorf("matching: %w", err)
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
