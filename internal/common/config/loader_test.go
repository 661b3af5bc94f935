package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchmaking-workers/internal/matching"
)

const minimalYAML = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: matrimony
    user: ${TEST_DB_USER}
workers:
  search-profiles:
    enabled: true
  send-match-digest:
    enabled: false
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	t.Setenv("TEST_DB_USER", "matcher")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "matcher", cfg.Database.Postgres.User)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "profiles", cfg.Database.Elasticsearch.ProfileIndex)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":9090", cfg.Metrics.ListenAddr)

	m := cfg.Matching
	assert.Equal(t, matching.DefaultScoreThreshold, m.ScoreThreshold)
	assert.Equal(t, string(matching.ReasonThresholdCumulative), m.ReasonThresholdMode)
	assert.Equal(t, matching.DefaultWeights(), m.Weights)
	assert.Equal(t, matching.DefaultLimit, m.DefaultLimit)
	assert.Equal(t, matching.DefaultMaxLimit, m.MaxLimit)
	assert.Equal(t, CandidateSourcePostgres, m.CandidateSource)
	assert.Equal(t, uint32(5), m.Breaker.FailureThreshold)

	assert.Equal(t, 90, cfg.Notifications.SMS.HighScoreSMS)
	assert.Equal(t, 5, cfg.Notifications.DigestSize)

	assert.True(t, IsWorkerEnabled(cfg, "search-profiles"))
	assert.False(t, IsWorkerEnabled(cfg, "send-match-digest"))
	assert.True(t, IsWorkerEnabled(cfg, "calculate-compatibility"))
	assert.Equal(t, 5, GetWorkerConfig(cfg, "search-profiles").MaxJobsActive)
}

func TestLoadFromFile_MatchingOverrides(t *testing.T) {
	t.Setenv("TEST_DB_USER", "matcher")

	body := `
camunda:
  broker_address: localhost:26500
matching:
  score_threshold: 60
  reason_threshold_mode: local
  weights:
    age_perfect: 30
    religion: 20
  candidate_source: elasticsearch
database:
  postgres:
    host: localhost
    database: matrimony
    user: matcher
  elasticsearch:
    addresses: ["http://es:9200"]
`
	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)

	sc := cfg.Matching.ToScoringConfig()
	assert.Equal(t, 60, sc.ScoreThreshold)
	assert.Equal(t, matching.ReasonThresholdLocal, sc.ReasonThresholdMode)
	assert.Equal(t, 30, sc.Weights.AgePerfect)
	assert.Equal(t, 20, sc.Weights.Religion)
	assert.Equal(t, 0, sc.Weights.Diet, "partial weight sections replace the defaults as a whole")
	assert.Equal(t, "http://es:9200", cfg.Database.Elasticsearch.URL)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing broker",
			body:    "database:\n  postgres:\n    host: h\n    database: d\n    user: u\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name:    "unknown candidate source",
			body:    minimalYAML + "matching:\n  candidate_source: mongo\n",
			wantErr: "matching.candidate_source",
		},
		{
			name:    "elasticsearch source without address",
			body:    minimalYAML + "matching:\n  candidate_source: elasticsearch\n",
			wantErr: "database.elasticsearch.addresses or url is required",
		},
		{
			name:    "cache without redis",
			body:    minimalYAML + "matching:\n  profile_cache_ttl: 60\n",
			wantErr: "database.redis.address is required",
		},
		{
			name:    "threshold out of range",
			body:    minimalYAML + "matching:\n  score_threshold: 150\n",
			wantErr: "score threshold must be within",
		},
		{
			name:    "bad reason mode",
			body:    minimalYAML + "matching:\n  reason_threshold_mode: global\n",
			wantErr: "unknown reason threshold mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DB_USER", "matcher")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, "1.5s", GetDuration(1500).String())
}
