package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"matchmaking-workers/internal/common/camunda"
	"matchmaking-workers/internal/common/config"
	"matchmaking-workers/internal/common/database"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/matching"
	"matchmaking-workers/internal/profilestore"
)

var storeRetry = &camunda.RetryConfig{
	MaxRetries: 15,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

// backends holds the store connections the configuration asks for. Postgres
// is always present; Elasticsearch and Redis are optional.
type backends struct {
	pg    *database.PostgresClient
	es    *database.ElasticsearchClient
	redis *database.RedisClient
}

func (b *backends) dependencies() []database.Dependency {
	deps := []database.Dependency{b.pg}
	if b.es != nil {
		deps = append(deps, b.es)
	}
	if b.redis != nil {
		deps = append(deps, b.redis)
	}
	return deps
}

func (b *backends) postgresStore(log logger.Logger) *profilestore.PostgresStore {
	return profilestore.NewPostgresStore(b.pg.DB, log)
}

func connectBackends(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backends, error) {
	b := &backends{}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}
	if err := waitFor(ctx, "PostgreSQL connection", pg, log); err != nil {
		_ = pg.Close()
		return nil, err
	}
	b.pg = pg

	if cfg.Matching.CandidateSource == config.CandidateSourceElasticsearch {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err == nil {
			err = waitFor(ctx, "Elasticsearch connection", es, log)
			if err != nil {
				_ = es.Close()
			}
		}
		if err != nil {
			_ = database.CloseAll(b.dependencies()...)
			return nil, err
		}
		b.es = es
	}

	if cfg.Matching.ProfileCacheTTL > 0 {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err == nil {
			err = waitFor(ctx, "Redis connection", rdb, log)
			if err != nil {
				_ = rdb.Close()
			}
		}
		if err != nil {
			_ = database.CloseAll(b.dependencies()...)
			return nil, err
		}
		b.redis = rdb
	}
	return b, nil
}

// waitFor retries the ping until the dependency answers.
func waitFor(ctx context.Context, name string, dep database.Dependency, log *zap.Logger) error {
	err := camunda.Retry(ctx, storeRetry, name, func(ctx context.Context) error {
		err := dep.Ping(ctx)
		if err != nil {
			log.Warn(name+" failed, retrying...", zap.Error(err))
		}
		return err
	})
	if err != nil {
		return err
	}
	log.Info(name + " established")
	return nil
}

// pipeline is the read path shared by the matching workers.
type pipeline struct {
	lookup   matching.ProfileLookup
	provider matching.CandidateProvider
}

// buildPipeline wires the profile lookup (optionally cached in redis) and the
// candidate source (postgres or the search index) behind a circuit breaker.
func buildPipeline(cfg *config.Config, b *backends, log logger.Logger) (*pipeline, error) {
	if b == nil || b.pg == nil {
		return nil, fmt.Errorf("postgres connection is required")
	}
	store := b.postgresStore(log)

	var source matching.CandidateProvider
	switch cfg.Matching.CandidateSource {
	case config.CandidateSourcePostgres, "":
		source = store
	case config.CandidateSourceElasticsearch:
		if b.es == nil {
			return nil, fmt.Errorf("candidate source %q needs an elasticsearch connection", config.CandidateSourceElasticsearch)
		}
		source = profilestore.NewElasticsearchStore(b.es.Client, cfg.Database.Elasticsearch.ProfileIndex, log)
	default:
		return nil, fmt.Errorf("unknown candidate source %q", cfg.Matching.CandidateSource)
	}

	bc := cfg.Matching.Breaker
	provider := profilestore.NewBreakerProvider(source, profilestore.BreakerSettings{
		Name:             "candidates-" + sourceName(cfg.Matching.CandidateSource),
		MaxRequests:      bc.MaxRequests,
		Interval:         config.GetDuration(bc.Interval),
		Timeout:          config.GetDuration(bc.Timeout),
		FailureThreshold: bc.FailureThreshold,
	}, log)

	var lookup matching.ProfileLookup = store
	if cfg.Matching.ProfileCacheTTL > 0 {
		if b.redis == nil {
			return nil, fmt.Errorf("profile cache needs a redis connection")
		}
		ttl := time.Duration(cfg.Matching.ProfileCacheTTL) * time.Second
		lookup = profilestore.NewCachedLookup(store, b.redis.Client, ttl, log)
	}

	return &pipeline{lookup: lookup, provider: provider}, nil
}

func sourceName(s string) string {
	if s == "" {
		return config.CandidateSourcePostgres
	}
	return s
}
