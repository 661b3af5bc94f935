package profilestore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/common/metrics"
	"matchmaking-workers/internal/matching"
	"matchmaking-workers/internal/models"
)

const profileCachePrefix = "matching:profile:"

// ProfileCacheKey is the redis key a member's profile is cached under.
func ProfileCacheKey(userID string) string {
	return profileCachePrefix + userID
}

// CachedLookup is a read-through Redis cache in front of a ProfileLookup.
// Redis failures are logged and the source is queried directly; missing
// profiles are never cached so a freshly completed profile is visible at once.
type CachedLookup struct {
	source matching.ProfileLookup
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedLookup(source matching.ProfileLookup, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedLookup {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &CachedLookup{
		source: source,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"store": "profile-cache"}),
	}
}

func (c *CachedLookup) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	key := ProfileCacheKey(userID)

	val, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var p models.Profile
		if jsonErr := json.Unmarshal([]byte(val), &p); jsonErr == nil {
			metrics.ProfileCacheRequests.WithLabelValues("hit").Inc()
			return &p, nil
		}
		metrics.ProfileCacheRequests.WithLabelValues("error").Inc()
		c.logger.Warn("discarding undecodable cache entry", map[string]interface{}{"key": key})
	case stderrors.Is(err, redis.Nil):
		metrics.ProfileCacheRequests.WithLabelValues("miss").Inc()
	default:
		metrics.ProfileCacheRequests.WithLabelValues("error").Inc()
		c.logger.Warn("profile cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}

	p, err := c.source.FindByUserID(ctx, userID)
	if err != nil || p == nil {
		return p, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("profile cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	return p, nil
}
