package profilestore

import (
	"context"
	stderrors "errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	apperrors "matchmaking-workers/internal/common/errors"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/matching"
	"matchmaking-workers/internal/models"
)

// BreakerSettings configures BreakerProvider.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// BreakerProvider guards a CandidateProvider with a circuit breaker. While
// open, calls fail fast with CANDIDATE_SOURCE_UNAVAILABLE.
type BreakerProvider struct {
	next    matching.CandidateProvider
	name    string
	breaker *gobreaker.CircuitBreaker[[]models.Profile]
}

func NewBreakerProvider(next matching.CandidateProvider, s BreakerSettings, log logger.Logger) *BreakerProvider {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}

	cb := gobreaker.NewCircuitBreaker[[]models.Profile](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		// A caller giving up is not a fault of the source.
		IsSuccessful: func(err error) bool {
			return err == nil || stderrors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("candidate source breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	return &BreakerProvider{next: next, name: s.Name, breaker: cb}
}

func (b *BreakerProvider) FetchFiltered(ctx context.Context, filters matching.HardFilters, excludeID string, limit int) ([]models.Profile, error) {
	profiles, err := b.breaker.Execute(func() ([]models.Profile, error) {
		return b.next.FetchFiltered(ctx, filters, excludeID, limit)
	})
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, apperrors.NewSourceUnavailableError(b.name, err)
	}
	return profiles, err
}

// State reports the breaker state, for health endpoints and tests.
func (b *BreakerProvider) State() gobreaker.State {
	return b.breaker.State()
}
