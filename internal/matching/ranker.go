package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/models"
)

var (
	ErrSearcherProfileNotFound = errors.New("searcher profile not found")
	ErrInvalidRequest          = errors.New("invalid search request")
)

const (
	DefaultPage            = 1
	DefaultLimit           = 12
	DefaultMaxLimit        = 50
	DefaultOverFetchFactor = 4
	DefaultMaxFetch        = 1000
)

// SearchRequest is the input of one ranking operation.
type SearchRequest struct {
	UserID  string      `json:"userId"`
	Filters HardFilters `json:"filters"`
	Page    int         `json:"page,omitempty"`
	Limit   int         `json:"limit,omitempty"`
}

// ScoredCandidate is one ranked result.
type ScoredCandidate struct {
	Profile      models.ProfileView `json:"profile"`
	MatchScore   int                `json:"matchScore"`
	MatchReasons []string           `json:"matchReasons"`
}

// SearchResult is one page of ranked candidates.
type SearchResult struct {
	Items   []ScoredCandidate `json:"items"`
	Page    int               `json:"page"`
	Limit   int               `json:"limit"`
	HasMore bool              `json:"hasMore"`

	// Fetched and Qualified describe the work done for this page.
	Fetched   int `json:"-"`
	Qualified int `json:"-"`
}

// RankerOptions tunes pagination and over-fetching.
type RankerOptions struct {
	Scoring         ScoringConfig
	DefaultLimit    int
	MaxLimit        int
	OverFetchFactor int
	MaxFetch        int
	Clock           func() time.Time
	Logger          logger.Logger
}

// DefaultRankerOptions returns the standard pagination settings.
func DefaultRankerOptions() RankerOptions {
	return RankerOptions{
		Scoring:         DefaultScoringConfig(),
		DefaultLimit:    DefaultLimit,
		MaxLimit:        DefaultMaxLimit,
		OverFetchFactor: DefaultOverFetchFactor,
		MaxFetch:        DefaultMaxFetch,
	}
}

// Ranker scores a candidate pool against the searcher and returns a page of
// results ordered by descending score. It holds no per-request state and is
// safe for concurrent use.
type Ranker struct {
	lookup   ProfileLookup
	provider CandidateProvider
	opts     RankerOptions
	logger   logger.Logger
}

func NewRanker(lookup ProfileLookup, provider CandidateProvider, opts RankerOptions) *Ranker {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = DefaultMaxLimit
	}
	if opts.DefaultLimit > opts.MaxLimit {
		opts.DefaultLimit = opts.MaxLimit
	}
	if opts.OverFetchFactor <= 0 {
		opts.OverFetchFactor = DefaultOverFetchFactor
	}
	if opts.MaxFetch <= 0 {
		opts.MaxFetch = DefaultMaxFetch
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Ranker{
		lookup:   lookup,
		provider: provider,
		opts:     opts,
		logger:   log,
	}
}

// Search runs one ranking operation.
func (r *Ranker) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	req, err := r.normalize(req)
	if err != nil {
		return nil, err
	}

	searcher, err := r.lookup.FindByUserID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup searcher profile: %w", err)
	}
	if searcher == nil {
		return nil, fmt.Errorf("%w: %s", ErrSearcherProfileNotFound, req.UserID)
	}

	fetchCount := r.fetchCount(req.Page, req.Limit)
	candidates, err := r.provider.FetchFiltered(ctx, req.Filters, req.UserID, fetchCount)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	cfg := r.opts.Scoring
	cfg.AsOf = r.opts.Clock()

	qualified := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.UserID == "" || c.UserID == req.UserID || c.UserID == searcher.UserID {
			continue
		}
		res := Score(*searcher, c, cfg)
		if res.Value < cfg.ScoreThreshold {
			continue
		}
		qualified = append(qualified, ScoredCandidate{
			Profile:      c.View(cfg.AsOf),
			MatchScore:   res.Value,
			MatchReasons: res.Reasons,
		})
	}

	// Equal scores keep the provider's relative order.
	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].MatchScore > qualified[j].MatchScore
	})

	// Pages past the last one are empty. The bounds are checked before any
	// multiplication so very large pages cannot overflow.
	items := []ScoredCandidate{}
	end := len(qualified)
	if pages := (len(qualified) + req.Limit - 1) / req.Limit; req.Page <= pages {
		start := (req.Page - 1) * req.Limit
		end = min(start+req.Limit, len(qualified))
		items = qualified[start:end]
	}

	// A full fetch window means the source may hold more candidates than we saw,
	// unless the window is already at MaxFetch and later pages are unreachable.
	saturated := len(candidates) >= fetchCount && fetchCount < r.opts.MaxFetch
	result := &SearchResult{
		Items:     items,
		Page:      req.Page,
		Limit:     req.Limit,
		HasMore:   len(qualified) > end || saturated,
		Fetched:   len(candidates),
		Qualified: len(qualified),
	}

	r.logger.Debug("ranking completed", map[string]interface{}{
		"userId":     req.UserID,
		"fetchCount": fetchCount,
		"fetched":    result.Fetched,
		"qualified":  result.Qualified,
		"returned":   len(items),
		"page":       req.Page,
		"hasMore":    result.HasMore,
	})

	return result, nil
}

// Options returns the effective ranker options.
func (r *Ranker) Options() RankerOptions {
	return r.opts
}

func (r *Ranker) normalize(req SearchRequest) (SearchRequest, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.Filters.Gender = strings.TrimSpace(req.Filters.Gender)
	req.Filters.Religion = strings.TrimSpace(req.Filters.Religion)

	if req.UserID == "" {
		return req, fmt.Errorf("%w: userId is required", ErrInvalidRequest)
	}
	if req.Page == 0 {
		req.Page = DefaultPage
	}
	if req.Limit == 0 {
		req.Limit = r.opts.DefaultLimit
	}
	if req.Page < 1 {
		return req, fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidRequest, req.Page)
	}
	if req.Limit < 1 || req.Limit > r.opts.MaxLimit {
		return req, fmt.Errorf("%w: limit must be within [1,%d], got %d", ErrInvalidRequest, r.opts.MaxLimit, req.Limit)
	}

	f := req.Filters
	if f.MinAge != nil && *f.MinAge < 0 {
		return req, fmt.Errorf("%w: minAge must not be negative", ErrInvalidRequest)
	}
	if f.MaxAge != nil && *f.MaxAge < 0 {
		return req, fmt.Errorf("%w: maxAge must not be negative", ErrInvalidRequest)
	}
	if f.MinAge != nil && f.MaxAge != nil && *f.MinAge > *f.MaxAge {
		return req, fmt.Errorf("%w: minAge (%d) > maxAge (%d)", ErrInvalidRequest, *f.MinAge, *f.MaxAge)
	}
	return req, nil
}

func (r *Ranker) fetchCount(page, limit int) int {
	n := r.opts.MaxFetch
	if perPage := limit * r.opts.OverFetchFactor; page <= r.opts.MaxFetch/perPage {
		n = page * perPage
	}
	if n < limit {
		n = limit
	}
	return n
}
