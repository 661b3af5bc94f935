package matching

import (
	"context"

	"matchmaking-workers/internal/models"
)

// HardFilters are inclusion criteria the candidate source applies before
// any scoring happens. Nil pointers and empty strings mean "no filter".
type HardFilters struct {
	Gender   string `json:"gender,omitempty"`
	MinAge   *int   `json:"minAge,omitempty"`
	MaxAge   *int   `json:"maxAge,omitempty"`
	Religion string `json:"religion,omitempty"`
}

// ProfileLookup resolves a member's own profile. A nil profile with a nil
// error means the member has not completed a profile yet.
type ProfileLookup interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
}

// CandidateProvider returns profiles satisfying the hard filters, excluding
// excludeID, up to limit items in no particular order. No matches is an
// empty slice, never an error.
type CandidateProvider interface {
	FetchFiltered(ctx context.Context, filters HardFilters, excludeID string, limit int) ([]models.Profile, error)
}
