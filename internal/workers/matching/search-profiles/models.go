// internal/workers/matching/search-profiles/models.go
package searchprofiles

import "matchmaking-workers/internal/matching"

type Input struct {
	UserID   string `json:"userId"`
	Gender   string `json:"gender,omitempty"`
	MinAge   *int   `json:"minAge,omitempty"`
	MaxAge   *int   `json:"maxAge,omitempty"`
	Religion string `json:"religion,omitempty"`
	Page     int    `json:"page,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type Output struct {
	Items   []matching.ScoredCandidate `json:"items"`
	Page    int                        `json:"page"`
	Limit   int                        `json:"limit"`
	HasMore bool                       `json:"hasMore"`
}

func (in *Input) toSearchRequest() matching.SearchRequest {
	return matching.SearchRequest{
		UserID: in.UserID,
		Filters: matching.HardFilters{
			Gender:   in.Gender,
			MinAge:   in.MinAge,
			MaxAge:   in.MaxAge,
			Religion: in.Religion,
		},
		Page:  in.Page,
		Limit: in.Limit,
	}
}
