// internal/workers/matching/parse-search-filters/models.go
package parsesearchfilters

type Input struct {
	RawFilters map[string]interface{} `json:"rawFilters"`
}

// Output is shaped like the search-profiles input so the process can pass it
// straight through.
type Output struct {
	Gender   string `json:"gender,omitempty"`
	MinAge   *int   `json:"minAge,omitempty"`
	MaxAge   *int   `json:"maxAge,omitempty"`
	Religion string `json:"religion,omitempty"`
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
}
