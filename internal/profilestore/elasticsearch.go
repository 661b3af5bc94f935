package profilestore

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	apperrors "matchmaking-workers/internal/common/errors"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/matching"
	"matchmaking-workers/internal/models"
)

const dateLayout = "2006-01-02"

// ElasticsearchStore serves candidates from the profile search index.
type ElasticsearchStore struct {
	client *elasticsearch.Client
	index  string
	clock  func() time.Time
	logger logger.Logger
}

func NewElasticsearchStore(client *elasticsearch.Client, index string, log logger.Logger) *ElasticsearchStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &ElasticsearchStore{
		client: client,
		index:  index,
		clock:  time.Now,
		logger: log.WithFields(map[string]interface{}{"store": "elasticsearch", "index": index}),
	}
}

func (s *ElasticsearchStore) WithClock(clock func() time.Time) *ElasticsearchStore {
	s.clock = clock
	return s
}

// profileDoc is the indexed document shape.
type profileDoc struct {
	UserID          string `json:"userId"`
	DateOfBirth     string `json:"dateOfBirth,omitempty"`
	Age             int    `json:"age,omitempty"`
	Gender          string `json:"gender,omitempty"`
	MaritalStatus   string `json:"maritalStatus,omitempty"`
	Religion        string `json:"religion,omitempty"`
	EducationLevel  string `json:"educationLevel,omitempty"`
	JobCategory     string `json:"jobCategory,omitempty"`
	Diet            string `json:"diet,omitempty"`
	Smoking         string `json:"smoking,omitempty"`
	Drinking        string `json:"drinking,omitempty"`
	Bio             string `json:"bio,omitempty"`
	Location        string `json:"location,omitempty"`
	PrimaryPhotoURL string `json:"primaryPhotoUrl,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	Completeness    int    `json:"completeness"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source profileDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchStore) FetchFiltered(ctx context.Context, filters matching.HardFilters, excludeID string, limit int) ([]models.Profile, error) {
	body, err := json.Marshal(buildCandidateSearch(filters, excludeID, limit, s.clock()))
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.NewSearchTimeoutError(s.index)
		}
		return nil, apperrors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("status %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("decode response: %w", err))
	}

	profiles := make([]models.Profile, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		p, err := hit.Source.toProfile()
		if err != nil {
			s.logger.Debug("skipping invalid indexed profile", map[string]interface{}{
				"userId": hit.Source.UserID,
				"error":  err.Error(),
			})
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (d profileDoc) toProfile() (models.Profile, error) {
	in := models.ProfileInput{
		UserID:          d.UserID,
		Age:             d.Age,
		Gender:          d.Gender,
		MaritalStatus:   d.MaritalStatus,
		Religion:        d.Religion,
		EducationLevel:  d.EducationLevel,
		JobCategory:     d.JobCategory,
		Diet:            d.Diet,
		Smoking:         d.Smoking,
		Drinking:        d.Drinking,
		Bio:             d.Bio,
		Location:        d.Location,
		PrimaryPhotoURL: d.PrimaryPhotoURL,
		Phone:           d.Phone,
		Email:           d.Email,
		Completeness:    d.Completeness,
	}
	if d.DateOfBirth != "" {
		dob, err := parseDate(d.DateOfBirth)
		if err != nil {
			return models.Profile{}, err
		}
		in.DateOfBirth = &dob
	}
	return models.NewProfile(in)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid dateOfBirth %q", s)
	}
	return t, nil
}

// buildCandidateSearch mirrors buildCandidateQuery for the search index.
func buildCandidateSearch(f matching.HardFilters, excludeID string, limit int, asOf time.Time) map[string]interface{} {
	filter := []interface{}{
		map[string]interface{}{"exists": map[string]interface{}{"field": "bio"}},
		map[string]interface{}{"exists": map[string]interface{}{"field": "location"}},
		map[string]interface{}{"exists": map[string]interface{}{"field": "primaryPhotoUrl"}},
		map[string]interface{}{
			"bool": map[string]interface{}{
				"minimum_should_match": 1,
				"should": []interface{}{
					map[string]interface{}{"exists": map[string]interface{}{"field": "phone"}},
					map[string]interface{}{"exists": map[string]interface{}{"field": "email"}},
					map[string]interface{}{"exists": map[string]interface{}{"field": "jobCategory"}},
					map[string]interface{}{"exists": map[string]interface{}{"field": "educationLevel"}},
				},
			},
		},
	}
	if f.Gender != "" {
		filter = append(filter, caseInsensitiveTerm("gender", f.Gender))
	}
	if f.Religion != "" {
		filter = append(filter, caseInsensitiveTerm("religion", f.Religion))
	}

	asOf = asOf.UTC()
	today := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	if f.MinAge != nil {
		cutoff := today.AddDate(-*f.MinAge, 0, 0).Format(dateLayout)
		filter = append(filter, ageBound(map[string]interface{}{"lte": cutoff}, map[string]interface{}{"gte": *f.MinAge}))
	}
	if f.MaxAge != nil {
		cutoff := today.AddDate(-(*f.MaxAge + 1), 0, 0).Format(dateLayout)
		filter = append(filter, ageBound(map[string]interface{}{"gt": cutoff}, map[string]interface{}{"lte": *f.MaxAge}))
	}

	return map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filter,
				"must_not": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"userId": excludeID}},
					map[string]interface{}{"range": map[string]interface{}{"age": map[string]interface{}{"lt": 0}}},
					map[string]interface{}{"range": map[string]interface{}{"completeness": map[string]interface{}{"lt": 0}}},
					map[string]interface{}{"range": map[string]interface{}{"completeness": map[string]interface{}{"gt": 100}}},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"completeness": "desc"},
			map[string]interface{}{"userId": "asc"},
		},
	}
}

func caseInsensitiveTerm(field, value string) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{
			field: map[string]interface{}{"value": value, "case_insensitive": true},
		},
	}
}

// ageBound matches on date of birth, or on the stored age when no date of birth is indexed.
func ageBound(dobRange, ageRange map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"minimum_should_match": 1,
			"should": []interface{}{
				map[string]interface{}{"range": map[string]interface{}{"dateOfBirth": dobRange}},
				map[string]interface{}{
					"bool": map[string]interface{}{
						"must_not": []interface{}{
							map[string]interface{}{"exists": map[string]interface{}{"field": "dateOfBirth"}},
						},
						"filter": []interface{}{
							map[string]interface{}{"range": map[string]interface{}{"age": ageRange}},
						},
					},
				},
			},
		},
	}
}
