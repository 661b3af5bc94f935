// internal/workers/matching/search-profiles/handler_test.go
package searchprofiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "matchmaking-workers/internal/common/errors"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/common/observability"
	"matchmaking-workers/internal/matching"
	"matchmaking-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type stubLookup map[string]*models.Profile

func (s stubLookup) FindByUserID(_ context.Context, userID string) (*models.Profile, error) {
	return s[userID], nil
}

type stubProvider struct {
	profiles []models.Profile
	err      error
}

func (s *stubProvider) FetchFiltered(_ context.Context, _ matching.HardFilters, _ string, limit int) ([]models.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.profiles) > limit {
		return s.profiles[:limit], nil
	}
	return s.profiles, nil
}

func searcher() *models.Profile {
	return &models.Profile{UserID: "u1", Age: 28, Religion: "Hindu", Diet: "vegetarian", Smoking: "no", Drinking: "no"}
}

func candidate(id string, age int) models.Profile {
	return models.Profile{
		UserID: id, Age: age, Religion: "Hindu", Diet: "vegetarian", Smoking: "no", Drinking: "no",
		Bio: "Hello", Location: "Pune", Email: id + "@example.com",
	}
}

func createTestHandler(t *testing.T, provider *stubProvider, obs *observability.Observability) *Handler {
	opts := matching.DefaultRankerOptions()
	opts.Clock = func() time.Time { return time.Time{} }
	ranker := matching.NewRanker(stubLookup{"u1": searcher()}, provider, opts)
	return NewHandler(LoadConfig(), ranker, obs, logger.NewTestLogger(t))
}

func intPtr(v int) *int { return &v }

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	provider := &stubProvider{profiles: []models.Profile{
		candidate("c1", 40), // religion + lifestyle only
		candidate("c2", 29),
		candidate("c3", 33),
	}}
	handler := createTestHandler(t, provider, nil)

	output, err := handler.Execute(context.Background(), &Input{
		UserID: "u1", Gender: "female", MinAge: intPtr(25), MaxAge: intPtr(40), Limit: 10,
	})
	require.NoError(t, err)

	require.Len(t, output.Items, 2)
	assert.Equal(t, "c2", output.Items[0].Profile.UserID)
	assert.Equal(t, 65, output.Items[0].MatchScore)
	assert.Equal(t, "c3", output.Items[1].Profile.UserID)
	assert.Equal(t, 55, output.Items[1].MatchScore)
	assert.Equal(t, 1, output.Page)
	assert.Equal(t, 10, output.Limit)
	assert.False(t, output.HasMore)
}

func TestHandler_Execute_OutputShape(t *testing.T) {
	handler := createTestHandler(t, &stubProvider{}, nil)

	output, err := handler.Execute(context.Background(), &Input{UserID: "u1"})
	require.NoError(t, err)

	raw, err := json.Marshal(output)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"page":1,"limit":12,"hasMore":false}`, string(raw))
}

func TestHandler_Execute_ContactDetailsNotReturned(t *testing.T) {
	handler := createTestHandler(t, &stubProvider{profiles: []models.Profile{candidate("c2", 29)}}, nil)

	output, err := handler.Execute(context.Background(), &Input{UserID: "u1"})
	require.NoError(t, err)

	raw, err := json.Marshal(output)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "c2@example.com")
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name         string
		input        *Input
		provider     *stubProvider
		expectedCode apperrors.ErrorCode
		retryable    bool
	}{
		{
			name:         "searcher without profile",
			input:        &Input{UserID: "ghost"},
			provider:     &stubProvider{},
			expectedCode: apperrors.ErrCodeSearcherProfileMissing,
		},
		{
			name:         "limit above maximum",
			input:        &Input{UserID: "u1", Limit: 500},
			provider:     &stubProvider{},
			expectedCode: apperrors.ErrCodeInvalidRequest,
		},
		{
			name:         "inverted age range",
			input:        &Input{UserID: "u1", MinAge: intPtr(40), MaxAge: intPtr(30)},
			provider:     &stubProvider{},
			expectedCode: apperrors.ErrCodeInvalidRequest,
		},
		{
			name:         "unclassified provider failure",
			input:        &Input{UserID: "u1"},
			provider:     &stubProvider{err: errors.New("connection reset")},
			expectedCode: apperrors.ErrCodeInternal,
			retryable:    true,
		},
		{
			name:         "classified provider failure passes through",
			input:        &Input{UserID: "u1"},
			provider:     &stubProvider{err: apperrors.NewSearchTimeoutError("profiles")},
			expectedCode: apperrors.ErrCodeSearchTimeout,
			retryable:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := createTestHandler(t, tt.provider, nil)

			output, err := handler.Execute(context.Background(), tt.input)
			assert.Nil(t, output)
			require.Error(t, err)

			stdErr := apperrors.FromMatchingError(err)
			assert.Equal(t, tt.expectedCode, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
		})
	}
}

func TestHandler_Execute_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs := observability.New("search-profiles-test", recorder)
	defer obs.Shutdown()

	var profiles []models.Profile
	for i := 0; i < 3; i++ {
		profiles = append(profiles, candidate(fmt.Sprintf("c%d", i), 29))
	}
	handler := createTestHandler(t, &stubProvider{profiles: profiles}, obs)

	_, err := handler.Execute(context.Background(), &Input{UserID: "u1", Limit: 2})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "matching.search", spans[0].Name())

	attrs := map[string]interface{}{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, int64(3), attrs["matching.qualified"])
	assert.Equal(t, int64(2), attrs["matching.returned"])
	assert.Len(t, attrs["matching.search_id"], 36)
}
