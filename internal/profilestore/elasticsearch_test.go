package profilestore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "matchmaking-workers/internal/common/errors"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/matching"
)

type capturedSearch struct {
	path string
	body map[string]interface{}
}

func newFakeES(t *testing.T, status int, response string) (*ElasticsearchStore, *capturedSearch) {
	t.Helper()
	captured := &capturedSearch{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/_search") {
			captured.path = r.URL.Path
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &captured.body)
			w.WriteHeader(status)
			_, _ = w.Write([]byte(response))
			return
		}
		_, _ = w.Write([]byte(`{"version":{"number":"8.11.0"}}`))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{srv.URL},
		DisableRetry: true,
	})
	require.NoError(t, err)

	store := NewElasticsearchStore(client, "profiles", logger.NewTestLogger(t)).
		WithClock(func() time.Time { return fixedNow })
	return store, captured
}

const twoHits = `{
  "hits": {"hits": [
    {"_source": {"userId": "c1", "dateOfBirth": "1997-05-20", "gender": "female", "religion": "Hindu",
                 "bio": "Reader", "location": "Pune", "primaryPhotoUrl": "https://cdn/c1.jpg",
                 "email": "c1@example.com", "completeness": 92}},
    {"_source": {"userId": "c2", "age": 29, "bio": "Runner", "location": "Mumbai",
                 "primaryPhotoUrl": "https://cdn/c2.jpg", "jobCategory": "finance", "completeness": 80}},
    {"_source": {"userId": "broken", "bio": "", "location": "Delhi", "completeness": 10}}
  ]}
}`

func TestElasticsearchStore_FetchFiltered(t *testing.T) {
	store, captured := newFakeES(t, http.StatusOK, twoHits)
	minAge, maxAge := 25, 30

	got, err := store.FetchFiltered(context.Background(),
		matching.HardFilters{Gender: "Female", Religion: "hindu", MinAge: &minAge, MaxAge: &maxAge},
		"searcher", 48)
	require.NoError(t, err)

	require.Len(t, got, 2, "the document missing a bio is dropped")
	assert.Equal(t, "c1", got[0].UserID)
	require.NotNil(t, got[0].DateOfBirth)
	assert.Equal(t, 28, got[0].AgeAt(fixedNow))
	assert.Equal(t, 29, got[1].Age)

	assert.Equal(t, "/profiles/_search", captured.path)
	assert.EqualValues(t, 48, captured.body["size"])

	encoded, _ := json.Marshal(captured.body)
	q := string(encoded)
	assert.Contains(t, q, `"must_not":[{"term":{"userId":"searcher"}}]`)
	assert.Contains(t, q, `"gender":{"case_insensitive":true,"value":"Female"}`)
	assert.Contains(t, q, `"religion":{"case_insensitive":true,"value":"hindu"}`)
	assert.Contains(t, q, `"dateOfBirth":{"lte":"2001-03-15"}`)
	assert.Contains(t, q, `"dateOfBirth":{"gt":"1995-03-15"}`)

	// contact or category presence, plus the numeric guards profile validation applies
	assert.Contains(t, q, `{"bool":{"minimum_should_match":1,"should":[{"exists":{"field":"phone"}},{"exists":{"field":"email"}},{"exists":{"field":"jobCategory"}},{"exists":{"field":"educationLevel"}}]}}`)
	assert.Contains(t, q, `{"range":{"age":{"lt":0}}}`)
	assert.Contains(t, q, `{"range":{"completeness":{"gt":100}}}`)
}

func TestElasticsearchStore_ErrorStatus(t *testing.T) {
	store, _ := newFakeES(t, http.StatusBadRequest, `{"error":{"type":"parsing_exception"}}`)

	_, err := store.FetchFiltered(context.Background(), matching.HardFilters{}, "searcher", 10)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeSearchQueryFailed, stdErr.Code)
}

func TestElasticsearchStore_EmptyHits(t *testing.T) {
	store, _ := newFakeES(t, http.StatusOK, `{"hits":{"hits":[]}}`)

	got, err := store.FetchFiltered(context.Background(), matching.HardFilters{}, "searcher", 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
