package matching

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchmaking-workers/internal/models"
)

func searcherFixture() models.Profile {
	return models.Profile{
		UserID:         "searcher",
		Age:            30,
		Religion:       "Hindu",
		Diet:           "vegetarian",
		Smoking:        "no",
		Drinking:       "occasionally",
		EducationLevel: "masters",
		JobCategory:    "engineering",
		Completeness:   90,
	}
}

func TestScore_AgeBuckets(t *testing.T) {
	tests := []struct {
		name      string
		candidate int
		points    int
		reason    string
	}{
		{"same age", 30, 20, ReasonPerfectAge},
		{"gap of 3 is perfect", 33, 20, ReasonPerfectAge},
		{"gap of 4 is good", 26, 10, ReasonGoodAge},
		{"gap of 7 is good", 37, 10, ReasonGoodAge},
		{"gap of 8 scores nothing", 22, 0, ""},
		{"unknown candidate age", 0, 0, ""},
	}

	searcher := models.Profile{UserID: "s", Age: 30}
	cfg := DefaultScoringConfig()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Score(searcher, models.Profile{UserID: "c", Age: tt.candidate}, cfg)
			assert.Equal(t, tt.points, res.Value)
			if tt.reason == "" {
				assert.Empty(t, res.Reasons)
			} else {
				assert.Equal(t, []string{tt.reason}, res.Reasons)
			}
		})
	}
}

func TestScore_AgeFromDateOfBirth(t *testing.T) {
	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	searcherDOB := time.Date(1996, 3, 15, 0, 0, 0, 0, time.UTC) // 30
	candidateDOB := time.Date(1993, 3, 16, 0, 0, 0, 0, time.UTC) // 32, turns 33 tomorrow

	cfg := DefaultScoringConfig()
	cfg.AsOf = asOf
	res := Score(
		models.Profile{UserID: "s", DateOfBirth: &searcherDOB, Age: 99},
		models.Profile{UserID: "c", DateOfBirth: &candidateDOB},
		cfg,
	)
	assert.Equal(t, 20, res.Value, "date of birth wins over a stale stored age")
}

func TestScore_Religion(t *testing.T) {
	cfg := DefaultScoringConfig()
	searcher := models.Profile{UserID: "s", Religion: "Hindu"}

	res := Score(searcher, models.Profile{UserID: "c", Religion: "Hindu"}, cfg)
	assert.Equal(t, 25, res.Value)
	assert.Equal(t, []string{"Same religion (Hindu)"}, res.Reasons)

	res = Score(searcher, models.Profile{UserID: "c", Religion: " hindu "}, cfg)
	assert.Equal(t, 25, res.Value, "comparison is trimmed and case-insensitive")

	res = Score(searcher, models.Profile{UserID: "c", Religion: ""}, cfg)
	assert.Zero(t, res.Value)
	assert.Empty(t, res.Reasons)

	res = Score(models.Profile{UserID: "s"}, models.Profile{UserID: "c"}, cfg)
	assert.Zero(t, res.Value, "two empty values never match")
}

func TestScore_LifestyleReason(t *testing.T) {
	lifestyle := models.Profile{Diet: "vegan", Smoking: "no", Drinking: "no"}

	t.Run("cumulative mode counts earlier factors", func(t *testing.T) {
		cfg := DefaultScoringConfig()

		s := lifestyle
		s.Age, s.Religion = 30, "Jain"
		c := lifestyle
		c.Age, c.Religion = 31, "Jain"
		c.Smoking, c.Drinking = "yes", "yes"

		// 20 + 25 + 10 = 55 > 45
		res := Score(s, c, cfg)
		assert.Equal(t, 55, res.Value)
		assert.Contains(t, res.Reasons, ReasonLifestyle)
	})

	t.Run("cumulative mode needs a total above the threshold", func(t *testing.T) {
		cfg := DefaultScoringConfig()

		s := lifestyle
		s.Religion = "Jain"
		c := lifestyle
		c.Religion = "Jain"

		// 25 + 20 = 45, not above 45
		res := Score(s, c, cfg)
		assert.Equal(t, 45, res.Value)
		assert.NotContains(t, res.Reasons, ReasonLifestyle)
	})

	t.Run("local mode looks at the lifestyle subtotal only", func(t *testing.T) {
		cfg := DefaultScoringConfig()
		cfg.ReasonThresholdMode = ReasonThresholdLocal

		res := Score(lifestyle, lifestyle, cfg)
		assert.Equal(t, 20, res.Value)
		assert.Equal(t, []string{ReasonLifestyle}, res.Reasons)

		dietOnly := lifestyle
		dietOnly.Smoking, dietOnly.Drinking = "yes", "yes"
		res = Score(lifestyle, dietOnly, cfg)
		assert.Equal(t, 10, res.Value)
		assert.Empty(t, res.Reasons)
	})
}

func TestScore_EducationOrProfession(t *testing.T) {
	cfg := DefaultScoringConfig()
	s := models.Profile{UserID: "s", EducationLevel: "masters", JobCategory: "engineering"}

	res := Score(s, models.Profile{UserID: "c", EducationLevel: "Masters", JobCategory: "engineering"}, cfg)
	assert.Equal(t, 15, res.Value)
	assert.Equal(t, []string{ReasonEducation}, res.Reasons, "only one of the two tiers fires")

	res = Score(s, models.Profile{UserID: "c", EducationLevel: "bachelors", JobCategory: "Engineering"}, cfg)
	assert.Equal(t, 10, res.Value)
	assert.Equal(t, []string{ReasonProfession}, res.Reasons)
}

func TestScore_CompletenessTiers(t *testing.T) {
	cfg := DefaultScoringConfig()
	s := models.Profile{UserID: "s"}

	tests := []struct {
		completeness int
		points       int
		reasons      []string
	}{
		{100, 20, []string{ReasonDetailedProfile}},
		{95, 20, []string{ReasonDetailedProfile}},
		{94, 10, []string{}},
		{85, 10, []string{}},
		{84, 0, []string{}},
	}
	for _, tt := range tests {
		res := Score(s, models.Profile{UserID: "c", Completeness: tt.completeness}, cfg)
		assert.Equal(t, tt.points, res.Value, "completeness %d", tt.completeness)
		assert.Equal(t, tt.reasons, res.Reasons, "completeness %d", tt.completeness)
	}
}

func TestScore_CapsAtHundred(t *testing.T) {
	s := searcherFixture()
	c := searcherFixture()
	c.UserID = "everything"
	c.Completeness = 97

	res := Score(s, c, DefaultScoringConfig())
	assert.Equal(t, 100, res.Value)
	assert.Equal(t, []string{
		ReasonPerfectAge,
		"Same religion (Hindu)",
		ReasonLifestyle,
		ReasonEducation,
		ReasonDetailedProfile,
	}, res.Reasons)

	heavy := DefaultScoringConfig()
	heavy.Weights.Religion = 80
	res = Score(s, c, heavy)
	assert.Equal(t, 100, res.Value, "the cap applies once to the total")
}

func TestScore_DoesNotMutateConfig(t *testing.T) {
	cfg := DefaultScoringConfig()
	before := cfg
	Score(searcherFixture(), searcherFixture(), cfg)
	assert.Equal(t, before, cfg)
}

var (
	religions  = []string{"", "Hindu", "hindu", "Sikh", "Muslim", "Christian"}
	diets      = []string{"", "vegetarian", "vegan", "non-vegetarian"}
	habits     = []string{"", "no", "yes", "occasionally"}
	educations = []string{"", "bachelors", "masters", "phd"}
	jobs       = []string{"", "engineering", "finance", "medicine"}
)

func randomProfile(r *rand.Rand, id string) models.Profile {
	pick := func(vals []string) string { return vals[r.Intn(len(vals))] }
	return models.Profile{
		UserID:         id,
		Age:            r.Intn(60),
		Religion:       pick(religions),
		Diet:           pick(diets),
		Smoking:        pick(habits),
		Drinking:       pick(habits),
		EducationLevel: pick(educations),
		JobCategory:    pick(jobs),
		Completeness:   r.Intn(101),
	}
}

func TestScore_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		s, c := randomProfile(r, "s"), randomProfile(r, "c")
		cfg := DefaultScoringConfig()
		if i%2 == 1 {
			cfg.ReasonThresholdMode = ReasonThresholdLocal
		}

		first := Score(s, c, cfg)
		second := Score(s, c, cfg)
		require.Equal(t, first, second, "deterministic for %+v vs %+v", s, c)

		require.GreaterOrEqual(t, first.Value, 0)
		require.LessOrEqual(t, first.Value, MaxScore)

		seen := make(map[string]bool, len(first.Reasons))
		for _, reason := range first.Reasons {
			require.NotEmpty(t, reason)
			require.False(t, seen[reason], "duplicate reason %q", reason)
			seen[reason] = true
		}
	}
}
