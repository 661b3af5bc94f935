package matching

import (
	"fmt"
	"strings"

	"matchmaking-workers/internal/models"
)

const (
	ReasonPerfectAge        = "Perfect age compatibility"
	ReasonGoodAge           = "Good age match"
	ReasonLifestyle         = "Similar lifestyle values"
	ReasonEducation         = "Similar educational background"
	ReasonProfession        = "Similar professional field"
	ReasonDetailedProfile   = "Extremely detailed profile"
	reasonReligionFormatted = "Same religion (%s)"
)

// ScoreResult is the outcome of scoring one candidate against a searcher.
type ScoreResult struct {
	Value   int      `json:"value"`
	Reasons []string `json:"reasons"`
}

// Score rates how compatible candidate is with searcher. It is a pure
// function of its arguments: no I/O, no clock reads, no randomness.
// Missing attributes on either side contribute nothing to the score.
func Score(searcher, candidate models.Profile, cfg ScoringConfig) ScoreResult {
	w := cfg.Weights
	total := 0
	reasons := make([]string, 0, 5)

	// Age
	searcherAge, candidateAge := ageOf(searcher, cfg), ageOf(candidate, cfg)
	if searcherAge > 0 && candidateAge > 0 {
		gap := absInt(searcherAge - candidateAge)
		if gap <= cfg.PerfectAgeGap {
			total += w.AgePerfect
			reasons = append(reasons, ReasonPerfectAge)
		} else if gap <= cfg.GoodAgeGap {
			total += w.AgeGood
			reasons = append(reasons, ReasonGoodAge)
		}
	}

	// Religion
	if sameValue(searcher.Religion, candidate.Religion) {
		total += w.Religion
		reasons = append(reasons, fmt.Sprintf(reasonReligionFormatted, strings.TrimSpace(candidate.Religion)))
	}

	// Lifestyle
	lifestyle := 0
	if sameValue(searcher.Diet, candidate.Diet) {
		lifestyle += w.Diet
	}
	if sameValue(searcher.Smoking, candidate.Smoking) {
		lifestyle += w.Smoking
	}
	if sameValue(searcher.Drinking, candidate.Drinking) {
		lifestyle += w.Drinking
	}
	total += lifestyle
	if lifestyleReasonApplies(cfg, total, lifestyle) {
		reasons = append(reasons, ReasonLifestyle)
	}

	// Education, falling back to profession
	if sameValue(searcher.EducationLevel, candidate.EducationLevel) {
		total += w.Education
		reasons = append(reasons, ReasonEducation)
	} else if sameValue(searcher.JobCategory, candidate.JobCategory) {
		total += w.Profession
		reasons = append(reasons, ReasonProfession)
	}

	// Candidate completeness
	if candidate.Completeness >= cfg.HighCompleteness {
		total += w.Completeness
		reasons = append(reasons, ReasonDetailedProfile)
	} else if candidate.Completeness >= cfg.PartialCompleteness {
		total += w.CompletenessPartial
	}

	return ScoreResult{Value: clampScore(total), Reasons: reasons}
}

// lifestyleReasonApplies keeps the historical behaviour in cumulative mode:
// the running total, not the lifestyle subtotal, is compared to the threshold.
func lifestyleReasonApplies(cfg ScoringConfig, runningTotal, lifestyle int) bool {
	if cfg.ReasonThresholdMode == ReasonThresholdLocal {
		return lifestyle > 0 && lifestyle >= cfg.LocalLifestyleReasonThreshold
	}
	return runningTotal > cfg.LifestyleReasonThreshold
}

func ageOf(p models.Profile, cfg ScoringConfig) int {
	if cfg.AsOf.IsZero() {
		return p.Age
	}
	return p.AgeAt(cfg.AsOf)
}

// sameValue compares categorical attributes trimmed and case-insensitively.
// Two empty values never match.
func sameValue(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

func clampScore(v int) int {
	if v > MaxScore {
		return MaxScore
	}
	if v < 0 {
		return 0
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
