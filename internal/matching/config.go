package matching

import (
	"fmt"
	"time"
)

// ReasonThresholdMode selects which total gates the lifestyle reason.
type ReasonThresholdMode string

const (
	// ReasonThresholdCumulative compares the running score after the lifestyle
	// factor (age and religion points included) against LifestyleReasonThreshold.
	ReasonThresholdCumulative ReasonThresholdMode = "cumulative"
	// ReasonThresholdLocal compares only the lifestyle subtotal against
	// LocalLifestyleReasonThreshold.
	ReasonThresholdLocal ReasonThresholdMode = "local"
)

const (
	DefaultScoreThreshold                = 50
	DefaultLifestyleReasonThreshold      = 45
	DefaultLocalLifestyleReasonThreshold = 15
	MaxScore                             = 100
)

// Weights holds the points each factor can contribute.
type Weights struct {
	AgePerfect   int `json:"agePerfect" mapstructure:"age_perfect"`
	AgeGood      int `json:"ageGood" mapstructure:"age_good"`
	Religion     int `json:"religion" mapstructure:"religion"`
	Diet         int `json:"diet" mapstructure:"diet"`
	Smoking      int `json:"smoking" mapstructure:"smoking"`
	Drinking     int `json:"drinking" mapstructure:"drinking"`
	Education    int `json:"education" mapstructure:"education"`
	Profession   int `json:"profession" mapstructure:"profession"`
	Completeness int `json:"completeness" mapstructure:"completeness"`
	// CompletenessPartial is awarded between the high and partial tiers.
	CompletenessPartial int `json:"completenessPartial" mapstructure:"completeness_partial"`
}

// DefaultWeights returns the standard factor weights.
func DefaultWeights() Weights {
	return Weights{
		AgePerfect:          20,
		AgeGood:             10,
		Religion:            25,
		Diet:                10,
		Smoking:             5,
		Drinking:            5,
		Education:           15,
		Profession:          10,
		Completeness:        20,
		CompletenessPartial: 10,
	}
}

// ScoringConfig parameterises one scoring run. It is passed by value and
// never mutated by the scorer.
type ScoringConfig struct {
	Weights Weights

	// Age buckets, inclusive.
	PerfectAgeGap int
	GoodAgeGap    int

	// Completeness tiers, inclusive.
	HighCompleteness    int
	PartialCompleteness int

	ScoreThreshold                int
	ReasonThresholdMode           ReasonThresholdMode
	LifestyleReasonThreshold      int
	LocalLifestyleReasonThreshold int

	// AsOf is the reference time used to derive ages from dates of birth.
	AsOf time.Time
}

// DefaultScoringConfig returns the configuration used when nothing is overridden.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights:                       DefaultWeights(),
		PerfectAgeGap:                 3,
		GoodAgeGap:                    7,
		HighCompleteness:              95,
		PartialCompleteness:           85,
		ScoreThreshold:                DefaultScoreThreshold,
		ReasonThresholdMode:           ReasonThresholdCumulative,
		LifestyleReasonThreshold:      DefaultLifestyleReasonThreshold,
		LocalLifestyleReasonThreshold: DefaultLocalLifestyleReasonThreshold,
	}
}

// Validate reports configuration values that would break the score contract.
func (c ScoringConfig) Validate() error {
	if c.ScoreThreshold < 0 || c.ScoreThreshold > MaxScore {
		return fmt.Errorf("score threshold must be within [0,%d], got %d", MaxScore, c.ScoreThreshold)
	}
	if c.PerfectAgeGap < 0 || c.GoodAgeGap < c.PerfectAgeGap {
		return fmt.Errorf("age gaps must satisfy 0 <= perfect (%d) <= good (%d)", c.PerfectAgeGap, c.GoodAgeGap)
	}
	if c.PartialCompleteness > c.HighCompleteness {
		return fmt.Errorf("partial completeness tier (%d) above high tier (%d)", c.PartialCompleteness, c.HighCompleteness)
	}
	switch c.ReasonThresholdMode {
	case ReasonThresholdCumulative, ReasonThresholdLocal:
	default:
		return fmt.Errorf("unknown reason threshold mode %q", c.ReasonThresholdMode)
	}

	w := c.Weights
	for name, v := range map[string]int{
		"agePerfect": w.AgePerfect, "ageGood": w.AgeGood, "religion": w.Religion,
		"diet": w.Diet, "smoking": w.Smoking, "drinking": w.Drinking,
		"education": w.Education, "profession": w.Profession,
		"completeness": w.Completeness, "completenessPartial": w.CompletenessPartial,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must not be negative, got %d", name, v)
		}
	}
	return nil
}
