package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoringConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultScoringConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*ScoringConfig)
		errMsg string
	}{
		{"threshold above max", func(c *ScoringConfig) { c.ScoreThreshold = 101 }, "score threshold"},
		{"negative threshold", func(c *ScoringConfig) { c.ScoreThreshold = -1 }, "score threshold"},
		{"inverted age gaps", func(c *ScoringConfig) { c.GoodAgeGap = 2 }, "age gaps"},
		{"inverted completeness tiers", func(c *ScoringConfig) { c.PartialCompleteness = 99 }, "completeness tier"},
		{"unknown mode", func(c *ScoringConfig) { c.ReasonThresholdMode = "global" }, "reason threshold mode"},
		{"negative weight", func(c *ScoringConfig) { c.Weights.Diet = -10 }, "weight diet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultScoringConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestDefaultWeights_SumToFactorMaximums(t *testing.T) {
	w := DefaultWeights()
	assert.Equal(t, 20, w.Diet+w.Smoking+w.Drinking)
	assert.Equal(t, 100, w.AgePerfect+w.Religion+w.Diet+w.Smoking+w.Drinking+w.Education+w.Completeness)
}
