// internal/workers/matching/calculate-compatibility/models.go
package calculatecompatibility

import "matchmaking-workers/internal/models"

// Input names the pair to score. Inline profiles take precedence over ids and
// are validated like stored ones.
type Input struct {
	UserID           string          `json:"userId"`
	CandidateID      string          `json:"candidateId"`
	SearcherProfile  *models.Profile `json:"searcherProfile,omitempty"`
	CandidateProfile *models.Profile `json:"candidateProfile,omitempty"`
}

type Output struct {
	MatchScore   int      `json:"matchScore"`
	MatchReasons []string `json:"matchReasons"`
	Qualifies    bool     `json:"qualifies"`
}

func toProfileInput(p *models.Profile) models.ProfileInput {
	return models.ProfileInput{
		UserID:          p.UserID,
		DateOfBirth:     p.DateOfBirth,
		Age:             p.Age,
		Gender:          p.Gender,
		MaritalStatus:   p.MaritalStatus,
		Religion:        p.Religion,
		EducationLevel:  p.EducationLevel,
		JobCategory:     p.JobCategory,
		Diet:            p.Diet,
		Smoking:         p.Smoking,
		Drinking:        p.Drinking,
		Bio:             p.Bio,
		Location:        p.Location,
		PrimaryPhotoURL: p.PrimaryPhotoURL,
		Phone:           p.Phone,
		Email:           p.Email,
		Completeness:    p.Completeness,
	}
}
