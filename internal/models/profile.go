// internal/models/profile.go
package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Profile is an immutable snapshot of a member's matchmaking attributes.
// Ranking code only reads it; creation and updates go through NewProfile.
type Profile struct {
	UserID          string     `json:"userId"`
	DateOfBirth     *time.Time `json:"dateOfBirth,omitempty"`
	Age             int        `json:"age,omitempty"`
	Gender          string     `json:"gender,omitempty"`
	MaritalStatus   string     `json:"maritalStatus,omitempty"`
	Religion        string     `json:"religion,omitempty"`
	EducationLevel  string     `json:"educationLevel,omitempty"`
	JobCategory     string     `json:"jobCategory,omitempty"`
	Diet            string     `json:"diet,omitempty"`
	Smoking         string     `json:"smoking,omitempty"`
	Drinking        string     `json:"drinking,omitempty"`
	Bio             string     `json:"bio,omitempty"`
	Location        string     `json:"location,omitempty"`
	PrimaryPhotoURL string     `json:"primaryPhotoUrl,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	Email           string     `json:"email,omitempty"`
	Completeness    int        `json:"completeness"`
}

// ProfileInput carries raw attribute values into NewProfile.
type ProfileInput struct {
	UserID          string
	DateOfBirth     *time.Time
	Age             int
	Gender          string
	MaritalStatus   string
	Religion        string
	EducationLevel  string
	JobCategory     string
	Diet            string
	Smoking         string
	Drinking        string
	Bio             string
	Location        string
	PrimaryPhotoURL string
	Phone           string
	Email           string
	// Completeness is recomputed when zero.
	Completeness int
}

// ProfileView is the public-safe projection returned in search results.
// Contact details never leave the service through it.
type ProfileView struct {
	UserID          string `json:"userId"`
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
	Completeness    int    `json:"completeness"`
}

// ProfileValidationError lists every required field that failed validation.
type ProfileValidationError struct {
	UserID string
	Fields map[string]string
}

func (e *ProfileValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("profile %q is invalid: %s", e.UserID, strings.Join(parts, "; "))
}

// NewProfile validates the input and returns a Profile snapshot.
// A profile is only searchable once bio, location, primary photo and at least
// one contact or category field are present.
func NewProfile(in ProfileInput) (Profile, error) {
	fields := make(map[string]string)

	if strings.TrimSpace(in.UserID) == "" {
		fields["userId"] = "required"
	}
	if strings.TrimSpace(in.Bio) == "" {
		fields["bio"] = "required"
	}
	if strings.TrimSpace(in.Location) == "" {
		fields["location"] = "required"
	}
	if strings.TrimSpace(in.PrimaryPhotoURL) == "" {
		fields["primaryPhotoUrl"] = "required"
	}
	if isBlank(in.Phone) && isBlank(in.Email) && isBlank(in.JobCategory) && isBlank(in.EducationLevel) {
		fields["contact"] = "one of phone, email, jobCategory or educationLevel is required"
	}
	if in.Age < 0 {
		fields["age"] = "must not be negative"
	}
	if in.Completeness < 0 || in.Completeness > 100 {
		fields["completeness"] = "must be between 0 and 100"
	}

	if len(fields) > 0 {
		return Profile{}, &ProfileValidationError{UserID: in.UserID, Fields: fields}
	}

	p := Profile{
		UserID:          strings.TrimSpace(in.UserID),
		Age:             in.Age,
		Gender:          strings.TrimSpace(in.Gender),
		MaritalStatus:   strings.TrimSpace(in.MaritalStatus),
		Religion:        strings.TrimSpace(in.Religion),
		EducationLevel:  strings.TrimSpace(in.EducationLevel),
		JobCategory:     strings.TrimSpace(in.JobCategory),
		Diet:            strings.TrimSpace(in.Diet),
		Smoking:         strings.TrimSpace(in.Smoking),
		Drinking:        strings.TrimSpace(in.Drinking),
		Bio:             strings.TrimSpace(in.Bio),
		Location:        strings.TrimSpace(in.Location),
		PrimaryPhotoURL: strings.TrimSpace(in.PrimaryPhotoURL),
		Phone:           strings.TrimSpace(in.Phone),
		Email:           strings.TrimSpace(in.Email),
		Completeness:    in.Completeness,
	}
	if in.DateOfBirth != nil {
		dob := in.DateOfBirth.UTC()
		p.DateOfBirth = &dob
	}
	if p.Completeness == 0 {
		p.Completeness = CalculateCompleteness(p)
	}

	return p, nil
}

// AgeAt returns the age in whole years at t. Date of birth wins over the
// stored age so long-lived rows never go stale. Zero means unknown.
func (p Profile) AgeAt(t time.Time) int {
	if p.DateOfBirth == nil || p.DateOfBirth.IsZero() {
		return p.Age
	}
	dob := p.DateOfBirth.UTC()
	t = t.UTC()
	if t.Before(dob) {
		return 0
	}

	age := t.Year() - dob.Year()
	if t.Month() < dob.Month() || (t.Month() == dob.Month() && t.Day() < dob.Day()) {
		age--
	}
	return age
}

// View projects the profile for result payloads.
func (p Profile) View(asOf time.Time) ProfileView {
	return ProfileView{
		UserID:          p.UserID,
		Age:             p.AgeAt(asOf),
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
		Completeness:    p.Completeness,
	}
}

// completenessFields is the fixed list of fields counted towards completeness.
var completenessFields = []func(Profile) bool{
	func(p Profile) bool { return (p.DateOfBirth != nil && !p.DateOfBirth.IsZero()) || p.Age > 0 },
	func(p Profile) bool { return !isBlank(p.Gender) },
	func(p Profile) bool { return !isBlank(p.MaritalStatus) },
	func(p Profile) bool { return !isBlank(p.Religion) },
	func(p Profile) bool { return !isBlank(p.EducationLevel) },
	func(p Profile) bool { return !isBlank(p.JobCategory) },
	func(p Profile) bool { return !isBlank(p.Diet) },
	func(p Profile) bool { return !isBlank(p.Smoking) },
	func(p Profile) bool { return !isBlank(p.Drinking) },
	func(p Profile) bool { return !isBlank(p.Bio) },
	func(p Profile) bool { return !isBlank(p.Location) },
	func(p Profile) bool { return !isBlank(p.PrimaryPhotoURL) },
	func(p Profile) bool { return !isBlank(p.Phone) || !isBlank(p.Email) },
}

// CalculateCompleteness returns the share of populated optional fields as a
// percentage, rounded down.
func CalculateCompleteness(p Profile) int {
	filled := 0
	for _, check := range completenessFields {
		if check(p) {
			filled++
		}
	}
	return filled * 100 / len(completenessFields)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
