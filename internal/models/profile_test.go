package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() ProfileInput {
	return ProfileInput{
		UserID:          " u1 ",
		Religion:        " Hindu ",
		Bio:             "Loves trekking",
		Location:        "Pune",
		PrimaryPhotoURL: "https://cdn.example.com/u1.jpg",
		Email:           "u1@example.com",
	}
}

func TestNewProfile(t *testing.T) {
	p, err := NewProfile(validInput())
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "Hindu", p.Religion)
	// religion, bio, location, photo, contact
	assert.Equal(t, 5*100/13, p.Completeness)
}

func TestNewProfile_KeepsGivenCompleteness(t *testing.T) {
	in := validInput()
	in.Completeness = 88
	p, err := NewProfile(in)
	require.NoError(t, err)
	assert.Equal(t, 88, p.Completeness)
}

func TestNewProfile_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProfileInput)
		field  string
	}{
		{"missing id", func(in *ProfileInput) { in.UserID = "" }, "userId"},
		{"blank bio", func(in *ProfileInput) { in.Bio = "   " }, "bio"},
		{"missing location", func(in *ProfileInput) { in.Location = "" }, "location"},
		{"missing photo", func(in *ProfileInput) { in.PrimaryPhotoURL = "" }, "primaryPhotoUrl"},
		{"no contact or category", func(in *ProfileInput) { in.Email = "" }, "contact"},
		{"negative age", func(in *ProfileInput) { in.Age = -2 }, "age"},
		{"completeness out of range", func(in *ProfileInput) { in.Completeness = 101 }, "completeness"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := NewProfile(in)
			var verr *ProfileValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestNewProfile_CategoryCountsAsContact(t *testing.T) {
	in := validInput()
	in.Email = ""
	in.JobCategory = "finance"
	_, err := NewProfile(in)
	assert.NoError(t, err)
}

func TestProfileValidationError_ListsFieldsInOrder(t *testing.T) {
	_, err := NewProfile(ProfileInput{UserID: "u9", Email: "x@example.com"})
	require.Error(t, err)
	assert.Equal(t,
		`profile "u9" is invalid: bio: required; location: required; primaryPhotoUrl: required`,
		err.Error())
}

func TestAgeAt(t *testing.T) {
	dob := time.Date(1996, time.March, 15, 0, 0, 0, 0, time.UTC)
	p := Profile{UserID: "u1", DateOfBirth: &dob, Age: 12}

	assert.Equal(t, 29, p.AgeAt(time.Date(2026, time.March, 14, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 30, p.AgeAt(time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, p.AgeAt(time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)))

	stored := Profile{UserID: "u2", Age: 41}
	assert.Equal(t, 41, stored.AgeAt(time.Now()))
}

func TestView_OmitsContactDetails(t *testing.T) {
	in := validInput()
	in.Phone = "+919000000000"
	p, err := NewProfile(in)
	require.NoError(t, err)

	v := p.View(time.Now())
	assert.Equal(t, "u1", v.UserID)
	assert.Equal(t, p.Completeness, v.Completeness)
}

func TestCalculateCompleteness(t *testing.T) {
	dob := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	full := Profile{
		DateOfBirth: &dob, Gender: "f", MaritalStatus: "single", Religion: "Sikh",
		EducationLevel: "phd", JobCategory: "medicine", Diet: "vegan", Smoking: "no",
		Drinking: "no", Bio: "hi", Location: "Delhi", PrimaryPhotoURL: "p.jpg", Phone: "1",
	}
	assert.Equal(t, 100, CalculateCompleteness(full))
	assert.Equal(t, 0, CalculateCompleteness(Profile{}))
}
