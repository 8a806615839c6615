package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hostel_booking/internal/app"
	"hostel_booking/internal/domain"
)

func TestCanBook(t *testing.T) {
	cases := []struct {
		person domain.Gender
		hostel domain.Gender
		want   domain.Decision
	}{
		{domain.GenderMale, domain.GenderFemale, domain.Deny(domain.ReasonGenderMismatch)},
		{domain.GenderFemale, domain.GenderMale, domain.Deny(domain.ReasonGenderMismatch)},
		{domain.GenderMale, domain.GenderMale, domain.Allow()},
		{domain.GenderFemale, domain.GenderFemale, domain.Allow()},
		{domain.GenderMale, domain.GenderMixed, domain.Allow()},
		{domain.GenderFemale, domain.GenderMixed, domain.Allow()},
		{"", domain.GenderMixed, domain.Deny(domain.ReasonProfileIncomplete)},
		{"", domain.GenderMale, domain.Deny(domain.ReasonProfileIncomplete)},
		{domain.GenderMixed, domain.GenderMixed, domain.Deny(domain.ReasonProfileIncomplete)},
		{domain.GenderUnrecognized, domain.GenderFemale, domain.Deny(domain.ReasonProfileIncomplete)},
		{domain.GenderMale, domain.GenderUnrecognized, domain.Deny(domain.ReasonGenderMismatch)},
	}
	for _, tc := range cases {
		got := app.CanBook(domain.Profile{UserID: "u1", Gender: tc.person}, domain.Hostel{ID: "h1", Gender: tc.hostel})
		assert.Equal(t, tc.want, got, "%s -> %s", tc.person, tc.hostel)
	}
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "allow", domain.Allow().String())
	assert.Equal(t, "deny:gender-mismatch", domain.Deny(domain.ReasonGenderMismatch).String())
	assert.NotEmpty(t, domain.ReasonProfileIncomplete.Message())
}
