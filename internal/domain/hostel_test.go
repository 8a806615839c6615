package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel_booking/internal/domain"
)

func TestParseHostelType(t *testing.T) {
	cases := map[string]domain.HostelType{
		"On-campus":  domain.TypeOnCampus,
		"on campus":  domain.TypeOnCampus,
		"ONCAMPUS":   domain.TypeOnCampus,
		"Off-campus": domain.TypeOffCampus,
		"off_campus": domain.TypeOffCampus,
		"Premium":    domain.TypeUnrecognized,
		"":           domain.TypeUnrecognized,
	}
	for in, want := range cases {
		assert.Equal(t, want, domain.ParseHostelType(in), in)
	}
}

func TestParseGender(t *testing.T) {
	assert.Equal(t, domain.GenderMale, domain.ParseGender("Male"))
	assert.Equal(t, domain.GenderFemale, domain.ParseGender(" female "))
	assert.Equal(t, domain.GenderMixed, domain.ParseGender("MIXED"))
	assert.Equal(t, domain.GenderUnrecognized, domain.ParseGender("other"))
}

func TestDistance_LessAndJSON(t *testing.T) {
	on := domain.OnCampusDistance()
	near := domain.DistanceKm(0.1)

	assert.True(t, on.Less(near))
	assert.False(t, near.Less(on))
	assert.False(t, on.Less(on))
	assert.Equal(t, 0.0, domain.DistanceKm(-3).Km)

	b, err := json.Marshal(struct {
		A domain.Distance `json:"a"`
		B domain.Distance `json:"b"`
	}{on, near})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"on-campus","b":0.1}`, string(b))

	var back domain.Distance
	require.NoError(t, json.Unmarshal([]byte(`"on-campus"`), &back))
	assert.True(t, back.OnCampus)
	require.NoError(t, json.Unmarshal([]byte(`2.5`), &back))
	assert.Equal(t, domain.DistanceKm(2.5), back)
}

func TestAmenitySet(t *testing.T) {
	s := domain.NewAmenitySet("Wi-Fi", "Laundry", "Wi-Fi", " ")
	assert.Len(t, s, 2)
	assert.True(t, s.Has("Laundry"))
	assert.False(t, s.Has("Gym"))
	assert.Equal(t, []string{"Laundry", "Wi-Fi"}, s.Names())
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, domain.SortPriceAsc, domain.ParseSortKey("price-low"))
	assert.Equal(t, domain.SortPriceDesc, domain.ParseSortKey("price-high"))
	assert.Equal(t, domain.SortDistanceAsc, domain.ParseSortKey("distance"))
	assert.Equal(t, domain.SortRatingDesc, domain.ParseSortKey("rating"))
	assert.Equal(t, domain.SortRatingDesc, domain.ParseSortKey("bogus"))
	assert.Equal(t, domain.SortRatingDesc, domain.ParseSortKey(""))
}

func TestErrors(t *testing.T) {
	err := domain.NotFoundError{Resource: "hostel", ID: "7"}
	assert.True(t, domain.IsNotFound(err))
	assert.EqualError(t, err, "hostel 7 not found")
	assert.True(t, domain.IsValidation(domain.ValidationError{Field: "checkIn", Msg: "required"}))
	assert.False(t, domain.IsValidation(domain.ErrNotFound))
}
