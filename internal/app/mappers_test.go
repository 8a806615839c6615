package app_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel_booking/internal/app"
	"hostel_booking/internal/domain"
)

func raw(t *testing.T, js string) domain.RawHostel {
	t.Helper()
	var m domain.RawHostel
	require.NoError(t, json.Unmarshal([]byte(js), &m))
	return m
}

func TestNormalize_AppShapedRecord(t *testing.T) {
	h := app.Normalize(raw(t, `{
		"id": 3,
		"name": "Silver Oak Residency",
		"type": "Off-campus",
		"gender": "Female",
		"price": 850,
		"rating": 4.6,
		"reviews": 120,
		"distance": 1.2,
		"capacity": 40,
		"roomCount": 20,
		"roomCapacity": 2,
		"featured": true,
		"availability": "Available",
		"amenities": [{"name": "Wi-Fi", "icon": "wifi"}, {"name": "Laundry", "icon": "tshirt"}],
		"images": ["a.jpg", "b.jpg"],
		"contact": {"email": "desk@silveroak.test", "phone": "+1 555"},
		"warden": {"name": "Ms. Rao"},
		"location": {"address": "12 College Rd", "coordinates": {"lat": 12.9, "lng": 77.6}},
		"rules": ["No smoking"]
	}`))

	assert.Equal(t, "3", h.ID)
	assert.Equal(t, "Silver Oak Residency", h.Name)
	assert.Equal(t, domain.TypeOffCampus, h.Type)
	assert.Equal(t, domain.GenderFemale, h.Gender)
	assert.Equal(t, 850.0, h.Price)
	assert.Equal(t, 4.6, h.Rating)
	assert.Equal(t, 120, h.ReviewCount)
	assert.Equal(t, domain.DistanceKm(1.2), h.Distance)
	assert.Equal(t, 40, h.Capacity)
	assert.True(t, h.Featured)
	assert.Equal(t, domain.AvailabilityHigh, h.AvailabilityLevel)
	assert.Equal(t, []string{"Laundry", "Wi-Fi"}, h.Amenities.Names())
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, h.Images)
	assert.Equal(t, "desk@silveroak.test", h.Contact.Email)
	assert.Equal(t, "Ms. Rao", h.Warden.Name)
	require.NotNil(t, h.Location.Lat)
	assert.Equal(t, 12.9, *h.Location.Lat)
	assert.Equal(t, []string{"No smoking"}, h.Rules)
}

func TestNormalize_Distance(t *testing.T) {
	cases := []struct {
		name string
		js   string
		want domain.Distance
	}{
		{"absent", `{}`, domain.OnCampusDistance()},
		{"null", `{"distance": null}`, domain.OnCampusDistance()},
		{"incampus", `{"distance": "incampus"}`, domain.OnCampusDistance()},
		{"InCampus mixed case", `{"distance": "InCampus"}`, domain.OnCampusDistance()},
		{"on-campus", `{"distance": "on-campus"}`, domain.OnCampusDistance()},
		{"number", `{"distance": 0.1}`, domain.DistanceKm(0.1)},
		{"numeric string", `{"distanceKm": "2,5 km"}`, domain.DistanceKm(2.5)},
		{"negative clamps", `{"distance": -4}`, domain.DistanceKm(0)},
		{"garbage defaults to zero", `{"distance": "far away"}`, domain.DistanceKm(0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, app.Normalize(raw(t, tc.js)).Distance)
		})
	}
}

func TestNormalize_PriceSeparators(t *testing.T) {
	cases := []struct {
		price string
		want  float64
	}{
		{"1,200", 1200},
		{"12,345,678", 12345678},
		{"1,200.50", 1200.5},
		{"1.200,50", 1200.5},
		{"850", 850},
		{"4,5", 4.5},
		{"8,0", 8},
		{"1,20", 1.2},
	}
	for _, tc := range cases {
		t.Run(tc.price, func(t *testing.T) {
			h := app.Normalize(domain.RawHostel{"price": tc.price})
			assert.Equal(t, tc.want, h.Price)
		})
	}

	h := app.Normalize(domain.RawHostel{"rating": "4,5", "distance": "1,500 km"})
	assert.Equal(t, 4.5, h.Rating)
	assert.Equal(t, domain.DistanceKm(1500), h.Distance)
}

func TestNormalize_DefaultsForMalformedRecord(t *testing.T) {
	h := app.Normalize(raw(t, `{"_id": "abc", "title": "Bare", "gender": "robots", "type": "Premium",
		"rating": 9, "price": -10, "capacity": 0, "amenities": "not-a-list"}`))

	assert.Equal(t, "abc", h.ID)
	assert.Equal(t, "Bare", h.Name)
	assert.Equal(t, domain.GenderUnrecognized, h.Gender)
	assert.Equal(t, domain.TypeUnrecognized, h.Type)
	assert.Equal(t, 5.0, h.Rating)
	assert.Equal(t, 0.0, h.Price)
	assert.Equal(t, 0, h.ReviewCount)
	assert.Equal(t, 1, h.Capacity)
	assert.Equal(t, 1, h.RoomCount)
	assert.Equal(t, 1, h.RoomCapacity)
	assert.Empty(t, h.Amenities)
	assert.Equal(t, domain.AvailabilityMedium, h.AvailabilityLevel)
}

func TestNormalize_ArrayCountsAndNilRecord(t *testing.T) {
	h := app.Normalize(raw(t, `{"reviews": [{"rating": 5}, {"rating": 4}], "rooms": [{}, {}, {}],
		"amenities": ["Gym", " ", "Gym"], "availabilityLevel": "full"}`))
	assert.Equal(t, 2, h.ReviewCount)
	assert.Equal(t, 3, h.RoomCount)
	assert.Equal(t, []string{"Gym"}, h.Amenities.Names())
	assert.Equal(t, domain.AvailabilityLow, h.AvailabilityLevel)

	empty := app.Normalize(nil)
	assert.True(t, empty.Distance.OnCampus)
	assert.Equal(t, 1, empty.Capacity)
}

func TestNormalizeAll_KeepsOrder(t *testing.T) {
	out := app.NormalizeAll([]domain.RawHostel{{"id": "b"}, {"id": "a"}, {"id": "c"}})
	require.Len(t, out, 3)
	assert.Equal(t, "b", out[0].ID)
	assert.Equal(t, "a", out[1].ID)
	assert.Equal(t, "c", out[2].ID)
}
