package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// RawHostel is an untrusted hostel document as stored upstream (CMS, relational raw column, seed file).
type RawHostel map[string]any

type HostelType string

const (
	TypeOnCampus     HostelType = "on-campus"
	TypeOffCampus    HostelType = "off-campus"
	TypeUnrecognized HostelType = "unrecognized"
)

type Gender string

const (
	GenderMale         Gender = "male"
	GenderFemale       Gender = "female"
	GenderMixed        Gender = "mixed"
	GenderUnrecognized Gender = "unrecognized"
)

type Availability string

const (
	AvailabilityHigh   Availability = "High"
	AvailabilityMedium Availability = "Medium"
	AvailabilityLow    Availability = "Low"
)

// ParseHostelType lower-cases s and matches the spellings seen upstream.
func ParseHostelType(s string) HostelType {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.NewReplacer("_", "-", " ", "-").Replace(k)
	switch k {
	case "on-campus", "oncampus", "in-campus", "incampus":
		return TypeOnCampus
	case "off-campus", "offcampus", "out-campus":
		return TypeOffCampus
	}
	return TypeUnrecognized
}

func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m", "boys", "men":
		return GenderMale
	case "female", "f", "girls", "women":
		return GenderFemale
	case "mixed", "mixed-gender", "coed", "co-ed", "unisex":
		return GenderMixed
	}
	return GenderUnrecognized
}

// Distance is either the on-campus sentinel or a non-negative distance in km.
type Distance struct {
	OnCampus bool
	Km       float64
}

const onCampusLabel = "on-campus"

func OnCampusDistance() Distance { return Distance{OnCampus: true} }

func DistanceKm(km float64) Distance {
	if km < 0 {
		km = 0
	}
	return Distance{Km: km}
}

// Less orders the sentinel before every finite distance.
func (d Distance) Less(o Distance) bool {
	switch {
	case d.OnCampus && o.OnCampus:
		return false
	case d.OnCampus:
		return true
	case o.OnCampus:
		return false
	}
	return d.Km < o.Km
}

func (d Distance) String() string {
	if d.OnCampus {
		return onCampusLabel
	}
	return fmt.Sprintf("%gkm", d.Km)
}

func (d Distance) MarshalJSON() ([]byte, error) {
	if d.OnCampus {
		return json.Marshal(onCampusLabel)
	}
	return json.Marshal(d.Km)
}

func (d *Distance) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*d = OnCampusDistance()
		return nil
	}
	var km float64
	if err := json.Unmarshal(b, &km); err != nil {
		return err
	}
	*d = DistanceKm(km)
	return nil
}

// AmenitySet holds amenity names; order is irrelevant.
type AmenitySet map[string]struct{}

func NewAmenitySet(names ...string) AmenitySet {
	s := make(AmenitySet, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

func (s AmenitySet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s AmenitySet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (s AmenitySet) MarshalJSON() ([]byte, error) { return json.Marshal(s.Names()) }

func (s *AmenitySet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	*s = NewAmenitySet(names...)
	return nil
}

type Contact struct {
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
}

type Warden struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Image string `json:"image,omitempty"`
}

type Location struct {
	Address string   `json:"address,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// Hostel is the canonical, normalized listing. Nothing in the core mutates one.
type Hostel struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	Type              HostelType   `json:"type"`
	Gender            Gender       `json:"gender"`
	Price             float64      `json:"price"`
	Rating            float64      `json:"rating"`
	ReviewCount       int          `json:"reviewCount"`
	Distance          Distance     `json:"distanceKm"`
	Capacity          int          `json:"capacity"`
	RoomCount         int          `json:"roomCount"`
	RoomCapacity      int          `json:"roomCapacity"`
	Featured          bool         `json:"featured"`
	AvailabilityLevel Availability `json:"availabilityLevel"`
	Amenities         AmenitySet   `json:"amenities"`

	// passthrough, unused by filtering and sorting
	ImageURL string   `json:"imageUrl,omitempty"`
	Images   []string `json:"images,omitempty"`
	Contact  Contact  `json:"contact"`
	Warden   Warden   `json:"warden"`
	Location Location `json:"location"`
	Rules    []string `json:"rules,omitempty"`
}
