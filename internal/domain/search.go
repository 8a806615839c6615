package domain

import "strings"

type SortKey string

const (
	SortRatingDesc  SortKey = "rating-desc"
	SortPriceAsc    SortKey = "price-asc"
	SortPriceDesc   SortKey = "price-desc"
	SortDistanceAsc SortKey = "distance-asc"
)

// FilterAll disables a single-select filter.
const FilterAll = "All"

// ParseSortKey accepts both the canonical keys and the mobile app's legacy ones.
// Empty or unknown keys fall back to rating-desc.
func ParseSortKey(s string) SortKey {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "price-asc", "price-low", "price_asc":
		return SortPriceAsc
	case "price-desc", "price-high", "price_desc":
		return SortPriceDesc
	case "distance-asc", "distance", "distance_asc", "nearest":
		return SortDistanceAsc
	}
	return SortRatingDesc
}

// SearchState is the UI-session scoped query. TypeFilter and GenderFilter are
// single-select: "All" (or empty) or one enum value.
type SearchState struct {
	TextQuery    string  `json:"q"`
	TypeFilter   string  `json:"type"`
	GenderFilter string  `json:"gender"`
	SortKey      SortKey `json:"sort"`
}

func IsAll(filter string) bool {
	f := strings.TrimSpace(filter)
	return f == "" || strings.EqualFold(f, FilterAll)
}
