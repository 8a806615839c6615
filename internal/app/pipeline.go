package app

import (
	"sort"
	"strings"

	"hostel_booking/internal/domain"
)

// ListingView is what the listing screen renders: the featured rail and the
// ordered results. Featured items also appear in Results.
type ListingView struct {
	Featured []domain.Hostel `json:"featured"`
	Results  []domain.Hostel `json:"results"`
}

// Search runs filter, then featured partition, then sort. Input is never mutated.
func Search(hostels []domain.Hostel, st domain.SearchState) ListingView {
	filtered := Filter(hostels, st)
	return ListingView{
		Featured: Featured(filtered),
		Results:  Sort(filtered, st.SortKey),
	}
}

// Filter keeps a hostel iff it matches the text query, the type filter and the
// gender filter. An empty or "All" filter is a no-op.
func Filter(hostels []domain.Hostel, st domain.SearchState) []domain.Hostel {
	q := strings.ToLower(strings.TrimSpace(st.TextQuery))
	out := make([]domain.Hostel, 0, len(hostels))
	for _, h := range hostels {
		if q != "" && !strings.Contains(strings.ToLower(h.Name), q) {
			continue
		}
		if !matchesType(h, st.TypeFilter) || !matchesGender(h, st.GenderFilter) {
			continue
		}
		out = append(out, h)
	}
	return out
}

// unrecognized values only match "All"
func matchesType(h domain.Hostel, filter string) bool {
	if domain.IsAll(filter) {
		return true
	}
	want := domain.ParseHostelType(filter)
	return want != domain.TypeUnrecognized && h.Type == want
}

func matchesGender(h domain.Hostel, filter string) bool {
	if domain.IsAll(filter) {
		return true
	}
	want := domain.ParseGender(filter)
	return want != domain.GenderUnrecognized && h.Gender == want
}

// Sort returns a stably sorted copy. Ties keep their input order.
func Sort(hostels []domain.Hostel, key domain.SortKey) []domain.Hostel {
	out := make([]domain.Hostel, len(hostels))
	copy(out, hostels)

	var less func(a, b domain.Hostel) bool
	switch domain.ParseSortKey(string(key)) {
	case domain.SortPriceAsc:
		less = func(a, b domain.Hostel) bool { return a.Price < b.Price }
	case domain.SortPriceDesc:
		less = func(a, b domain.Hostel) bool { return a.Price > b.Price }
	case domain.SortDistanceAsc:
		less = func(a, b domain.Hostel) bool { return a.Distance.Less(b.Distance) }
	default:
		less = func(a, b domain.Hostel) bool { return a.Rating > b.Rating }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Featured keeps featured hostels in their given order.
func Featured(hostels []domain.Hostel) []domain.Hostel {
	out := make([]domain.Hostel, 0)
	for _, h := range hostels {
		if h.Featured {
			out = append(out, h)
		}
	}
	return out
}
