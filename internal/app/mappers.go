package app

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"hostel_booking/internal/domain"
)

/********** alias registries (single source of truth) **********/

var hostelAliases = map[string][]string{
	"id":           {"id", "_id", "hostel_id", "hostelId"},
	"name":         {"name", "title", "hostel_name", "hostelName"},
	"description":  {"description", "desc", "summary"},
	"type":         {"type", "hostelType", "hostel_type", "category"},
	"gender":       {"gender", "genderPolicy", "gender_policy"},
	"price":        {"price", "pricePerSemester", "price_per_semester", "rent"},
	"rating":       {"rating", "averageRating", "average_rating", "rating.value"},
	"reviewCount":  {"reviewCount", "review_count", "reviewsCount", "reviews"},
	"distance":     {"distance", "distanceKm", "distance_km"},
	"capacity":     {"capacity", "totalCapacity", "total_capacity"},
	"roomCount":    {"roomCount", "room_count", "rooms"},
	"roomCapacity": {"roomCapacity", "room_capacity", "bedsPerRoom"},
	"featured":     {"featured", "isFeatured", "is_featured"},
	"availability": {"availabilityLevel", "availability_level", "availability"},
	"amenities":    {"amenities", "facilities"},
	"images":       {"images", "photos", "gallery"},
	"imageUrl":     {"imageUrl", "image_url", "image", "thumbnail"},
	"rules":        {"rules", "houseRules", "house_rules"},

	"contact.email":   {"contact.email", "contactEmail", "contact_email", "email"},
	"contact.phone":   {"contact.phone", "contactPhone", "contact_phone", "phone"},
	"contact.website": {"contact.website", "contactWebsite", "contact_website", "website"},
	"warden.name":     {"warden.name", "wardenName", "warden_name"},
	"warden.phone":    {"warden.phone", "wardenPhone", "warden_phone"},
	"warden.image":    {"warden.image", "wardenImage", "warden_image"},
	"location.addr":   {"location.address", "address", "address_raw"},
	"location.lat":    {"location.coordinates.lat", "location.lat", "latitude", "lat"},
	"location.lng":    {"location.coordinates.lng", "location.lng", "longitude", "lng", "lon"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		var obj map[string]any
		switch t := cur.(type) {
		case map[string]any:
			obj = t
		case domain.RawHostel:
			obj = t
		default:
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// firstPresent returns the first non-nil value among the alias paths.
func firstPresent(m map[string]any, key string) (any, bool) {
	for _, p := range hostelAliases[key] {
		if v := lookupAny(m, p); v != nil {
			return v, true
		}
	}
	return nil, false
}

func firstStr(m map[string]any, key string) string {
	for _, p := range hostelAliases[key] {
		switch v := lookupAny(m, p).(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}

// parseFloat: number from float64/int/string like "8,0", "1,200" or "1.2 km".
func parseFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		s = normalizeDecimal(strings.TrimSpace(strings.TrimSuffix(s, "km")))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

var groupedThousands = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+$`)

// normalizeDecimal rewrites "1,200" and "1,200.50" to plain numbers and reads
// a lone comma as the decimal mark ("4,5" is 4.5).
func normalizeDecimal(s string) string {
	switch {
	case !strings.Contains(s, ","):
		return s
	case strings.Contains(s, "."):
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			// "1.200,50"
			return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
		}
		return strings.ReplaceAll(s, ",", "")
	case groupedThousands.MatchString(s):
		return strings.ReplaceAll(s, ",", "")
	}
	return strings.ReplaceAll(s, ",", ".")
}

func firstFloat(m map[string]any, key string) (float64, bool) {
	for _, p := range hostelAliases[key] {
		if f, ok := parseFloat(lookupAny(m, p)); ok {
			return f, true
		}
	}
	return 0, false
}

// firstCount reads an integer, or the length of an array (e.g. embedded reviews or rooms).
func firstCount(m map[string]any, key string) (int, bool) {
	for _, p := range hostelAliases[key] {
		v := lookupAny(m, p)
		if arr, ok := v.([]any); ok {
			return len(arr), true
		}
		if f, ok := parseFloat(v); ok {
			return int(f), true
		}
	}
	return 0, false
}

func firstBool(m map[string]any, key string) bool {
	for _, p := range hostelAliases[key] {
		switch v := lookupAny(m, p).(type) {
		case bool:
			return v
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b
			}
		case float64:
			return v != 0
		}
	}
	return false
}

// sliceNames: accept []any with either strings or {name/url/src} objects.
func sliceNames(v any) []string {
	var raw []any
	switch t := v.(type) {
	case []any:
		raw = t
	case []string:
		return append([]string(nil), t...)
	default:
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, it := range raw {
		switch t := it.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, s)
			}
		case map[string]any:
			for _, k := range []string{"name", "url", "src"} {
				if s, ok := t[k].(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, strings.TrimSpace(s))
					break
				}
			}
		}
	}
	return out
}

func firstSlice(m map[string]any, key string) []string {
	for _, p := range hostelAliases[key] {
		if out := sliceNames(lookupAny(m, p)); len(out) > 0 {
			return out
		}
	}
	return nil
}

func firstFloatPtr(m map[string]any, key string) *float64 {
	if f, ok := firstFloat(m, key); ok {
		return &f
	}
	return nil
}

func clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}

func atLeastOne(n int, ok bool) int {
	if !ok || n < 1 {
		return 1
	}
	return n
}

/********** field rules **********/

func isOnCampusMarker(s string) bool {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.NewReplacer("-", "", "_", "", " ", "").Replace(k)
	return k == "incampus" || k == "oncampus"
}

// normalizeDistance: absent or "incampus" is the sentinel; anything else parses
// to a non-negative km value, 0 when unparsable.
func normalizeDistance(m map[string]any) domain.Distance {
	v, ok := firstPresent(m, "distance")
	if !ok {
		return domain.OnCampusDistance()
	}
	if s, isStr := v.(string); isStr && isOnCampusMarker(s) {
		return domain.OnCampusDistance()
	}
	f, _ := parseFloat(v)
	return domain.DistanceKm(f)
}

func normalizeAvailability(s string) domain.Availability {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "available", "open", "plenty":
		return domain.AvailabilityHigh
	case "low", "full", "unavailable", "booked", "sold out", "soldout":
		return domain.AvailabilityLow
	}
	return domain.AvailabilityMedium
}

/********** hostel normalizer **********/

// Normalize maps an untrusted hostel record onto the canonical Hostel. It never
// fails: missing or malformed fields get documented defaults so a single bad
// record cannot blank a listing.
func Normalize(raw domain.RawHostel) domain.Hostel {
	m := map[string]any(raw)
	if m == nil {
		m = map[string]any{}
	}

	price, _ := firstFloat(m, "price")
	rating, _ := firstFloat(m, "rating")
	reviews, _ := firstCount(m, "reviewCount")
	rooms, roomsOK := firstCount(m, "roomCount")
	roomCap, roomCapOK := firstCount(m, "roomCapacity")
	capacity, capOK := firstCount(m, "capacity")

	return domain.Hostel{
		ID:                firstStr(m, "id"),
		Name:              firstStr(m, "name"),
		Description:       firstStr(m, "description"),
		Type:              domain.ParseHostelType(firstStr(m, "type")),
		Gender:            domain.ParseGender(firstStr(m, "gender")),
		Price:             math.Max(0, price),
		Rating:            clamp(rating, 0, 5),
		ReviewCount:       max(0, reviews),
		Distance:          normalizeDistance(m),
		Capacity:          atLeastOne(capacity, capOK),
		RoomCount:         atLeastOne(rooms, roomsOK),
		RoomCapacity:      atLeastOne(roomCap, roomCapOK),
		Featured:          firstBool(m, "featured"),
		AvailabilityLevel: normalizeAvailability(firstStr(m, "availability")),
		Amenities:         domain.NewAmenitySet(firstSlice(m, "amenities")...),
		ImageURL:          firstStr(m, "imageUrl"),
		Images:            firstSlice(m, "images"),
		Contact: domain.Contact{
			Email:   firstStr(m, "contact.email"),
			Phone:   firstStr(m, "contact.phone"),
			Website: firstStr(m, "contact.website"),
		},
		Warden: domain.Warden{
			Name:  firstStr(m, "warden.name"),
			Phone: firstStr(m, "warden.phone"),
			Image: firstStr(m, "warden.image"),
		},
		Location: domain.Location{
			Address: firstStr(m, "location.addr"),
			Lat:     firstFloatPtr(m, "location.lat"),
			Lng:     firstFloatPtr(m, "location.lng"),
		},
		Rules: firstSlice(m, "rules"),
	}
}

// NormalizeAll keeps input order.
func NormalizeAll(raws []domain.RawHostel) []domain.Hostel {
	out := make([]domain.Hostel, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r))
	}
	return out
}
