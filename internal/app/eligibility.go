package app

import "hostel_booking/internal/domain"

// CanBook is the booking gate. Only male and female are valid person genders;
// anything else on the profile denies with profile-incomplete.
func CanBook(p domain.Profile, h domain.Hostel) domain.Decision {
	switch p.Gender {
	case domain.GenderMale, domain.GenderFemale:
	default:
		return domain.Deny(domain.ReasonProfileIncomplete)
	}
	if h.Gender != domain.GenderMixed && h.Gender != p.Gender {
		return domain.Deny(domain.ReasonGenderMismatch)
	}
	return domain.Allow()
}
