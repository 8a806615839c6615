package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"hostel_booking/internal/domain"
)

// ProfileService lets a signed-in student complete their own profile. Gender
// is what the booking gate reads, so only male or female is stored.
type ProfileService struct {
	store domain.ProfileWriter
}

func NewProfileService(store domain.ProfileWriter) *ProfileService {
	return &ProfileService{store: store}
}

// Update overlays the non-empty fields of patch on the session profile and
// stores the result under the session's user id.
func (s *ProfileService) Update(ctx context.Context, sess domain.Session, patch domain.Profile) (domain.Profile, error) {
	if sess.UserID == "" {
		return domain.Profile{}, domain.ErrUnauthorized
	}
	p := sess.Profile
	p.UserID = sess.UserID
	if patch.Gender != "" {
		g := domain.Gender(strings.ToLower(strings.TrimSpace(string(patch.Gender))))
		if g != domain.GenderMale && g != domain.GenderFemale {
			return domain.Profile{}, domain.ValidationError{Field: "gender", Msg: "must be male or female"}
		}
		p.Gender = g
	}
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&p.Name, patch.Name)
	set(&p.Email, patch.Email)
	set(&p.Phone, patch.Phone)
	set(&p.StudentID, patch.StudentID)
	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	log.Info().Str("user_id", p.UserID).Bool("gender_set", p.Gender != "").Msg("profile updated")
	return p, nil
}
