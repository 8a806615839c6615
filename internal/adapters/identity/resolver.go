// Package identity turns an externally issued bearer token into a domain.Session.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hostel_booking/internal/domain"
)

// Claims is what the identity provider puts in its HS256 tokens.
type Claims struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	StudentID string `json:"studentId,omitempty"`
	Gender    string `json:"gender,omitempty"`
	jwt.RegisteredClaims
}

// Resolver verifies the token, then merges the stored profile over the claims.
// A profile store that has never seen the user is fine; claims alone are used.
type Resolver struct {
	secret   []byte
	profiles domain.ProfileRepository
	now      func() time.Time
}

func NewResolver(secret string, profiles domain.ProfileRepository) (*Resolver, error) {
	if secret == "" {
		return nil, errors.New("identity: JWT secret is required")
	}
	return &Resolver{secret: []byte(secret), profiles: profiles, now: time.Now}, nil
}

func (r *Resolver) Resolve(ctx context.Context, token string) (domain.Session, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(r.now))
	if err != nil {
		return domain.Session{}, fmt.Errorf("identity: %w: %v", domain.ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return domain.Session{}, fmt.Errorf("identity: %w: token has no subject", domain.ErrUnauthorized)
	}

	p := domain.Profile{
		UserID:    claims.Subject,
		Name:      claims.Name,
		Email:     claims.Email,
		Phone:     claims.Phone,
		StudentID: claims.StudentID,
		Gender:    personGender(claims.Gender),
	}
	if r.profiles != nil {
		stored, err := r.profiles.GetProfile(ctx, claims.Subject)
		switch {
		case err == nil:
			p = merge(stored, p)
		case domain.IsNotFound(err):
		default:
			return domain.Session{}, fmt.Errorf("identity: load profile: %w", err)
		}
	}

	s := domain.Session{UserID: claims.Subject, Profile: p}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Issue signs a token for userID. Used by tests and local tooling.
func (r *Resolver) Issue(userID string, c Claims, ttl time.Duration) (string, error) {
	now := r.now()
	c.Subject = userID
	c.IssuedAt = jwt.NewNumericDate(now)
	c.NotBefore = jwt.NewNumericDate(now)
	if ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(r.secret)
}

// profile fields win, claims fill gaps
func merge(stored, claims domain.Profile) domain.Profile {
	out := stored
	out.UserID = claims.UserID
	if out.Name == "" {
		out.Name = claims.Name
	}
	if out.Email == "" {
		out.Email = claims.Email
	}
	if out.Phone == "" {
		out.Phone = claims.Phone
	}
	if out.StudentID == "" {
		out.StudentID = claims.StudentID
	}
	out.Gender = personGender(string(out.Gender))
	if out.Gender == "" {
		out.Gender = claims.Gender
	}
	return out
}

// personGender keeps only male/female; anything else is left unset.
func personGender(s string) domain.Gender {
	switch g := domain.ParseGender(s); g {
	case domain.GenderMale, domain.GenderFemale:
		return g
	}
	return ""
}
