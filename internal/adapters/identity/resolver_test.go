package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel_booking/internal/adapters/identity"
	"hostel_booking/internal/domain"
)

type profiles map[string]domain.Profile

func (p profiles) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	if id == "broken" {
		return domain.Profile{}, errors.New("db down")
	}
	if pr, ok := p[id]; ok {
		return pr, nil
	}
	return domain.Profile{}, domain.NotFoundError{Resource: "profile", ID: id}
}

func TestResolve_MergesStoredProfileOverClaims(t *testing.T) {
	store := profiles{"u1": {UserID: "u1", Name: "Stored Name", Gender: domain.GenderFemale}}
	r, err := identity.NewResolver("s3cret", store)
	require.NoError(t, err)

	tok, err := r.Issue("u1", identity.Claims{Name: "Claim Name", Email: "u1@uni.test", Gender: "male"}, time.Hour)
	require.NoError(t, err)

	s, err := r.Resolve(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, "Stored Name", s.Profile.Name)
	assert.Equal(t, "u1@uni.test", s.Profile.Email)
	assert.Equal(t, domain.GenderFemale, s.Profile.Gender)
	assert.True(t, s.Valid(time.Now()))
}

func TestResolve_ClaimsOnlyWhenProfileMissing(t *testing.T) {
	r, _ := identity.NewResolver("s3cret", profiles{})
	tok, _ := r.Issue("u2", identity.Claims{Gender: "Mixed"}, time.Hour)

	s, err := r.Resolve(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, domain.Gender(""), s.Profile.Gender, "mixed is not a person gender")
}

func TestResolve_Rejects(t *testing.T) {
	r, _ := identity.NewResolver("s3cret", profiles{})
	other, _ := identity.NewResolver("different", nil)

	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("s3cret"))
	foreign, _ := other.Issue("u1", identity.Claims{}, time.Hour)
	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"name": "x"}).SignedString([]byte("s3cret"))

	for name, tok := range map[string]string{
		"garbage": "not-a-jwt",
		"expired": expired,
		"foreign": foreign,
		"none":    noneAlg,
		"no-sub":  noSub,
	} {
		_, err := r.Resolve(context.Background(), tok)
		assert.ErrorIs(t, err, domain.ErrUnauthorized, name)
	}
}

func TestResolve_ProfileStoreFailure(t *testing.T) {
	r, _ := identity.NewResolver("s3cret", profiles{})
	tok, _ := r.Issue("broken", identity.Claims{}, time.Hour)
	_, err := r.Resolve(context.Background(), tok)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
}

func TestNewResolver_RequiresSecret(t *testing.T) {
	_, err := identity.NewResolver("", nil)
	assert.Error(t, err)
}
