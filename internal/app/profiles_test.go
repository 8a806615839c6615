package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel_booking/internal/app"
	"hostel_booking/internal/domain"
)

type fakeProfiles struct {
	mu    sync.Mutex
	saved map[string]domain.Profile
	err   error
}

func (f *fakeProfiles) UpsertProfile(ctx context.Context, p domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = map[string]domain.Profile{}
	}
	f.saved[p.UserID] = p
	return nil
}

func TestProfileService_UpdateOverlaysSessionProfile(t *testing.T) {
	store := &fakeProfiles{}
	svc := app.NewProfileService(store)
	sess := domain.Session{UserID: "u1", Profile: domain.Profile{UserID: "u1", Name: "Sam", Email: "sam@uni.test"}}

	p, err := svc.Update(context.Background(), sess, domain.Profile{UserID: "someone-else", Gender: " Female ", Phone: "+1 555"})
	require.NoError(t, err)
	assert.Equal(t, domain.Profile{UserID: "u1", Name: "Sam", Email: "sam@uni.test", Phone: "+1 555", Gender: domain.GenderFemale}, p)
	assert.Equal(t, p, store.saved["u1"])
	assert.NotContains(t, store.saved, "someone-else")
}

func TestProfileService_UpdateRejectsUnbookableGender(t *testing.T) {
	store := &fakeProfiles{}
	svc := app.NewProfileService(store)

	_, err := svc.Update(context.Background(), session(""), domain.Profile{Gender: "mixed"})
	var ve domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "gender", ve.Field)
	assert.Empty(t, store.saved)
}

func TestProfileService_UpdateErrors(t *testing.T) {
	svc := app.NewProfileService(&fakeProfiles{err: errors.New("db down")})

	_, err := svc.Update(context.Background(), domain.Session{}, domain.Profile{Gender: domain.GenderMale})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Update(context.Background(), session(""), domain.Profile{Gender: domain.GenderMale})
	assert.ErrorContains(t, err, "db down")
}
