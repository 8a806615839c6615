package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel_booking/internal/app"
	"hostel_booking/internal/domain"
)

func waitList(t *testing.T, s *app.ListingService, gen uint64) app.FetchState[[]domain.Hostel] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := s.Await(ctx, gen)
	require.NoError(t, err)
	return st
}

func TestListingService_SearchOverLoadedList(t *testing.T) {
	repo := &fakeRepo{list: []domain.RawHostel{
		{"id": "1", "name": "Maple", "price": 850, "gender": "Male", "type": "On-campus"},
		{"id": "2", "name": "Cedar", "price": 650, "gender": "Female", "type": "Off-campus", "featured": true},
		{"id": "3", "name": "Birch", "price": 1200, "gender": "Mixed", "type": "Off-campus"},
	}, block: make(chan struct{})}
	s := app.NewListingService(repo, app.ResourceConfig{})
	defer s.Close()

	view, st := s.Snapshot(domain.SearchState{})
	assert.Equal(t, app.StatusLoading, st.Status)
	assert.Empty(t, view.Results)
	close(repo.block)

	st = waitList(t, s, st.Generation)
	assert.Equal(t, app.StatusSuccess, st.Status)

	view = s.Search(domain.SearchState{TypeFilter: "All", GenderFilter: "All", SortKey: domain.SortPriceAsc})
	assert.Equal(t, []string{"2", "1", "3"}, ids(view.Results))
	assert.Equal(t, []string{"2"}, ids(view.Featured))

	view = s.Search(domain.SearchState{TypeFilter: "Off-campus", SortKey: "price-high"})
	assert.Equal(t, []string{"3", "2"}, ids(view.Results))
}

func TestListingService_RefreshFailureKeepsList(t *testing.T) {
	repo := &fakeRepo{list: []domain.RawHostel{{"id": "A"}, {"id": "B"}, {"id": "C"}}}
	s := app.NewListingService(repo, app.ResourceConfig{})
	defer s.Close()

	waitList(t, s, s.Refetch())

	repo.setList(nil, errors.New("502 bad gateway"))
	st := waitList(t, s, s.Refresh())

	assert.Equal(t, app.StatusError, st.Status)
	assert.Equal(t, []string{"A", "B", "C"}, ids(st.Data))
	assert.True(t, st.Stale())
	assert.Equal(t, []string{"A", "B", "C"}, ids(s.Search(domain.SearchState{}).Results))
}

func TestListingService_RefreshBypassesListCache(t *testing.T) {
	repo := &fakeRepo{list: []domain.RawHostel{{"id": "A"}}}
	cache := &fakeCache{}
	s := app.NewListingService(app.NewCatalog(repo, cache, time.Hour), app.ResourceConfig{})
	defer s.Close()

	st := waitList(t, s, s.Refetch())
	require.Equal(t, []string{"A"}, ids(st.Data))
	require.True(t, cache.has("hostels:all"))

	repo.setList([]domain.RawHostel{{"id": "A"}, {"id": "B"}}, nil)
	st = waitList(t, s, s.Refresh())
	assert.Equal(t, app.StatusSuccess, st.Status)
	assert.Equal(t, []string{"A", "B"}, ids(st.Data))
	assert.EqualValues(t, 2, repo.calls.Load())
}

func TestListingService_FirstLoadFailure(t *testing.T) {
	repo := &fakeRepo{listErr: errors.New("connection refused")}
	s := app.NewListingService(repo, app.ResourceConfig{})
	defer s.Close()

	st := waitList(t, s, s.Refetch())
	assert.Equal(t, app.StatusError, st.Status)
	assert.False(t, st.HasData)
	require.NotNil(t, st.Error)
	assert.Equal(t, app.KindTransport, st.Error.Kind)
}

func TestListingService_Hostel(t *testing.T) {
	repo := &fakeRepo{byID: map[string]domain.RawHostel{"9": {"name": "Elm", "distance": "incampus"}}}
	s := app.NewListingService(repo, app.ResourceConfig{})
	defer s.Close()

	d, err := s.Hostel(context.Background(), "9")
	require.NoError(t, err)
	assert.Equal(t, "9", d.Hostel.ID)
	assert.Equal(t, "Elm", d.Hostel.Name)
	assert.True(t, d.Hostel.Distance.OnCampus)
	assert.False(t, d.Stale)

	_, err = s.Hostel(context.Background(), "missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestListingService_HostelReloadFailureIsStale(t *testing.T) {
	repo := &fakeRepo{byID: map[string]domain.RawHostel{"9": {"name": "Elm"}}}
	s := app.NewListingService(repo, app.ResourceConfig{})
	defer s.Close()
	ctx := context.Background()

	_, err := s.Hostel(ctx, "9")
	require.NoError(t, err)

	repo.setGetErr(errors.New("connection reset"))
	d, err := s.Hostel(ctx, "9")
	require.NoError(t, err)
	assert.True(t, d.Stale)
	assert.Equal(t, "Elm", d.Hostel.Name)
	require.NotNil(t, d.Error)
	assert.Equal(t, app.KindTransport, d.Error.Kind)

	repo.setGetErr(nil)
	d, err = s.Hostel(ctx, "9")
	require.NoError(t, err)
	assert.False(t, d.Stale)
	assert.Nil(t, d.Error)
}

func TestListingService_HostelFailureWithoutDataIsForgotten(t *testing.T) {
	repo := &fakeRepo{getErr: errors.New("connection refused")}
	s := app.NewListingService(repo, app.ResourceConfig{})
	defer s.Close()

	_, err := s.Hostel(context.Background(), "7")
	var fe *app.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, app.KindTransport, fe.Info.Kind)
	assert.Zero(t, s.DetailCount())
}

func TestListingService_StartSchedulesRefresh(t *testing.T) {
	repo := &fakeRepo{list: []domain.RawHostel{{"id": "1"}}}
	s := app.NewListingService(repo, app.ResourceConfig{})
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return s.CurrentState().CommittedGeneration >= 3
	}, 2*time.Second, 5*time.Millisecond)
}
