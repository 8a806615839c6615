package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"hostel_booking/internal/domain"
)

const (
	listingResource = "hostel_list"
	detailResource  = "hostel_detail"
)

// HostelReloader is a HostelRepository that can skip its own cache.
type HostelReloader interface {
	ReloadHostels(ctx context.Context) ([]domain.RawHostel, error)
}

// ListingService is the listing query surface: one list resource plus a
// per-id detail registry, both fed by the same hostel repository.
type ListingService struct {
	repo    domain.HostelRepository
	list    *Resource[[]domain.Hostel]
	details *Registry[domain.Hostel]
}

func NewListingService(repo domain.HostelRepository, cfg ResourceConfig) *ListingService {
	s := &ListingService{repo: repo}
	s.list = NewResource(listingResource, func(ctx context.Context) ([]domain.Hostel, error) {
		load := repo.ListHostels
		// the first load may be served from cache; refetch and refresh go upstream
		if rl, ok := repo.(HostelReloader); ok && GenerationFrom(ctx) > 1 {
			load = rl.ReloadHostels
		}
		raws, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return NormalizeAll(raws), nil
	}, cfg)
	s.details = NewRegistry(detailResource, func(id string) Fetcher[domain.Hostel] {
		return func(ctx context.Context) (domain.Hostel, error) {
			raw, err := repo.GetHostel(ctx, id)
			if err != nil {
				return domain.Hostel{}, err
			}
			h := Normalize(raw)
			if h.ID == "" {
				h.ID = id
			}
			return h, nil
		}
	}, cfg)
	return s
}

// Start kicks off the first load and, when interval > 0, refreshes the list
// periodically until ctx is done.
func (s *ListingService) Start(ctx context.Context, interval time.Duration) {
	s.list.Ensure()
	if interval <= 0 {
		return
	}
	triggers := make(chan Trigger)
	go s.list.Watch(ctx, triggers)
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				select {
				case triggers <- TriggerRefresh:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("listing refresh scheduled")
}

// Search renders the current list through the filter/sort pipeline.
func (s *ListingService) Search(st domain.SearchState) ListingView {
	view, _ := s.Snapshot(st)
	return view
}

// Snapshot returns the view together with the fetch state it was computed from.
func (s *ListingService) Snapshot(st domain.SearchState) (ListingView, FetchState[[]domain.Hostel]) {
	s.list.Ensure()
	state := s.list.State()
	return Search(state.Data, st), state
}

func (s *ListingService) CurrentState() FetchState[[]domain.Hostel] { return s.list.State() }

func (s *ListingService) Refetch() uint64 { return s.list.Refetch() }

func (s *ListingService) Refresh() uint64 { return s.list.Refresh() }

// Await blocks until the list generation gen has settled.
func (s *ListingService) Await(ctx context.Context, gen uint64) (FetchState[[]domain.Hostel], error) {
	return s.list.Await(ctx, gen)
}

func (s *ListingService) Subscribe() (<-chan FetchState[[]domain.Hostel], func()) {
	return s.list.Subscribe()
}

// HostelDetail is one detail lookup. Stale is set when the latest reload
// failed and Hostel is the last good copy; Error then holds the failure.
type HostelDetail struct {
	Hostel domain.Hostel
	Stale  bool
	Error  *ErrorInfo
}

// Hostel loads one normalized hostel through its detail resource. A failed
// reload still returns previously loaded data, marked stale, except for
// not-found. Ids that never loaded are not kept.
func (s *ListingService) Hostel(ctx context.Context, id string) (HostelDetail, error) {
	r := s.details.Get(id)
	st, err := r.Await(ctx, r.Refetch())
	if err != nil {
		return HostelDetail{}, err
	}
	if st.Status == StatusError {
		if st.Error.Kind == KindNotFound {
			s.details.Forget(id)
			return HostelDetail{}, domain.NotFoundError{Resource: "hostel", ID: id}
		}
		if !st.HasData {
			s.details.Forget(id)
			return HostelDetail{}, &FetchError{Info: *st.Error}
		}
	}
	return HostelDetail{Hostel: st.Data, Stale: st.Stale(), Error: st.Error}, nil
}

// DetailCount reports how many hostel detail resources are held.
func (s *ListingService) DetailCount() int { return s.details.Len() }

func (s *ListingService) Close() {
	s.list.Close()
	s.list.Drain()
	s.details.Close()
}
