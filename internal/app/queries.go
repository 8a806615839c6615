package app

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"hostel_booking/internal/domain"
)

const hostelListCacheKey = "hostels:all"

func hostelCacheKey(id string) string { return "hostel:" + id }

// Catalog is a cache-through HostelRepository. Concurrent misses for the same
// key share one upstream call.
type Catalog struct {
	repo     domain.HostelRepository
	cache    domain.Cache
	cacheTTL time.Duration
	group    singleflight.Group
}

func NewCatalog(r domain.HostelRepository, c domain.Cache, ttl time.Duration) *Catalog {
	return &Catalog{repo: r, cache: c, cacheTTL: ttl}
}

func (s *Catalog) ListHostels(ctx context.Context) ([]domain.RawHostel, error) {
	var out []domain.RawHostel
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, hostelListCacheKey, &out); ok {
			return out, nil
		}
	}
	return s.fillList(ctx, hostelListCacheKey)
}

// ReloadHostels reads the list from the repository without consulting the
// cache, then overwrites the cached snapshot.
func (s *Catalog) ReloadHostels(ctx context.Context) ([]domain.RawHostel, error) {
	return s.fillList(ctx, "reload:"+hostelListCacheKey)
}

func (s *Catalog) fillList(ctx context.Context, flight string) ([]domain.RawHostel, error) {
	v, err, _ := s.group.Do(flight, func() (any, error) {
		rs, err := s.repo.ListHostels(ctx)
		if err != nil {
			return nil, err
		}
		s.store(ctx, hostelListCacheKey, rs)
		return rs, nil
	})
	if err != nil {
		return nil, err
	}
	// copy so callers sharing a flight never share a backing array
	rs := v.([]domain.RawHostel)
	out := make([]domain.RawHostel, len(rs))
	copy(out, rs)
	return out, nil
}

func (s *Catalog) GetHostel(ctx context.Context, id string) (domain.RawHostel, error) {
	key := hostelCacheKey(id)
	var out domain.RawHostel
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		raw, err := s.repo.GetHostel(ctx, id)
		if err != nil {
			return nil, err
		}
		s.store(ctx, key, raw)
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(domain.RawHostel), nil
}

// Invalidate evicts one hostel and the list snapshot containing it.
func (s *Catalog) Invalidate(ctx context.Context, id string) {
	invalidateHostel(ctx, s.cache, id)
}

func (s *Catalog) store(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	// optional size guard
	if b, _ := json.Marshal(v); len(b) < 4_000_000 {
		_ = s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds()))
	}
}

func invalidateHostel(ctx context.Context, c domain.Cache, id string) {
	if c == nil {
		return
	}
	_ = c.Del(ctx, hostelCacheKey(id))
	_ = c.Del(ctx, hostelListCacheKey)
}
