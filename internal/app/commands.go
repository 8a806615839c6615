package app

import (
	"context"
	"errors"

	"hostel_booking/internal/domain"
)

// IngestionService copies hostel documents from a source into the store.
type IngestionService struct {
	source domain.HostelSource
	repo   domain.HostelWriter
	cache  domain.Cache
}

func NewIngestionService(src domain.HostelSource, r domain.HostelWriter, cache domain.Cache) *IngestionService {
	return &IngestionService{source: src, repo: r, cache: cache}
}

func (s *IngestionService) ListIDs(ctx context.Context) ([]string, error) {
	return s.source.ListHostelIDs(ctx)
}

// IngestHostel fetches, normalizes and upserts one hostel. Known upstream
// misses (404, 401/403) are recorded and are not errors.
func (s *IngestionService) IngestHostel(ctx context.Context, id string) error {
	raw, err := s.source.FetchHostel(ctx, id)
	if err != nil {
		switch {
		case domain.IsNotFound(err):
			// evict so we don't keep serving an old snapshot
			_ = s.repo.LogMiss(ctx, id, 404, "not found")
			invalidateHostel(ctx, s.cache, id)
			return nil
		case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
			_ = s.repo.LogMiss(ctx, id, 403, "inactive")
			invalidateHostel(ctx, s.cache, id)
			return nil
		}
		return err
	}

	h := Normalize(raw)
	if h.ID == "" {
		h.ID = id
	}
	if h.Name == "" {
		_ = s.repo.LogMiss(ctx, id, 422, "missing name")
		return nil
	}

	if err := s.repo.UpsertHostel(ctx, h, raw); err != nil {
		return err
	}
	invalidateHostel(ctx, s.cache, h.ID)
	return nil
}
