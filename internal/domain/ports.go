package domain

import "context"

// HostelRepository is the read side of the hostel store. Records come back raw;
// callers normalize them.
type HostelRepository interface {
	ListHostels(ctx context.Context) ([]RawHostel, error)
	GetHostel(ctx context.Context, id string) (RawHostel, error)
}

// HostelWriter is the ingestion write path.
type HostelWriter interface {
	UpsertHostel(ctx context.Context, h Hostel, raw RawHostel) error
	LogMiss(ctx context.Context, id string, status int, reason string) error
}

type BookingRepository interface {
	ListBookingsForUser(ctx context.Context, userID string) ([]RawBooking, error)
	CreateBooking(ctx context.Context, req BookingRequest) (string, error)
}

type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (Profile, error)
}

// ProfileWriter stores the student-editable profile.
type ProfileWriter interface {
	UpsertProfile(ctx context.Context, p Profile) error
}

// IdentityProvider turns an externally issued bearer token into a Session.
type IdentityProvider interface {
	Resolve(ctx context.Context, token string) (Session, error)
}

// HostelSource is where ingestion pulls documents from (headless CMS, seed file).
type HostelSource interface {
	ListHostelIDs(ctx context.Context) ([]string, error)
	FetchHostel(ctx context.Context, id string) (RawHostel, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
