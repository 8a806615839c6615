package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"hostel_booking/internal/domain"
)

const ledgerResource = "booking_ledger"

type DecisionObserver func(d domain.Decision)

// Dashboard is the profile screen: who the user is and their bookings.
// Stale is set when reloading the bookings failed and the last loaded ones are shown.
type Dashboard struct {
	Profile        domain.Profile   `json:"profile"`
	ActiveBookings []domain.Booking `json:"activeBookings"`
	PastBookings   []domain.Booking `json:"pastBookings"`
	TotalBookings  int              `json:"totalBookings"`
	CurrentBooking *domain.Booking  `json:"currentBooking"`
	Stale          bool             `json:"stale"`
	Notice         string           `json:"notice,omitempty"`
	Error          *ErrorInfo       `json:"error,omitempty"`
}

const staleBookingsNotice = "Showing your last loaded bookings; refreshing failed."

// BookingOutcome is the result of Book. Booking is nil unless the gate allowed it.
type BookingOutcome struct {
	Decision domain.Decision `json:"decision"`
	Booking  *domain.Booking `json:"booking,omitempty"`
}

// BookingService is the booking command surface. The session is always passed in.
type BookingService struct {
	hostels  domain.HostelRepository
	bookings domain.BookingRepository
	ledger   *Registry[[]domain.RawBooking]
	observe  DecisionObserver
	now      func() time.Time
}

func NewBookingService(h domain.HostelRepository, b domain.BookingRepository, cfg ResourceConfig, observe DecisionObserver) *BookingService {
	if observe == nil {
		observe = func(domain.Decision) {}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		hostels:  h,
		bookings: b,
		ledger: NewRegistry(ledgerResource, func(userID string) Fetcher[[]domain.RawBooking] {
			return func(ctx context.Context) ([]domain.RawBooking, error) {
				return b.ListBookingsForUser(ctx, userID)
			}
		}, cfg),
		observe: observe,
		now:     now,
	}
}

// AttemptBooking runs the eligibility gate for the session's profile against one hostel.
func (s *BookingService) AttemptBooking(ctx context.Context, sess domain.Session, hostelID string) (domain.Decision, error) {
	h, err := s.hostel(ctx, hostelID)
	if err != nil {
		return domain.Decision{}, err
	}
	d := CanBook(sess.Profile, h)
	s.observe(d)
	return d, nil
}

// Book validates the request, re-runs the gate and creates the booking only on Allow.
// A denial is returned as a Decision, not an error.
func (s *BookingService) Book(ctx context.Context, sess domain.Session, req domain.BookingRequest) (BookingOutcome, error) {
	if req.CheckIn.IsZero() || req.CheckOut.IsZero() {
		return BookingOutcome{}, domain.ValidationError{Field: "checkIn", Msg: "check-in and check-out dates are required"}
	}
	if req.CheckIn.After(req.CheckOut) {
		return BookingOutcome{}, domain.ValidationError{Field: "checkOut", Msg: "check-in date must be before or equal to check-out date"}
	}

	h, err := s.hostel(ctx, req.HostelID)
	if err != nil {
		return BookingOutcome{}, err
	}
	d := CanBook(sess.Profile, h)
	s.observe(d)
	if !d.Allowed {
		log.Info().Str("user_id", sess.UserID).Str("hostel_id", h.ID).Str("reason", string(d.Reason)).Msg("booking denied")
		return BookingOutcome{Decision: d}, nil
	}

	req.UserID = sess.UserID
	req.HostelID = h.ID
	if req.TotalAmount <= 0 {
		req.TotalAmount = h.Price
	}
	if req.NextPaymentDate == nil {
		next := req.CheckIn
		req.NextPaymentDate = &next
	}

	id, err := s.bookings.CreateBooking(ctx, req)
	if err != nil {
		return BookingOutcome{}, fmt.Errorf("create booking: %w", err)
	}
	// the cached ledger no longer reflects this user's bookings
	s.ledger.Get(sess.UserID).Refetch()

	total, paid := req.TotalAmount, 0.0
	b := Project(domain.RawBooking{
		ID:              id,
		UserID:          req.UserID,
		HostelID:        h.ID,
		HostelName:      h.Name,
		RoomType:        req.RoomType,
		Status:          string(domain.BookingActive),
		TotalAmount:     &total,
		AmountPaid:      &paid,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		NextPaymentDate: req.NextPaymentDate,
	}, s.now())
	log.Info().Str("user_id", sess.UserID).Str("hostel_id", h.ID).Str("booking_id", id).Msg("booking created")
	return BookingOutcome{Decision: d, Booking: &b}, nil
}

// Dashboard loads the user's bookings and projects them for today. The first
// active booking is the current one.
func (s *BookingService) Dashboard(ctx context.Context, sess domain.Session, today time.Time) (Dashboard, error) {
	r := s.ledger.Get(sess.UserID)
	st, err := r.Await(ctx, r.Refetch())
	if err != nil {
		return Dashboard{}, err
	}
	if st.Status == StatusError && !st.HasData {
		s.ledger.Forget(sess.UserID)
		return Dashboard{}, &FetchError{Info: *st.Error}
	}

	all := ProjectAll(st.Data, today)
	active, past := SplitBookings(all)
	out := Dashboard{
		Profile:        sess.Profile,
		ActiveBookings: active,
		PastBookings:   past,
		TotalBookings:  len(all),
	}
	if st.Stale() {
		out.Stale = true
		out.Notice = staleBookingsNotice
		out.Error = st.Error
	}
	if len(active) > 0 {
		cur := active[0]
		out.CurrentBooking = &cur
	}
	return out, nil
}

func (s *BookingService) Close() { s.ledger.Close() }

func (s *BookingService) hostel(ctx context.Context, id string) (domain.Hostel, error) {
	raw, err := s.hostels.GetHostel(ctx, id)
	if err != nil {
		return domain.Hostel{}, err
	}
	h := Normalize(raw)
	if h.ID == "" {
		h.ID = id
	}
	return h, nil
}
