// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"hostel_booking/internal/app"
	"hostel_booking/internal/domain"
)

// Listing is the listing query surface the handlers read from.
type Listing interface {
	Snapshot(st domain.SearchState) (app.ListingView, app.FetchState[[]domain.Hostel])
	Await(ctx context.Context, gen uint64) (app.FetchState[[]domain.Hostel], error)
	Refetch() uint64
	Refresh() uint64
	Subscribe() (<-chan app.FetchState[[]domain.Hostel], func())
	Hostel(ctx context.Context, id string) (app.HostelDetail, error)
}

// Bookings is the booking command surface.
type Bookings interface {
	AttemptBooking(ctx context.Context, sess domain.Session, hostelID string) (domain.Decision, error)
	Book(ctx context.Context, sess domain.Session, req domain.BookingRequest) (app.BookingOutcome, error)
	Dashboard(ctx context.Context, sess domain.Session, today time.Time) (app.Dashboard, error)
}

// Profiles stores the signed-in student's own profile.
type Profiles interface {
	Update(ctx context.Context, sess domain.Session, patch domain.Profile) (domain.Profile, error)
}

type Handlers struct {
	Listing  Listing
	Bookings Bookings
	Profiles Profiles
	Identity domain.IdentityProvider

	validate *validator.Validate
	now      func() time.Time
}

func NewHandlers(l Listing, b Bookings, p Profiles, idp domain.IdentityProvider) *Handlers {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handlers{Listing: l, Bookings: b, Profiles: p, Identity: idp, validate: v, now: time.Now}
}

type problem struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Reason string            `json:"reason,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Group(func(r chi.Router) {
		r.Use(RateLimit(s.limiter))
		r.Get("/v1/hostels/stream", h.streamHostels)

		r.Group(func(r chi.Router) {
			r.Use(Timeout(s.timeout))
			r.Get("/v1/hostels", h.listHostels)
			r.Post("/v1/hostels/refresh", h.refreshHostels)
			r.Get("/v1/hostels/{id}", h.getHostel)

			r.Group(func(r chi.Router) {
				r.Use(Auth(h.Identity))
				r.Get("/v1/hostels/{id}/eligibility", h.eligibility)
				r.Post("/v1/bookings", h.createBooking)
				r.Get("/v1/me/dashboard", h.dashboard)
				if h.Profiles != nil {
					r.Put("/v1/me/profile", h.updateProfile)
				}
			})
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemBody(w, problem{Title: title, Status: status, Detail: detail})
}

func writeProblemBody(w http.ResponseWriter, p problem) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve domain.ValidationError
		fe *app.FetchError
	)
	switch {
	case errors.As(err, &ve):
		p := problem{Title: "Invalid request", Status: http.StatusBadRequest, Detail: ve.Error()}
		if ve.Field != "" {
			p.Errors = map[string]string{ve.Field: ve.Msg}
		}
		writeProblemBody(w, p)
	case domain.IsNotFound(err):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "")
	case errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusForbidden, "Forbidden", "")
	case errors.As(err, &fe):
		w.Header().Set("Retry-After", "5")
		writeProblem(w, http.StatusServiceUnavailable, "Upstream unavailable", fe.Info.Message)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeProblem(w, http.StatusGatewayTimeout, "Timeout", "the request did not complete in time")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// writeInvalid answers a failed validator run with the offending fields.
func writeInvalid(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, r, err)
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	writeProblemBody(w, problem{Title: "Invalid request", Status: http.StatusBadRequest, Detail: "payload failed validation", Errors: fields})
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCacheable writes v with a weak ETag, answering 304 when the client has it.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// ---- listing ----

const (
	staleNotice       = "Showing the last loaded hostels; refreshing failed."
	staleDetailNotice = "Showing the last loaded details; refreshing failed."
)

type listingMeta struct {
	Status     app.FetchStatus `json:"status"`
	Generation uint64          `json:"generation"`
	Refreshing bool            `json:"refreshing"`
	Stale      bool            `json:"stale"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	Error      *app.ErrorInfo  `json:"error,omitempty"`
	Notice     string          `json:"notice,omitempty"`
	Total      int             `json:"total"`
}

type listingResponse struct {
	Featured []domain.Hostel `json:"featured"`
	Results  []domain.Hostel `json:"results"`
	Meta     listingMeta     `json:"meta"`
}

func searchState(r *http.Request) domain.SearchState {
	q := r.URL.Query()
	return domain.SearchState{
		TextQuery:    q.Get("q"),
		TypeFilter:   q.Get("type"),
		GenderFilter: q.Get("gender"),
		SortKey:      domain.ParseSortKey(q.Get("sort")),
	}
}

func nonNil(hs []domain.Hostel) []domain.Hostel {
	if hs == nil {
		return []domain.Hostel{}
	}
	return hs
}

func (h *Handlers) listHostels(w http.ResponseWriter, r *http.Request) {
	st := searchState(r)
	view, state := h.Listing.Snapshot(st)
	if !state.HasData && state.Status != app.StatusError {
		// first load still in flight
		if _, err := h.Listing.Await(r.Context(), state.Generation); err != nil {
			writeError(w, r, err)
			return
		}
		view, state = h.Listing.Snapshot(st)
	}
	if !state.HasData && state.Status == app.StatusError {
		w.Header().Set("Retry-After", "5")
		detail := "hostels could not be loaded"
		if state.Error != nil {
			detail = state.Error.Message
		}
		writeProblemBody(w, problem{
			Title:  "Hostels unavailable",
			Status: http.StatusServiceUnavailable,
			Detail: detail + "; retry with POST /v1/hostels/refresh",
		})
		return
	}

	meta := listingMeta{
		Status:     state.Status,
		Generation: state.CommittedGeneration,
		Refreshing: state.Refreshing,
		Stale:      state.Stale(),
		UpdatedAt:  state.UpdatedAt,
		Error:      state.Error,
		Total:      len(view.Results),
	}
	if meta.Stale {
		meta.Notice = staleNotice
		w.Header().Set("X-Listing-Stale", "true")
	}
	writeCacheable(w, r, listingResponse{
		Featured: nonNil(view.Featured),
		Results:  nonNil(view.Results),
		Meta:     meta,
	})
}

// refreshHostels is pull-to-refresh; ?mode=refetch forces a fresh generation.
func (h *Handlers) refreshHostels(w http.ResponseWriter, r *http.Request) {
	var gen uint64
	if r.URL.Query().Get("mode") == "refetch" {
		gen = h.Listing.Refetch()
	} else {
		gen = h.Listing.Refresh()
	}
	writeJSON(w, http.StatusAccepted, map[string]uint64{"generation": gen})
}

func (h *Handlers) getHostel(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id is required")
		return
	}
	d, err := h.Listing.Hostel(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if d.Stale {
		w.Header().Set("X-Listing-Stale", "true")
		w.Header().Set("X-Listing-Notice", staleDetailNotice)
	}
	writeCacheable(w, r, d.Hostel)
}

// ---- bookings ----

type eligibilityResponse struct {
	HostelID string            `json:"hostelId"`
	Allowed  bool              `json:"allowed"`
	Reason   domain.DenyReason `json:"reason,omitempty"`
	Message  string            `json:"message,omitempty"`
}

func (h *Handlers) eligibility(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	id := chi.URLParam(r, "id")
	d, err := h.Bookings.AttemptBooking(r.Context(), sess, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := eligibilityResponse{HostelID: id, Allowed: d.Allowed, Reason: d.Reason}
	if !d.Allowed {
		out.Message = d.Reason.Message()
	}
	writeJSON(w, http.StatusOK, out)
}

type bookingPayload struct {
	HostelID        string  `json:"hostelId" validate:"required,max=64"`
	RoomType        string  `json:"roomType" validate:"omitempty,max=64"`
	CheckIn         string  `json:"checkIn" validate:"required,datetime=2006-01-02"`
	CheckOut        string  `json:"checkOut" validate:"required,datetime=2006-01-02"`
	TotalAmount     float64 `json:"totalAmount" validate:"gte=0"`
	NextPaymentDate string  `json:"nextPaymentDate" validate:"omitempty,datetime=2006-01-02"`
}

func (p bookingPayload) request() domain.BookingRequest {
	day := func(s string) time.Time {
		t, _ := time.ParseInLocation(time.DateOnly, s, time.UTC)
		return t
	}
	req := domain.BookingRequest{
		HostelID:    p.HostelID,
		RoomType:    p.RoomType,
		CheckIn:     day(p.CheckIn),
		CheckOut:    day(p.CheckOut),
		TotalAmount: p.TotalAmount,
	}
	if p.NextPaymentDate != "" {
		next := day(p.NextPaymentDate)
		req.NextPaymentDate = &next
	}
	return req
}

type bookingCreated struct {
	ID       string          `json:"id"`
	Decision domain.Decision `json:"decision"`
	Booking  *domain.Booking `json:"booking"`
}

const maxBookingBody = 64 << 10

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	var p bookingPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBookingBody)).Decode(&p); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(p); err != nil {
		writeInvalid(w, r, err)
		return
	}

	out, err := h.Bookings.Book(r.Context(), sess, p.request())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !out.Decision.Allowed {
		writeProblemBody(w, problem{
			Title:  "Booking not allowed",
			Status: http.StatusUnprocessableEntity,
			Detail: out.Decision.Reason.Message(),
			Reason: string(out.Decision.Reason),
		})
		return
	}
	w.Header().Set("Location", "/v1/me/dashboard")
	writeJSON(w, http.StatusCreated, bookingCreated{ID: out.Booking.ID, Decision: out.Decision, Booking: out.Booking})
}

func (h *Handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	d, err := h.Bookings.Dashboard(r.Context(), sess, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "private, no-store")
	w.Header().Set("X-Total-Bookings", strconv.Itoa(d.TotalBookings))
	if d.Stale {
		w.Header().Set("X-Dashboard-Stale", "true")
	}
	writeJSON(w, http.StatusOK, d)
}

// ---- profile ----

type profilePayload struct {
	Name      string `json:"name" validate:"omitempty,max=255"`
	Email     string `json:"email" validate:"omitempty,email,max=255"`
	Phone     string `json:"phone" validate:"omitempty,max=64"`
	StudentID string `json:"studentId" validate:"omitempty,max=64"`
	Gender    string `json:"gender" validate:"omitempty,oneof=male female"`
}

const maxProfileBody = 16 << 10

// updateProfile lets the student fill in what the booking gate needs.
// The user id always comes from the session, never the body.
func (h *Handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	var p profilePayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProfileBody)).Decode(&p); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	p.Gender = strings.ToLower(strings.TrimSpace(p.Gender))
	p.Email = strings.TrimSpace(p.Email)
	if err := h.validate.Struct(p); err != nil {
		writeInvalid(w, r, err)
		return
	}

	out, err := h.Profiles.Update(r.Context(), sess, domain.Profile{
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		StudentID: p.StudentID,
		Gender:    domain.Gender(p.Gender),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "private, no-store")
	writeJSON(w, http.StatusOK, out)
}
