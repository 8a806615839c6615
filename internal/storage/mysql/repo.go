package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"hostel_booking/internal/domain"
)

func valStr(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func valDate(p *time.Time) any {
	if p == nil || p.IsZero() {
		return nil
	}
	return dateOnly(*p)
}

func dateOnly(t time.Time) string { return t.UTC().Format(time.DateOnly) }

func nullF64(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}

// Repo is the MySQL store for hostels, bookings and profiles.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- hostels ----

func (r *Repo) UpsertHostel(ctx context.Context, h domain.Hostel, raw domain.RawHostel) error {
	amen, _ := json.Marshal(h.Amenities)
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal raw hostel %s: %w", h.ID, err)
	}
	var distance any
	if !h.Distance.OnCampus {
		distance = h.Distance.Km
	}
	_, err = r.db.ExecContext(ctx, upsertHostelSQL,
		h.ID,
		h.Name,
		string(h.Type),
		string(h.Gender),
		h.Price,
		h.Rating,
		h.ReviewCount,
		distance,
		h.Featured,
		string(amen),
		string(rawJSON),
	)
	return err
}

func (r *Repo) LogMiss(ctx context.Context, id string, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, id, status, reason)
	return err
}

func (r *Repo) ListHostels(ctx context.Context) ([]domain.RawHostel, error) {
	rows, err := r.db.QueryContext(ctx, listHostelsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.RawHostel{}
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		out = append(out, decodeRaw(id, raw))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetHostel(ctx context.Context, id string) (domain.RawHostel, error) {
	var rowID string
	var raw []byte
	if err := r.db.QueryRowContext(ctx, getHostelSQL, id).Scan(&rowID, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError{Resource: "hostel", ID: id}
		}
		return nil, err
	}
	return decodeRaw(rowID, raw), nil
}

// decodeRaw keeps the stored document and pins its id to the row key. A
// corrupt document still yields a record with just the id.
func decodeRaw(id string, b []byte) domain.RawHostel {
	m := domain.RawHostel{}
	if len(b) > 0 {
		_ = json.Unmarshal(b, &m)
		if m == nil {
			m = domain.RawHostel{}
		}
	}
	m["id"] = id
	return m
}

// ---- bookings ----

func (r *Repo) CreateBooking(ctx context.Context, req domain.BookingRequest) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, insertBookingSQL,
		id,
		req.UserID,
		req.HostelID,
		valStr(req.RoomType),
		req.TotalAmount,
		req.TotalAmount,
		dateOnly(req.CheckIn),
		dateOnly(req.CheckOut),
		valDate(req.NextPaymentDate),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repo) ListBookingsForUser(ctx context.Context, userID string) ([]domain.RawBooking, error) {
	rows, err := r.db.QueryContext(ctx, listBookingsForUserSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.RawBooking{}
	for rows.Next() {
		var b domain.RawBooking
		var (
			hostelName, roomType, roomNumber sql.NullString
			total, paid, due                 sql.NullFloat64
			next                             sql.NullTime
		)
		if err := rows.Scan(
			&b.ID,
			&b.UserID,
			&b.HostelID,
			&hostelName,
			&roomType,
			&roomNumber,
			&b.Status,
			&total,
			&paid,
			&due,
			&b.CheckIn,
			&b.CheckOut,
			&next,
		); err != nil {
			return nil, err
		}
		b.HostelName = hostelName.String
		b.RoomType = roomType.String
		b.RoomNumber = roomNumber.String
		b.TotalAmount = nullF64(total)
		b.AmountPaid = nullF64(paid)
		b.AmountDue = nullF64(due)
		if next.Valid {
			t := next.Time
			b.NextPaymentDate = &t
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ---- profiles ----

func (r *Repo) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	var p domain.Profile
	var name, email, phone, studentID, gender sql.NullString
	err := r.db.QueryRowContext(ctx, getProfileSQL, userID).
		Scan(&p.UserID, &name, &email, &phone, &studentID, &gender)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Profile{}, domain.NotFoundError{Resource: "profile", ID: userID}
		}
		return domain.Profile{}, err
	}
	p.Name = name.String
	p.Email = email.String
	p.Phone = phone.String
	p.StudentID = studentID.String
	p.Gender = domain.Gender(strings.ToLower(gender.String))
	return p, nil
}

func (r *Repo) UpsertProfile(ctx context.Context, p domain.Profile) error {
	_, err := r.db.ExecContext(ctx, upsertProfileSQL,
		p.UserID,
		valStr(p.Name),
		valStr(p.Email),
		valStr(p.Phone),
		valStr(p.StudentID),
		valStr(string(p.Gender)),
	)
	return err
}
