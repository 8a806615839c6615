package app

import (
	"math"
	"strings"
	"time"

	"hostel_booking/internal/domain"
)

// Project derives the display booking. amountDue is always recomputed from
// total and paid; the upstream value is ignored.
func Project(raw domain.RawBooking, today time.Time) domain.Booking {
	total := deref(raw.TotalAmount)
	paid := deref(raw.AmountPaid)
	due := math.Max(0, total-paid)

	var next *time.Time
	if due > 0 && raw.NextPaymentDate != nil {
		d := *raw.NextPaymentDate
		next = &d
	}

	return domain.Booking{
		ID:              raw.ID,
		HostelID:        raw.HostelID,
		HostelName:      raw.HostelName,
		RoomType:        raw.RoomType,
		RoomNumber:      raw.RoomNumber,
		Status:          projectStatus(raw.Status),
		TotalAmount:     total,
		AmountPaid:      paid,
		AmountDue:       due,
		CheckIn:         raw.CheckIn,
		CheckOut:        raw.CheckOut,
		DaysRemaining:   max(0, daysBetween(today, raw.CheckOut)),
		NextPaymentDate: next,
	}
}

func ProjectAll(raws []domain.RawBooking, today time.Time) []domain.Booking {
	out := make([]domain.Booking, 0, len(raws))
	for _, r := range raws {
		out = append(out, Project(r, today))
	}
	return out
}

// SplitBookings partitions projected bookings into active and past, keeping order.
func SplitBookings(bs []domain.Booking) (active, past []domain.Booking) {
	active, past = []domain.Booking{}, []domain.Booking{}
	for _, b := range bs {
		if b.Status == domain.BookingCompleted {
			past = append(past, b)
		} else {
			active = append(active, b)
		}
	}
	return active, past
}

func projectStatus(s string) domain.BookingStatus {
	if strings.EqualFold(strings.TrimSpace(s), string(domain.BookingCompleted)) {
		return domain.BookingCompleted
	}
	return domain.BookingActive
}

// daysBetween counts whole calendar days in UTC.
func daysBetween(from, to time.Time) int {
	if to.IsZero() {
		return 0
	}
	f := truncateDay(from)
	t := truncateDay(to)
	return int(math.Round(t.Sub(f).Hours() / 24))
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
