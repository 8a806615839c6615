package domain

import "time"

type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
)

// RawBooking is a booking row as the booking repository returns it.
// Pointers mark fields upstream may omit.
type RawBooking struct {
	ID              string
	UserID          string
	HostelID        string
	HostelName      string
	RoomType        string
	RoomNumber      string
	Status          string
	TotalAmount     *float64
	AmountPaid      *float64
	AmountDue       *float64 // informational only, always recomputed
	CheckIn         time.Time
	CheckOut        time.Time
	NextPaymentDate *time.Time
}

// Booking is the display projection of a RawBooking.
type Booking struct {
	ID              string        `json:"id"`
	HostelID        string        `json:"hostelId,omitempty"`
	HostelName      string        `json:"hostelName,omitempty"`
	RoomType        string        `json:"roomType,omitempty"`
	RoomNumber      string        `json:"roomNumber,omitempty"`
	Status          BookingStatus `json:"status"`
	TotalAmount     float64       `json:"totalAmount"`
	AmountPaid      float64       `json:"amountPaid"`
	AmountDue       float64       `json:"amountDue"`
	CheckIn         time.Time     `json:"checkIn"`
	CheckOut        time.Time     `json:"checkOut"`
	DaysRemaining   int           `json:"daysRemaining"`
	NextPaymentDate *time.Time    `json:"nextPaymentDate"`
}

type BookingRequest struct {
	UserID          string
	HostelID        string
	RoomType        string
	CheckIn         time.Time
	CheckOut        time.Time
	TotalAmount     float64
	NextPaymentDate *time.Time
}

type DenyReason string

const (
	ReasonGenderMismatch    DenyReason = "gender-mismatch"
	ReasonProfileIncomplete DenyReason = "profile-incomplete"
)

// Decision is the eligibility gate outcome. A denial is a value, not an error.
type Decision struct {
	Allowed bool       `json:"allowed"`
	Reason  DenyReason `json:"reason,omitempty"`
}

func Allow() Decision                 { return Decision{Allowed: true} }
func Deny(reason DenyReason) Decision { return Decision{Reason: reason} }

func (d Decision) String() string {
	if d.Allowed {
		return "allow"
	}
	return "deny:" + string(d.Reason)
}

// Message is the user-facing explanation of a denial.
func (r DenyReason) Message() string {
	switch r {
	case ReasonGenderMismatch:
		return "You cannot book a hostel for a different gender."
	case ReasonProfileIncomplete:
		return "Complete your profile (gender) before booking."
	}
	return "Booking is not allowed."
}
