package domain

import "time"

type Profile struct {
	UserID    string `json:"id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	StudentID string `json:"studentId,omitempty"`
	Gender    Gender `json:"gender,omitempty"`
}

// Session is created at sign-in and passed explicitly to every query needing it.
type Session struct {
	UserID    string
	Profile   Profile
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (s Session) Valid(now time.Time) bool {
	if s.UserID == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}
