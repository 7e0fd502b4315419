package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the local profile mirror of an account owned by the auth provider.
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Name returns the best human-readable label for the user.
func (u *User) Name() string {
	switch {
	case u == nil:
		return "Someone"
	case u.DisplayName != "":
		return u.DisplayName
	case u.Email != "":
		return u.Email
	case u.Phone != "":
		return u.Phone
	default:
		return "Someone"
	}
}
