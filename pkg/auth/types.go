package auth

import (
	"errors"
	"time"
)

// MinimumAge is the youngest a registered user may be
const MinimumAge = 15

// Validation and credential errors
var (
	ErrUsernameRequired   = errors.New("username is required")
	ErrUnderage           = errors.New("user must be at least 15 years old")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// User represents an account
type User struct {
	ID              int64     `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email,omitempty"`
	Age             int       `json:"age"`
	CanBeContacted  bool      `json:"can_be_contacted"`
	CanDataBeShared bool      `json:"can_data_be_shared"`
	IsAdmin         bool      `json:"is_admin"`
	PasswordHash    string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Validate checks the account rules enforced at registration and update
func (u *User) Validate() error {
	if u.Username == "" {
		return ErrUsernameRequired
	}
	if u.Age < MinimumAge {
		return ErrUnderage
	}
	return nil
}

// Session represents a login session. TokenHash is the SHA-256 of the bearer
// token; the token itself is never stored.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TokenHash string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// RegisterRequest represents request to create an account
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email,omitempty"`
	Password        string `json:"password"`
	Age             int    `json:"age"`
	CanBeContacted  bool   `json:"can_be_contacted"`
	CanDataBeShared bool   `json:"can_data_be_shared"`
}

// LoginRequest represents request to obtain a session token
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateUserRequest represents request to update an account
type UpdateUserRequest struct {
	Email           *string `json:"email,omitempty"`
	Password        *string `json:"password,omitempty"`
	Age             *int    `json:"age,omitempty"`
	CanBeContacted  *bool   `json:"can_be_contacted,omitempty"`
	CanDataBeShared *bool   `json:"can_data_be_shared,omitempty"`
}
