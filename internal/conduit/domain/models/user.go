package models

import "time"

type User struct {
	ID           int64     `json:"-"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Bio          *string   `json:"bio"`
	Image        *string   `json:"image"`
	LockVersion  int       `json:"lock_version"` //nolint:tagliatelle
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// Profile is a user as seen by another user.
type Profile struct {
	ID        int64   `json:"-"`
	Username  string  `json:"username"`
	Bio       *string `json:"bio"`
	Image     *string `json:"image"`
	Following bool    `json:"following"`
}
