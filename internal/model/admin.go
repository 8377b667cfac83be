package model

import "time"

// Admin is an operator allowed to sign in to the dashboard.
type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is a DB-backed sign-in session for an Admin.
type Session struct {
	Token     string
	AdminID   string
	CreatedAt time.Time
	ExpiresAt time.Time
}
