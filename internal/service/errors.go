package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidSession is returned when a session token is unknown.
	ErrInvalidSession = errors.New("invalid_session")
	// ErrSessionExpired is returned when a session token is past its expiry.
	ErrSessionExpired = errors.New("session_expired")
)

// RemoteError wraps a failure of the contact message store (transport,
// auth, or a missing row). Unwrap exposes the cause, so
// errors.Is(err, repository.ErrNotFound) keeps working.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("contact store %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// ValidationError reports a rejected contact form field.
type ValidationError struct {
	Field string
	Code  string // e.g. "email_required", "message_too_long"
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Code)
}
