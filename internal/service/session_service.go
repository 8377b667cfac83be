package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/augmentum/backend/internal/model"
	"github.com/augmentum/backend/internal/repository"
	"github.com/augmentum/backend/pkg/auth"
)

// SessionService manages DB-backed admin sessions.
// Implements auth.SessionValidator.
type SessionService struct {
	repo repository.SessionRepository
	ttl  time.Duration
	now  func() time.Time
}

var _ auth.SessionValidator = (*SessionService)(nil)

// NewSessionService creates a SessionService. A non-positive ttl means
// auth.DefaultSessionDuration.
func NewSessionService(repo repository.SessionRepository, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = auth.DefaultSessionDuration
	}
	return &SessionService{repo: repo, ttl: ttl, now: time.Now}
}

// CreateSession generates a new opaque token, stores it in DB, and returns the session.
func (s *SessionService) CreateSession(ctx context.Context, adminID string) (*model.Session, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		slog.Error("session token generation failed", "error", err)
		return nil, err
	}
	now := s.now()
	session := &model.Session{
		Token:     token,
		AdminID:   adminID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		slog.Error("session insert failed", "admin_id", adminID, "error", err)
		return nil, err
	}
	slog.Debug("session created", "admin_id", adminID, "expires_at", session.ExpiresAt)
	return session, nil
}

// ValidateSession validates a session token and returns the admin ID.
// Expired sessions are deleted.
func (s *SessionService) ValidateSession(ctx context.Context, token string) (string, error) {
	session, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("session lookup failed", "error", err)
		}
		return "", ErrInvalidSession
	}

	if s.now().After(session.ExpiresAt) {
		slog.Debug("session expired", "admin_id", session.AdminID)
		_ = s.repo.DeleteByToken(ctx, token)
		return "", ErrSessionExpired
	}
	return session.AdminID, nil
}

// DeleteSession removes a session (logout).
func (s *SessionService) DeleteSession(ctx context.Context, token string) error {
	return s.repo.DeleteByToken(ctx, token)
}

// DeleteAllSessions removes all sessions for an admin (forced logout).
func (s *SessionService) DeleteAllSessions(ctx context.Context, adminID string) error {
	return s.repo.DeleteByAdminID(ctx, adminID)
}
