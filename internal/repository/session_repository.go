package repository

import (
	"context"

	"github.com/augmentum/backend/internal/model"
)

// SessionRepository handles persistence for admin sessions.
type SessionRepository interface {
	Create(ctx context.Context, s *model.Session) error
	FindByToken(ctx context.Context, token string) (*model.Session, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByAdminID(ctx context.Context, adminID string) error
}
