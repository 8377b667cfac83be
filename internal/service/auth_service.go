package service

import (
	"context"

	"github.com/augmentum/backend/internal/model"
)

// AuthService は管理者のメール/パスワード認証のインターフェース
type AuthService interface {
	// SignIn verifies the credentials and opens a new session.
	SignIn(ctx context.Context, email, password string) (*model.Admin, *model.Session, error)
	// SignOut invalidates the session token.
	SignOut(ctx context.Context, token string) error
	// CreateAdmin registers an operator with a bcrypt-hashed password.
	CreateAdmin(ctx context.Context, email, password string) (*model.Admin, error)
	// GetAdmin returns the admin with the given ID.
	GetAdmin(ctx context.Context, id string) (*model.Admin, error)
	// RevokeSessions signs the admin out everywhere.
	RevokeSessions(ctx context.Context, email string) (*model.Admin, error)
}
