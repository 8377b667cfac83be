package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"

	"github.com/augmentum/backend/internal/model"
	"github.com/augmentum/backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password CreateAdmin accepts.
const MinPasswordLength = 10

// dummyHash はメール未登録時にも bcrypt 比較を行い、応答時間から存在判定されないようにする。
// 初回の SignIn まで生成しない
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("augmentum-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("generate dummy hash: %v", err))
	}
	return h
})

// AuthServiceImpl は AuthService の実装
type AuthServiceImpl struct {
	adminRepo repository.AdminRepository
	sessions  *SessionService
	cost      int
}

// NewAuthService は AuthServiceImpl を生成する（DI: AdminRepository と SessionService を注入）
func NewAuthService(adminRepo repository.AdminRepository, sessions *SessionService) *AuthServiceImpl {
	return &AuthServiceImpl{adminRepo: adminRepo, sessions: sessions, cost: bcrypt.DefaultCost}
}

var _ AuthService = (*AuthServiceImpl)(nil)

// SignIn はメール/パスワードを検証しセッションを発行する
func (s *AuthServiceImpl) SignIn(ctx context.Context, email, password string) (*model.Admin, *model.Session, error) {
	admin, err := s.adminRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("admin lookup failed", "error", err)
			return nil, nil, fmt.Errorf("find admin: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		slog.Info("sign-in rejected", "reason", "unknown_email")
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		slog.Info("sign-in rejected", "reason", "bad_password", "admin_id", admin.ID)
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.sessions.CreateSession(ctx, admin.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}
	slog.Info("admin signed in", "admin_id", admin.ID)
	return admin, session, nil
}

// SignOut はセッションを削除する
func (s *AuthServiceImpl) SignOut(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

// CreateAdmin は管理者を作成する
func (s *AuthServiceImpl) CreateAdmin(ctx context.Context, email, password string) (*model.Admin, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &ValidationError{Field: "email", Code: "invalid_email"}
	}
	if len(password) < MinPasswordLength {
		return nil, &ValidationError{Field: "password", Code: "password_too_short"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	admin := &model.Admin{Email: email, PasswordHash: string(hash)}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	slog.Info("admin created", "admin_id", admin.ID)
	return admin, nil
}

// GetAdmin は ID で管理者を取得する
func (s *AuthServiceImpl) GetAdmin(ctx context.Context, id string) (*model.Admin, error) {
	return s.adminRepo.FindByID(ctx, id)
}

// RevokeSessions はメールアドレスで管理者を特定し、全セッションを削除する（強制ログアウト）
func (s *AuthServiceImpl) RevokeSessions(ctx context.Context, email string) (*model.Admin, error) {
	admin, err := s.adminRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("find admin: %w", err)
	}
	if err := s.sessions.DeleteAllSessions(ctx, admin.ID); err != nil {
		return nil, fmt.Errorf("delete sessions: %w", err)
	}
	slog.Info("admin sessions revoked", "admin_id", admin.ID)
	return admin, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
