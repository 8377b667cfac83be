package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/augmentum/backend/internal/service"
	"github.com/augmentum/backend/pkg/auth"
)

// AuthHandler は管理者のログイン/ログアウトを扱う HTTP ハンドラ
type AuthHandler struct {
	authService  service.AuthService
	secureCookie bool
}

// NewAuthHandler は AuthHandler を生成する（DI: AuthService を注入）
func NewAuthHandler(authService service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// adminResponse は GET /api/me と POST /api/auth/login のレスポンス
type adminResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Login はメール/パスワードでログインする（POST /api/auth/login）
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "credentials_required")
		return
	}

	admin, session, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		slog.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login_failed")
		return
	}

	auth.SetSessionCookie(w, session.Token, session.ExpiresAt, h.secureCookie)
	writeJSON(w, http.StatusOK, adminResponse{ID: admin.ID, Email: admin.Email, CreatedAt: admin.CreatedAt})
}

// Logout はセッションを破棄しクッキーを削除する（POST /api/auth/logout）
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName()); err == nil && cookie.Value != "" {
		if err := h.authService.SignOut(r.Context(), cookie.Value); err != nil {
			slog.Warn("session delete failed", "error", err)
		}
	}
	auth.ClearSessionCookie(w, h.secureCookie)
	writeJSON(w, http.StatusOK, map[string]string{"ok": "true"})
}

// Me は現在の管理者を返す（GET /api/me、RequireSession の内側で使う）
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	adminID, ok := auth.AdminIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if adminID == auth.DevAdminID {
		writeJSON(w, http.StatusOK, adminResponse{ID: adminID, Email: "dev@localhost"})
		return
	}

	admin, err := h.authService.GetAdmin(r.Context(), adminID)
	if err != nil {
		slog.Warn("session admin not found", "admin_id", adminID, "error", err)
		writeError(w, http.StatusNotFound, "admin_not_found")
		return
	}
	writeJSON(w, http.StatusOK, adminResponse{ID: admin.ID, Email: admin.Email, CreatedAt: admin.CreatedAt})
}
