package auth

import (
	"context"
	"encoding/json"
	"net/http"
)

type contextKey string

const adminIDKey contextKey = "admin_id"

// AdminIDFromContext は context から adminID を取得する
func AdminIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(adminIDKey).(string)
	return v, ok && v != ""
}

// WithAdminID は context に adminID をセットする
func WithAdminID(ctx context.Context, adminID string) context.Context {
	return context.WithValue(ctx, adminIDKey, adminID)
}

// RequireSession は認証必須ミドルウェア。セッションクッキーを検証し、adminID を context にセットする
func RequireSession(sv SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName())
			if err != nil || cookie.Value == "" {
				writeUnauthorized(w, "unauthorized")
				return
			}

			adminID, err := sv.ValidateSession(r.Context(), cookie.Value)
			if err != nil {
				writeUnauthorized(w, "invalid_session")
				return
			}

			ctx := WithAdminID(r.Context(), adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// DevAdminID は開発用のダミー adminID（AUTH_REQUIRED=false 時に使用）
const DevAdminID = "dev-admin-id"

// DevAuth は開発用ミドルウェア。ダミー adminID を context にセットする
func DevAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithAdminID(r.Context(), DevAdminID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
