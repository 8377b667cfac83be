package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"
)

const sessionCookieName = "augmentum_session"

// DefaultSessionDuration はセッションの既定の有効期間
const DefaultSessionDuration = 7 * 24 * time.Hour

// SessionValidator resolves a session token to the signed-in admin ID.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (string, error)
}

// SessionCookieName はセッションクッキー名
func SessionCookieName() string {
	return sessionCookieName
}

// GenerateSessionToken は 32 バイトの乱数から 64 文字の hex トークンを生成する
func GenerateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// SetSessionCookie writes the HttpOnly session cookie.
func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
