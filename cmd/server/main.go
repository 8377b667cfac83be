package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/augmentum/backend/internal/config"
	"github.com/augmentum/backend/internal/dashboard"
	"github.com/augmentum/backend/internal/handler"
	"github.com/augmentum/backend/internal/logging"
	"github.com/augmentum/backend/internal/repository"
	"github.com/augmentum/backend/internal/service"
	"github.com/augmentum/backend/pkg/auth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Fatal("failed to connect to database", "error", err)
	}
	defer pool.Close()

	feed := repository.NewChangeFeed(pool, repository.ContactChangeChannel, cfg.ChangeFeedRetry)
	contactRepo := repository.NewPgContactRepository(pool, feed)
	adminRepo := repository.NewPgAdminRepository(pool)
	sessionRepo := repository.NewPgSessionRepository(pool)

	contactService := service.NewContactService(contactRepo)
	sessionService := service.NewSessionService(sessionRepo, cfg.SessionTTL)
	authService := service.NewAuthService(adminRepo, sessionService)

	inbox := dashboard.New(contactService, logger, time.Now, dashboard.Options{
		StrictTransitions: cfg.StrictStatusTransitions,
	})
	// 初回取得に失敗しても ready になり、以降の変更通知か手動 refresh で回復する
	if err := inbox.Init(ctx); err != nil {
		slog.Warn("initial message list failed", "error", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := inbox.Watch(ctx); err != nil {
			slog.Error("change feed unavailable; use POST /api/admin/refresh", "error", err)
		}
	}()

	h := handler.New(adminRepo, cfg.FrontendURL)
	contactHandler := handler.NewContactHandler(contactService)
	authHandler := handler.NewAuthHandler(authService, cfg.CookieSecure)
	inboxHandler := handler.NewAdminInboxHandler(inbox, cfg.Brand)

	contactLimiter := handler.NewRateLimiter(cfg.ContactRateLimit)
	defer contactLimiter.Close()
	loginLimiter := handler.NewRateLimiter(cfg.LoginRateLimit)
	defer loginLimiter.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.Health)
	mux.Handle("POST /api/contact", contactLimiter.Middleware(http.HandlerFunc(contactHandler.Submit)))
	mux.Handle("POST /api/auth/login", loginLimiter.Middleware(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)

	// 認証必要エンドポイント
	wrapAuth := func(next http.Handler) http.Handler {
		if cfg.AuthRequired {
			return auth.RequireSession(sessionService)(next)
		}
		return auth.DevAuth(next)
	}
	if !cfg.AuthRequired {
		slog.Warn("AUTH_REQUIRED=false: admin routes are open")
	}
	mux.Handle("GET /api/me", wrapAuth(http.HandlerFunc(authHandler.Me)))

	// 受信箱 API
	mux.Handle("GET /api/admin/messages", wrapAuth(http.HandlerFunc(inboxHandler.List)))
	mux.Handle("GET /api/admin/stats", wrapAuth(http.HandlerFunc(inboxHandler.Stats)))
	mux.Handle("GET /api/admin/selection", wrapAuth(http.HandlerFunc(inboxHandler.GetSelection)))
	mux.Handle("PUT /api/admin/selection", wrapAuth(http.HandlerFunc(inboxHandler.PutSelection)))
	mux.Handle("PATCH /api/admin/messages/{id}/status", wrapAuth(http.HandlerFunc(inboxHandler.UpdateStatus)))
	mux.Handle("DELETE /api/admin/messages/{id}", wrapAuth(http.HandlerFunc(inboxHandler.Delete)))
	mux.Handle("POST /api/admin/refresh", wrapAuth(http.HandlerFunc(inboxHandler.Refresh)))
	mux.Handle("GET /api/admin/export", wrapAuth(http.HandlerFunc(inboxHandler.Export)))

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler.RequestLogger(handler.SecurityHeaders(h.CORS(mux))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	wg.Wait()
}
