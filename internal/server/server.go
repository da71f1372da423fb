// Package server собирает HTTP-сервер разработки: маршруты, middleware и
// корректную остановку.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/iudanet/tradedesk/internal/server/config"
	"github.com/iudanet/tradedesk/internal/server/handlers"
	"github.com/iudanet/tradedesk/internal/server/middleware"
	"github.com/iudanet/tradedesk/internal/server/storage"
	"github.com/iudanet/tradedesk/internal/server/tokens"
	"github.com/iudanet/tradedesk/pkg/api"
)

// ShutdownTimeout время на завершение активных запросов при остановке
const ShutdownTimeout = 10 * time.Second

// Store хранилище сервера
type Store interface {
	storage.UserStorage
	storage.ResourceStorage
	storage.VoucherStorage
	handlers.Pinger
}

// Server HTTP-сервер TradeDesk
type Server struct {
	logger  *slog.Logger
	store   Store
	issuer  *tokens.Issuer
	metrics *middleware.Metrics
	limiter *middleware.RateLimiter
	cfg     *config.Config
	version string
}

// New создает сервер. Токены подписываются секретом из конфигурации.
func New(cfg *config.Config, store Store, logger *slog.Logger, version string) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		logger:  logger,
		version: version,
		issuer:  tokens.NewIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL),
		metrics: middleware.NewMetrics(),
	}
	if cfg.RateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit, logger, s.metrics)
		s.limiter.TrustProxies(cfg.TrustedProxyPrefixes())
	}
	return s
}

// Handler возвращает корневой handler со всеми маршрутами и middleware
func (s *Server) Handler() http.Handler {
	authH := handlers.NewAuthHandler(s.logger, s.store, s.issuer)
	resourceH := handlers.NewResourceHandler(s.logger, s.store)
	voucherH := handlers.NewVoucherHandler(s.logger, s.store)
	adminH := handlers.NewAdminHandler(s.logger, s.store, s.store)
	healthH := handlers.NewHealthHandler(s.logger, s.store, s.version)

	authenticated := middleware.AuthMiddleware(s.logger, s.issuer)
	admin := middleware.RequireRole(s.logger, s.store, api.RoleAdmin)

	public := func(h http.HandlerFunc) http.Handler {
		if s.limiter == nil {
			return h
		}
		return s.limiter.Middleware(h)
	}
	private := func(h http.HandlerFunc) http.Handler {
		return authenticated(h)
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, authenticated, admin)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthH.Health)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.Handle("POST /api/auth/register", public(authH.Register))
	mux.Handle("POST /api/auth/login", public(authH.Login))
	mux.Handle("GET /api/auth/profile", private(authH.Profile))
	mux.Handle("PUT /api/auth/profile", private(authH.UpdateProfile))

	mux.Handle("POST /api/vouchers/redeem", private(voucherH.Redeem))

	mux.Handle("GET /api/admin/users", adminOnly(adminH.ListUsers))
	mux.Handle("GET /api/admin/vouchers", adminOnly(adminH.ListVouchers))
	mux.Handle("POST /api/admin/vouchers", adminOnly(adminH.CreateVoucher))

	mux.Handle("GET /api/{resource}", private(resourceH.List))

	return middleware.Chain(mux,
		middleware.RequestIDMiddleware,
		middleware.RecoveryMiddleware(s.logger),
		middleware.LoggingWithSkip(s.logger, []string{"/health", "/metrics"}),
		s.metrics.Instrument,
	)
}

// Close освобождает фоновые ресурсы middleware. Повторный вызов безопасен.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// Run слушает адрес из конфигурации до отмены ctx, затем корректно останавливается
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve обслуживает запросы на ln до отмены ctx
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	defer s.Close()

	errC := make(chan error, 1)
	go func() {
		s.logger.Info("server started", slog.String("addr", ln.Addr().String()), slog.String("version", s.version))
		errC <- srv.Serve(ln)
	}()

	select {
	case err := <-errC:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	if err := <-errC; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
