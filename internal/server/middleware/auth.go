package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/iudanet/tradedesk/internal/models"
	"github.com/iudanet/tradedesk/internal/server/storage"
	"github.com/iudanet/tradedesk/internal/server/tokens"
)

// TokenValidator проверяет access token
type TokenValidator interface {
	Validate(raw string) (*tokens.Claims, error)
}

// UserLookup отдает актуальную запись пользователя
type UserLookup interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// AuthMiddleware проверяет bearer token и кладет пользователя в контекст
func AuthMiddleware(logger *slog.Logger, validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.DebugContext(ctx, "Missing Authorization header")
				writeError(w, "missing token", http.StatusUnauthorized)
				return
			}

			// Ожидаем формат: "Bearer <token>"
			scheme, raw, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				logger.WarnContext(ctx, "Invalid Authorization header format")
				writeError(w, "invalid token format", http.StatusUnauthorized)
				return
			}

			claims, err := validator.Validate(strings.TrimSpace(raw))
			if err != nil {
				logger.WarnContext(ctx, "Invalid access token", slog.Any("error", err))
				writeError(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx = WithPrincipal(ctx, Principal{
				UserID: claims.Subject,
				Email:  claims.Email,
				Role:   claims.Role,
			})

			logger.DebugContext(ctx, "User authenticated", slog.String("user_id", claims.Subject))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole пропускает только пользователей с одной из ролей.
// Роль берется из хранилища, а не из токена: пониженный или
// заблокированный пользователь теряет доступ сразу.
// Должен стоять после AuthMiddleware.
func RequireRole(logger *slog.Logger, users UserLookup, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			p, ok := PrincipalFrom(ctx)
			if !ok {
				writeError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := users.GetUserByID(ctx, p.UserID)
			switch {
			case errors.Is(err, storage.ErrUserNotFound):
				logger.WarnContext(ctx, "Token of a deleted user", slog.String("user_id", p.UserID))
				writeError(w, "unauthorized", http.StatusUnauthorized)
				return
			case err != nil:
				logger.ErrorContext(ctx, "Failed to load user", slog.String("user_id", p.UserID), slog.Any("error", err))
				writeError(w, "internal server error", http.StatusInternalServerError)
				return
			case !user.IsActive:
				logger.WarnContext(ctx, "Token of a disabled user", slog.String("user_id", p.UserID))
				writeError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if !slices.Contains(roles, user.Role) {
				logger.WarnContext(ctx, "Access denied",
					slog.String("user_id", p.UserID),
					slog.String("role", user.Role),
					slog.String("token_role", p.Role),
					slog.String("path", r.URL.Path),
				)
				writeError(w, "forbidden", http.StatusForbidden)
				return
			}

			p.Role = user.Role
			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, p)))
		})
	}
}
