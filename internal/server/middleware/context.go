package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/iudanet/tradedesk/pkg/api"
)

// contextKey тип для ключей контекста
type contextKey string

const (
	userKey      contextKey = "user"
	requestIDKey contextKey = "request_id"
)

// Principal данные аутентифицированного пользователя из токена
type Principal struct {
	UserID string
	Email  string
	Role   string
}

// WithPrincipal кладет пользователя в контекст
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, userKey, p)
}

// PrincipalFrom извлекает пользователя из контекста запроса
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(userKey).(Principal)
	return p, ok
}

// RequestID возвращает идентификатор запроса или пустую строку
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// writeError отправляет ответ {success:false, error}
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: message})
}

// Chain оборачивает handler в middleware; первый в списке выполняется первым
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
