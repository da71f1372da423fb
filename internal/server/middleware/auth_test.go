package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/tradedesk/internal/models"
	"github.com/iudanet/tradedesk/internal/server/storage"
	"github.com/iudanet/tradedesk/internal/server/tokens"
	"github.com/iudanet/tradedesk/pkg/api"
)

var testSecret = []byte("middleware-test-secret")

func issueTestToken(t *testing.T, role string, ttl time.Duration) string {
	t.Helper()
	raw, err := tokens.NewIssuer(testSecret, ttl).Issue(&models.User{
		ID:    "user123",
		Email: "user@example.com",
		Name:  "User",
		Role:  role,
	})
	require.NoError(t, err)
	return raw
}

func principalHandler(t *testing.T, want Principal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		require.True(t, ok, "principal should be in context")
		assert.Equal(t, want, p)
		w.WriteHeader(http.StatusOK)
	}
}

func TestAuthMiddleware_Success(t *testing.T) {
	issuer := tokens.NewIssuer(testSecret, time.Hour)
	handler := AuthMiddleware(setupTestLogger(), issuer)(principalHandler(t, Principal{
		UserID: "user123",
		Email:  "user@example.com",
		Role:   api.RoleUser,
	}))

	for _, scheme := range []string{"Bearer", "bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
		req.Header.Set("Authorization", scheme+" "+issueTestToken(t, api.RoleUser, time.Hour))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, scheme)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	issuer := tokens.NewIssuer(testSecret, time.Hour)
	otherSecret, err := tokens.NewIssuer([]byte("some-other-secret-value"), time.Hour).Issue(&models.User{ID: "u"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		wantErr string
	}{
		{name: "missing header", header: "", wantErr: "missing token"},
		{name: "no scheme", header: "token-only", wantErr: "invalid token format"},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantErr: "invalid token format"},
		{name: "empty token", header: "Bearer ", wantErr: "invalid token format"},
		{name: "garbage token", header: "Bearer abc.def.ghi", wantErr: "invalid or expired token"},
		{name: "wrong secret", header: "Bearer " + otherSecret, wantErr: "invalid or expired token"},
		{name: "expired", header: "Bearer " + issueTestToken(t, api.RoleUser, -time.Minute), wantErr: "invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := AuthMiddleware(setupTestLogger(), issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.wantErr, decodeError(t, rec).Error)
		})
	}
}

// userLookup отдает пользователей из map
type userLookup struct {
	err   error
	users map[string]*models.User
}

func (l userLookup) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if l.err != nil {
		return nil, l.err
	}
	u, ok := l.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return u, nil
}

func TestRequireRole(t *testing.T) {
	users := userLookup{users: map[string]*models.User{
		"admin":    {ID: "admin", Role: api.RoleAdmin, IsActive: true},
		"demoted":  {ID: "demoted", Role: api.RoleUser, IsActive: true},
		"lower":    {ID: "lower", Role: "admin", IsActive: true},
		"disabled": {ID: "disabled", Role: api.RoleAdmin, IsActive: false},
	}}

	tests := []struct {
		name      string
		lookup    userLookup
		principal *Principal
		wantError string
		wantCode  int
	}{
		{name: "no principal", lookup: users, wantCode: http.StatusUnauthorized, wantError: "unauthorized"},
		{name: "admin", lookup: users, principal: &Principal{UserID: "admin", Role: api.RoleAdmin}, wantCode: http.StatusOK},
		{name: "admin token, demoted user", lookup: users, principal: &Principal{UserID: "demoted", Role: api.RoleAdmin}, wantCode: http.StatusForbidden, wantError: "forbidden"},
		{name: "role match is case sensitive", lookup: users, principal: &Principal{UserID: "lower", Role: api.RoleAdmin}, wantCode: http.StatusForbidden, wantError: "forbidden"},
		{name: "disabled user", lookup: users, principal: &Principal{UserID: "disabled", Role: api.RoleAdmin}, wantCode: http.StatusUnauthorized, wantError: "unauthorized"},
		{name: "deleted user", lookup: users, principal: &Principal{UserID: "ghost", Role: api.RoleAdmin}, wantCode: http.StatusUnauthorized, wantError: "unauthorized"},
		{name: "storage error", lookup: userLookup{err: errors.New("db down")}, principal: &Principal{UserID: "admin", Role: api.RoleAdmin}, wantCode: http.StatusInternalServerError, wantError: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen Principal
			protected := RequireRole(setupTestLogger(), tt.lookup, api.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = PrincipalFrom(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
			if tt.principal != nil {
				req = req.WithContext(WithPrincipal(req.Context(), *tt.principal))
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, rec).Error)
				return
			}
			assert.Equal(t, api.RoleAdmin, seen.Role)
		})
	}
}
