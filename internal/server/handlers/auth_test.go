package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/tradedesk/internal/crypto"
	"github.com/iudanet/tradedesk/pkg/api"
)

func TestAuthHandler_Register(t *testing.T) {
	users := newMockUserStorage()
	h := NewAuthHandler(setupTestLogger(), users, stubIssuer{})

	rec := httptest.NewRecorder()
	h.Register(rec, newJSONRequest(t, http.MethodPost, "/api/auth/register", api.RegisterRequest{
		Name:     "  Alice ",
		Email:    "Alice@Example.COM",
		Password: "password123",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)

	var data api.TokenData
	decodeEnvelope(t, rec, &data)
	require.NotNil(t, data.User)
	assert.Equal(t, "token-for-"+data.User.ID, data.Token)
	assert.Equal(t, "alice@example.com", data.User.Email)
	assert.Equal(t, "Alice", data.User.Name)
	assert.Equal(t, api.RoleUser, data.User.Role)
	assert.Equal(t, DefaultPackage, data.User.Package)
	assert.True(t, data.User.IsActive)

	stored, err := users.GetUserByEmail(t.Context(), "alice@example.com")
	require.NoError(t, err)
	assert.NoError(t, crypto.VerifyPassword("password123", stored.PasswordHash))
	assert.NotContains(t, stored.PasswordHash, "password123")
}

func TestAuthHandler_RegisterErrors(t *testing.T) {
	existing := testUser(t, "u1", "taken@example.com", api.RoleUser)

	tests := []struct {
		body       any
		name       string
		wantErr    string
		storageErr error
		issuerErr  error
		wantStatus int
	}{
		{
			name:       "malformed json",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
			wantErr:    "invalid request body",
		},
		{
			name:       "unknown field",
			body:       `{"name":"A","email":"a@example.com","password":"password123","admin":true}`,
			wantStatus: http.StatusBadRequest,
			wantErr:    "invalid request body",
		},
		{
			name:       "empty name",
			body:       api.RegisterRequest{Name: " ", Email: "a@example.com", Password: "password123"},
			wantStatus: http.StatusBadRequest,
			wantErr:    "name cannot be empty",
		},
		{
			name:       "invalid email",
			body:       api.RegisterRequest{Name: "A", Email: "not-an-email", Password: "password123"},
			wantStatus: http.StatusBadRequest,
			wantErr:    "not a valid address",
		},
		{
			name:       "short password",
			body:       api.RegisterRequest{Name: "A", Email: "a@example.com", Password: "short"},
			wantStatus: http.StatusBadRequest,
			wantErr:    "at least 8",
		},
		{
			name:       "duplicate email",
			body:       api.RegisterRequest{Name: "A", Email: "TAKEN@example.com", Password: "password123"},
			wantStatus: http.StatusConflict,
			wantErr:    "user already exists",
		},
		{
			name:       "storage failure",
			body:       api.RegisterRequest{Name: "A", Email: "a@example.com", Password: "password123"},
			storageErr: errStorageDown,
			wantStatus: http.StatusInternalServerError,
			wantErr:    "internal server error",
		},
		{
			name:       "issuer failure",
			body:       api.RegisterRequest{Name: "A", Email: "a@example.com", Password: "password123"},
			issuerErr:  errStorageDown,
			wantStatus: http.StatusInternalServerError,
			wantErr:    "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newMockUserStorage(existing)
			users.createErr = tt.storageErr
			h := NewAuthHandler(setupTestLogger(), users, stubIssuer{err: tt.issuerErr})

			rec := httptest.NewRecorder()
			h.Register(rec, newJSONRequest(t, http.MethodPost, "/api/auth/register", tt.body))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, decodeError(t, rec), tt.wantErr)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	user := testUser(t, "u1", "alice@example.com", api.RoleAdmin)
	disabled := testUser(t, "u2", "bob@example.com", api.RoleUser)
	disabled.IsActive = false
	broken := testUser(t, "u3", "carol@example.com", api.RoleUser)
	broken.PasswordHash = "not-a-hash"

	tests := []struct {
		name       string
		req        api.LoginRequest
		getErr     error
		wantErr    string
		wantStatus int
	}{
		{
			name:       "success with normalized email",
			req:        api.LoginRequest{Email: " ALICE@example.com", Password: "password123"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong password",
			req:        api.LoginRequest{Email: "alice@example.com", Password: "wrong-password"},
			wantStatus: http.StatusUnauthorized,
			wantErr:    "invalid email or password",
		},
		{
			name:       "unknown user",
			req:        api.LoginRequest{Email: "nobody@example.com", Password: "password123"},
			wantStatus: http.StatusUnauthorized,
			wantErr:    "invalid email or password",
		},
		{
			name:       "missing fields",
			req:        api.LoginRequest{Email: "alice@example.com"},
			wantStatus: http.StatusBadRequest,
			wantErr:    "email and password are required",
		},
		{
			name:       "disabled account",
			req:        api.LoginRequest{Email: "bob@example.com", Password: "password123"},
			wantStatus: http.StatusForbidden,
			wantErr:    "account is disabled",
		},
		{
			name:       "corrupted hash",
			req:        api.LoginRequest{Email: "carol@example.com", Password: "password123"},
			wantStatus: http.StatusUnauthorized,
			wantErr:    "invalid email or password",
		},
		{
			name:       "storage failure",
			req:        api.LoginRequest{Email: "alice@example.com", Password: "password123"},
			getErr:     errStorageDown,
			wantStatus: http.StatusInternalServerError,
			wantErr:    "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newMockUserStorage(user, disabled, broken)
			users.getErr = tt.getErr
			h := NewAuthHandler(setupTestLogger(), users, stubIssuer{})

			rec := httptest.NewRecorder()
			h.Login(rec, newJSONRequest(t, http.MethodPost, "/api/auth/login", tt.req))

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decodeError(t, rec))
				return
			}

			var data api.TokenData
			decodeEnvelope(t, rec, &data)
			assert.Equal(t, "token-for-u1", data.Token)
			assert.Equal(t, api.RoleAdmin, data.User.Role)
		})
	}
}

func TestAuthHandler_Profile(t *testing.T) {
	user := testUser(t, "u1", "alice@example.com", api.RoleUser)
	user.Credits = 12.5
	disabled := testUser(t, "u2", "bob@example.com", api.RoleUser)
	disabled.IsActive = false
	h := NewAuthHandler(setupTestLogger(), newMockUserStorage(user, disabled), stubIssuer{})

	t.Run("success", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Profile(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil), "u1", api.RoleUser))

		require.Equal(t, http.StatusOK, rec.Code)
		var profile api.UserProfile
		decodeEnvelope(t, rec, &profile)
		assert.Equal(t, "u1", profile.ID)
		assert.Equal(t, 12.5, profile.Credits)
		assert.NotContains(t, rec.Body.String(), "argon2id")
	})

	t.Run("no principal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Profile(rec, httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("deleted user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Profile(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil), "gone", api.RoleUser))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("disabled user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Profile(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil), "u2", api.RoleUser))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthHandler_UpdateProfile(t *testing.T) {
	tests := []struct {
		name       string
		req        api.UpdateProfileRequest
		wantName   string
		wantEmail  string
		wantErr    string
		wantStatus int
	}{
		{
			name:       "name only",
			req:        api.UpdateProfileRequest{Name: "Alicia"},
			wantStatus: http.StatusOK,
			wantName:   "Alicia",
			wantEmail:  "alice@example.com",
		},
		{
			name:       "email only is normalized",
			req:        api.UpdateProfileRequest{Email: "NEW@example.com"},
			wantStatus: http.StatusOK,
			wantName:   "User u1",
			wantEmail:  "new@example.com",
		},
		{
			name:       "nothing to update",
			req:        api.UpdateProfileRequest{Name: "  "},
			wantStatus: http.StatusBadRequest,
			wantErr:    "nothing to update",
		},
		{
			name:       "invalid email",
			req:        api.UpdateProfileRequest{Email: "broken"},
			wantStatus: http.StatusBadRequest,
			wantErr:    "not a valid address",
		},
		{
			name:       "too long name",
			req:        api.UpdateProfileRequest{Name: strings.Repeat("я", 65)},
			wantStatus: http.StatusBadRequest,
			wantErr:    "must not exceed",
		},
		{
			name:       "email taken",
			req:        api.UpdateProfileRequest{Email: "bob@example.com"},
			wantStatus: http.StatusConflict,
			wantErr:    "email is already taken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newMockUserStorage(
				testUser(t, "u1", "alice@example.com", api.RoleUser),
				testUser(t, "u2", "bob@example.com", api.RoleUser),
			)
			h := NewAuthHandler(setupTestLogger(), users, stubIssuer{})

			rec := httptest.NewRecorder()
			req := asUser(newJSONRequest(t, http.MethodPut, "/api/auth/profile", tt.req), "u1", api.RoleUser)
			h.UpdateProfile(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantErr != "" {
				assert.Contains(t, decodeError(t, rec), tt.wantErr)
				return
			}

			var profile api.UserProfile
			decodeEnvelope(t, rec, &profile)
			assert.Equal(t, tt.wantName, profile.Name)
			assert.Equal(t, tt.wantEmail, profile.Email)
		})
	}
}

func TestAuthHandler_UpdateProfileStorageError(t *testing.T) {
	users := newMockUserStorage(testUser(t, "u1", "alice@example.com", api.RoleUser))
	users.updateErr = errStorageDown
	h := NewAuthHandler(setupTestLogger(), users, stubIssuer{})

	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, asUser(newJSONRequest(t, http.MethodPut, "/api/auth/profile",
		api.UpdateProfileRequest{Name: "New"}), "u1", api.RoleUser))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeError(t, rec))
}

func TestDecodeJSON_BodyTooLarge(t *testing.T) {
	h := NewAuthHandler(setupTestLogger(), newMockUserStorage(), stubIssuer{})

	body := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	rec := httptest.NewRecorder()
	h.Register(rec, newJSONRequest(t, http.MethodPost, "/api/auth/register", body))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
