package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/tradedesk/internal/crypto"
	"github.com/iudanet/tradedesk/internal/models"
	"github.com/iudanet/tradedesk/internal/server/middleware"
	"github.com/iudanet/tradedesk/internal/server/storage"
	"github.com/iudanet/tradedesk/pkg/api"
)

var errStorageDown = errors.New("storage is down")

// mockUserStorage is a mock implementation of UserStorage for testing
type mockUserStorage struct {
	users     map[string]*models.User // id -> User
	createErr error
	getErr    error
	updateErr error
	listErr   error
	mu        sync.Mutex
}

func newMockUserStorage(users ...*models.User) *mockUserStorage {
	m := &mockUserStorage{users: make(map[string]*models.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserStorage) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return storage.ErrUserAlreadyExists
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserStorage) UpdateProfile(ctx context.Context, userID, name, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	for _, other := range m.users {
		if other.ID != userID && other.Email == email {
			return nil, storage.ErrUserAlreadyExists
		}
	}
	updated := *u
	updated.Name = name
	updated.Email = email
	m.users[userID] = &updated
	return &updated, nil
}

func (m *mockUserStorage) ListUsers(ctx context.Context) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *mockUserStorage) CountUsers(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

// mockResourceStorage is a mock implementation of ResourceStorage for testing
type mockResourceStorage struct {
	records []*models.Resource
	listErr error
}

func (m *mockResourceStorage) CreateResource(ctx context.Context, res *models.Resource) error {
	m.records = append(m.records, res)
	return nil
}

func (m *mockResourceStorage) ListResources(ctx context.Context, userID string, kind api.Resource) ([]*models.Resource, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Resource
	for _, r := range m.records {
		if r.UserID == userID && r.Kind == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

// mockVoucherStorage is a mock implementation of VoucherStorage for testing
type mockVoucherStorage struct {
	users     *mockUserStorage
	vouchers  map[string]*models.Voucher // code -> Voucher
	createErr []error                    // ошибки для последовательных вызовов CreateVoucher
	listErr   error
	redeemErr error
}

func newMockVoucherStorage(users *mockUserStorage, vouchers ...*models.Voucher) *mockVoucherStorage {
	m := &mockVoucherStorage{users: users, vouchers: make(map[string]*models.Voucher)}
	for _, v := range vouchers {
		m.vouchers[v.Code] = v
	}
	return m
}

func (m *mockVoucherStorage) CreateVoucher(ctx context.Context, v *models.Voucher) error {
	if len(m.createErr) > 0 {
		err := m.createErr[0]
		m.createErr = m.createErr[1:]
		if err != nil {
			return err
		}
	}
	if _, exists := m.vouchers[v.Code]; exists {
		return storage.ErrVoucherAlreadyExists
	}
	m.vouchers[v.Code] = v
	return nil
}

func (m *mockVoucherStorage) ListVouchers(ctx context.Context) ([]*models.Voucher, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if len(m.vouchers) == 0 {
		return nil, nil
	}
	out := make([]*models.Voucher, 0, len(m.vouchers))
	for _, v := range m.vouchers {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *mockVoucherStorage) RedeemVoucher(ctx context.Context, code, userID string) (*models.Voucher, *models.User, error) {
	if m.redeemErr != nil {
		return nil, nil, m.redeemErr
	}
	v, ok := m.vouchers[code]
	if !ok {
		return nil, nil, storage.ErrVoucherNotFound
	}
	if v.Redeemed() {
		return nil, nil, storage.ErrVoucherRedeemed
	}
	user, err := m.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now()
	v.RedeemedAt = &now
	v.RedeemedBy = &userID
	user.Credits += v.Credits
	if v.Package != "" {
		user.Package = v.Package
	}
	return v, user, nil
}

// stubIssuer выдает предсказуемый токен
type stubIssuer struct {
	err error
}

func (s stubIssuer) Issue(user *models.User) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "token-for-" + user.ID, nil
}

// stubPinger результат проверки базы данных
type stubPinger struct {
	err error
}

func (s stubPinger) Ping(ctx context.Context) error {
	return s.err
}

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testUser создает активного пользователя с паролем "password123"
func testUser(t *testing.T, id, email, role string) *models.User {
	t.Helper()
	hash, err := crypto.HashPassword("password123")
	require.NoError(t, err)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.User{
		ID:           id,
		Email:        email,
		Name:         "User " + id,
		PasswordHash: hash,
		Role:         role,
		Package:      DefaultPackage,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// newJSONRequest создает запрос с JSON телом
func newJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// asUser кладет в контекст запроса аутентифицированного пользователя
func asUser(req *http.Request, userID, role string) *http.Request {
	return req.WithContext(middleware.WithPrincipal(req.Context(), middleware.Principal{
		UserID: userID,
		Role:   role,
	}))
}

// decodeEnvelope разбирает {success, data} в data
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) {
	t.Helper()
	var env struct {
		Data    json.RawMessage `json:"data"`
		Success bool            `json:"success"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.True(t, env.Success, "expected success envelope")
	require.NoError(t, json.Unmarshal(env.Data, data))
}

// decodeError разбирает {success:false, error}
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.False(t, resp.Success)
	return resp.Error
}
