package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/tradedesk/internal/crypto"
	"github.com/iudanet/tradedesk/internal/models"
	"github.com/iudanet/tradedesk/internal/server/storage"
	"github.com/iudanet/tradedesk/internal/validation"
	"github.com/iudanet/tradedesk/pkg/api"
)

// DefaultPackage тарифный пакет новых пользователей
const DefaultPackage = "free"

// TokenIssuer выпускает access token для пользователя
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

// AuthHandler обрабатывает запросы аутентификации и профиля
type AuthHandler struct {
	responder
	userStorage storage.UserStorage
	issuer      TokenIssuer
	now         func() time.Time
}

// NewAuthHandler создает новый handler для аутентификации
func NewAuthHandler(logger *slog.Logger, userStorage storage.UserStorage, issuer TokenIssuer) *AuthHandler {
	return &AuthHandler{
		responder:   responder{logger: logger},
		userStorage: userStorage,
		issuer:      issuer,
		now:         time.Now,
	}
}

// Register обрабатывает POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = validation.NormalizeEmail(req.Email)

	if err := validation.ValidateName(req.Name); err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		h.internalError(w, r, "failed to hash password", err)
		return
	}

	now := h.now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         api.RoleUser,
		Package:      DefaultPackage,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.userStorage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "user already exists", slog.String("email", req.Email))
			h.sendError(w, r, "user already exists", http.StatusConflict)
			return
		}
		h.internalError(w, r, "failed to create user", err)
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully",
		slog.String("email", user.Email),
		slog.String("user_id", user.ID))

	h.sendToken(w, r, user, http.StatusCreated)
}

// Login обрабатывает POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	email := validation.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		h.sendError(w, r, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.userStorage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Не раскрываем, существует ли пользователь
			h.logger.WarnContext(ctx, "login attempt for unknown user", slog.String("email", email))
			h.sendError(w, r, "invalid email or password", http.StatusUnauthorized)
			return
		}
		h.internalError(w, r, "failed to get user", err)
		return
	}

	if err := crypto.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		if !errors.Is(err, crypto.ErrPasswordMismatch) {
			h.logger.ErrorContext(ctx, "stored password hash is invalid",
				slog.String("user_id", user.ID), slog.Any("error", err))
		}
		h.logger.WarnContext(ctx, "invalid password", slog.String("user_id", user.ID))
		h.sendError(w, r, "invalid email or password", http.StatusUnauthorized)
		return
	}

	if !user.IsActive {
		h.logger.WarnContext(ctx, "login attempt for disabled user", slog.String("user_id", user.ID))
		h.sendError(w, r, "account is disabled", http.StatusForbidden)
		return
	}

	h.logger.InfoContext(ctx, "user logged in successfully",
		slog.String("email", user.Email),
		slog.String("user_id", user.ID))

	h.sendToken(w, r, user, http.StatusOK)
}

// Profile обрабатывает GET /api/auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	user, ok := h.currentUser(w, r, p.UserID)
	if !ok {
		return
	}

	h.sendData(w, r, user.Profile(), http.StatusOK)
}

// UpdateProfile обрабатывает PUT /api/auth/profile.
// Пустые поля запроса оставляют текущие значения.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req api.UpdateProfileRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	email := validation.NormalizeEmail(req.Email)
	if name == "" && email == "" {
		h.sendError(w, r, "nothing to update", http.StatusBadRequest)
		return
	}

	user, ok := h.currentUser(w, r, p.UserID)
	if !ok {
		return
	}

	if name == "" {
		name = user.Name
	} else if err := validation.ValidateName(name); err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	if email == "" {
		email = user.Email
	} else if err := validation.ValidateEmail(email); err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.userStorage.UpdateProfile(ctx, p.UserID, name, email)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUserAlreadyExists):
			h.sendError(w, r, "email is already taken", http.StatusConflict)
		case errors.Is(err, storage.ErrUserNotFound):
			h.sendError(w, r, "unauthorized", http.StatusUnauthorized)
		default:
			h.internalError(w, r, "failed to update profile", err)
		}
		return
	}

	h.logger.InfoContext(ctx, "profile updated", slog.String("user_id", updated.ID))

	h.sendData(w, r, updated.Profile(), http.StatusOK)
}

// currentUser загружает пользователя из токена. Удаленный или заблокированный
// пользователь получает 401: его токен больше не действителен.
func (h *AuthHandler) currentUser(w http.ResponseWriter, r *http.Request, userID string) (*models.User, bool) {
	user, err := h.userStorage.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(r.Context(), "token refers to unknown user", slog.String("user_id", userID))
			h.sendError(w, r, "unauthorized", http.StatusUnauthorized)
			return nil, false
		}
		h.internalError(w, r, "failed to get user", err)
		return nil, false
	}

	if !user.IsActive {
		h.sendError(w, r, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	return user, true
}

// sendToken выпускает токен и отправляет {success, data: {token, user}}
func (h *AuthHandler) sendToken(w http.ResponseWriter, r *http.Request, user *models.User, statusCode int) {
	token, err := h.issuer.Issue(user)
	if err != nil {
		h.internalError(w, r, "failed to issue token", err)
		return
	}

	h.sendData(w, r, api.TokenData{Token: token, User: user.Profile()}, statusCode)
}
