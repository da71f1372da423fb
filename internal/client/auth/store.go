package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iudanet/tradedesk/internal/client/storage"
)

// TokenStore - слой best-effort поверх storage.TokenStorage.
// Ошибки хранилища логируются и не пробрасываются: недоступное хранилище
// при чтении выглядит как "токена нет", а запись и очистка становятся no-op.
type TokenStore struct {
	storage storage.TokenStorage
	logger  *slog.Logger
}

// NewTokenStore создает TokenStore. storage может быть nil - тогда
// хранилище считается недоступным
func NewTokenStore(storage storage.TokenStorage, logger *slog.Logger) *TokenStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenStore{
		storage: storage,
		logger:  logger,
	}
}

// Save сохраняет токен
func (s *TokenStore) Save(ctx context.Context, token string) {
	if s.storage == nil {
		return
	}
	if err := s.storage.SaveToken(ctx, token); err != nil {
		s.logger.Warn("failed to persist session token", "error", err)
	}
}

// Load возвращает сохраненный токен и признак его наличия
func (s *TokenStore) Load(ctx context.Context) (string, bool) {
	if s.storage == nil {
		return "", false
	}

	token, err := s.storage.GetToken(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrTokenNotFound) {
			s.logger.Warn("failed to read session token, treating as absent", "error", err)
		}
		return "", false
	}
	if token == "" {
		return "", false
	}

	return token, true
}

// Clear удаляет сохраненный токен
func (s *TokenStore) Clear(ctx context.Context) {
	if s.storage == nil {
		return
	}
	if err := s.storage.DeleteToken(ctx); err != nil {
		s.logger.Warn("failed to clear session token", "error", err)
	}
}
