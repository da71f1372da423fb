package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/tradedesk/internal/client/token"
	"github.com/iudanet/tradedesk/pkg/api"
)

// DefaultProfileTimeout ограничивает загрузку профиля, чтобы зависший
// сервер не оставлял профиль в состоянии "загружается" навсегда
const DefaultProfileTimeout = 10 * time.Second

//go:generate moq -out fetcher_mock.go . ProfileFetcher

// ProfileFetcher загружает профиль пользователя для конкретного токена
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, token string) (*api.UserProfile, error)
}

// State - снимок состояния сессии
type State struct {
	Claims          *token.Claims
	Profile         *api.UserProfile
	Token           string
	IsAuthenticated bool
}

// Session хранит состояние сессии клиента: токен, claims, профиль.
// Единственный владелец сохраненного токена; все изменения идут через
// Login, Logout, Hydrate, FetchProfile и UpdateProfile.
type Session struct {
	fetcher        ProfileFetcher
	store          *TokenStore
	logger         *slog.Logger
	now            func() time.Time
	bgCtx          context.Context
	cancel         context.CancelFunc
	listeners      map[uint64]func(State)
	state          State
	refreshes      sync.WaitGroup
	profileTimeout time.Duration
	generation     uint64
	nextListener   uint64
	mu             sync.Mutex
	closed         bool
	stopped        bool
}

// SessionOption настраивает Session
type SessionOption func(*Session)

// WithLogger задает логгер сессии
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock подменяет источник текущего времени (для тестов)
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithProfileTimeout задает таймаут загрузки профиля
func WithProfileTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.profileTimeout = d
		}
	}
}

// NewSession создает пустую (разлогиненную) сессию.
// fetcher может быть nil - тогда профиль всегда строится из claims.
func NewSession(store *TokenStore, fetcher ProfileFetcher, opts ...SessionOption) *Session {
	bgCtx, cancel := context.WithCancel(context.Background())

	s := &Session{
		store:          store,
		fetcher:        fetcher,
		logger:         slog.Default(),
		now:            time.Now,
		profileTimeout: DefaultProfileTimeout,
		listeners:      make(map[uint64]func(State)),
		bgCtx:          bgCtx,
		cancel:         cancel,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = NewTokenStore(nil, s.logger)
	}

	return s
}

// Login устанавливает новую сессию по токену.
// Токен, который не удалось декодировать или который уже истек,
// приводит к полному Logout; в хранилище при этом ничего не пишется.
// Загрузка профиля запускается в фоне и не ожидается.
func (s *Session) Login(ctx context.Context, raw string) error {
	claims, err := token.Decode(raw)
	if err != nil {
		s.logger.Warn("login with undecodable token, resetting session", "error", err)
		s.Logout(ctx)
		return fmt.Errorf("login: %w", err)
	}

	if claims.Expired(s.now()) {
		s.logger.Warn("login with expired token, resetting session", "expires_at", claims.ExpiresAt)
		s.Logout(ctx)
		return fmt.Errorf("login: %w", ErrTokenExpired)
	}

	s.store.Save(ctx, raw)

	gen := s.authenticate(raw, claims)
	s.refreshAsync(gen, raw, claims)

	return nil
}

// Logout очищает хранилище и сбрасывает состояние к базовому.
// Идемпотентен.
func (s *Session) Logout(ctx context.Context) {
	s.store.Clear(ctx)
	s.reset()
}

// Hydrate восстанавливает сессию из хранилища при старте приложения.
// Отсутствующий, нечитаемый или истекший токен дает разлогиненное состояние;
// нечитаемый и истекший токены при этом удаляются из хранилища.
func (s *Session) Hydrate(ctx context.Context) {
	raw, ok := s.store.Load(ctx)
	if !ok {
		s.reset()
		return
	}

	claims, err := token.Decode(raw)
	if err != nil {
		s.logger.Warn("stored token cannot be decoded, clearing it", "error", err)
		s.store.Clear(ctx)
		s.reset()
		return
	}

	if claims.Expired(s.now()) {
		s.logger.Info("stored token expired, clearing it", "expires_at", claims.ExpiresAt)
		s.store.Clear(ctx)
		s.reset()
		return
	}

	gen := s.authenticate(raw, claims)
	s.refreshAsync(gen, raw, claims)
}

// FetchProfile загружает профиль текущей сессии и ждет результата.
// Без токена ничего не делает. Ошибка загрузки не возвращается:
// вместо нее устанавливается профиль, построенный из claims.
func (s *Session) FetchProfile(ctx context.Context) {
	s.mu.Lock()
	raw, claims, gen := s.state.Token, s.state.Claims, s.generation
	s.mu.Unlock()

	if raw == "" {
		return
	}

	s.loadProfile(ctx, gen, raw, claims)
}

// UpdateProfile напрямую заменяет профиль (после успешного редактирования).
// Никогда не меняет признак аутентификации.
func (s *Session) UpdateProfile(profile *api.UserProfile) {
	s.mu.Lock()
	s.state.Profile = profile
	st := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(st)
}

// Snapshot возвращает копию текущего состояния
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Token возвращает текущий токен (реализует api.TokenSource)
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// Subscribe регистрирует слушателя изменений состояния.
// Слушатель вызывается вне блокировки и может вызывать методы Session.
func (s *Session) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Wait ждет завершения фоновых загрузок профиля
func (s *Session) Wait() {
	s.refreshes.Wait()
}

// Close запрещает новые фоновые загрузки и ждет завершения текущих.
// Каждая загрузка ограничена profileTimeout.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.refreshes.Wait()
}

// Stop запрещает новые фоновые загрузки, отменяет текущие и ждет их
// завершения. Результат отмененной загрузки не применяется.
func (s *Session) Stop() {
	s.mu.Lock()
	s.closed = true
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	s.refreshes.Wait()
}

// current сообщает, относится ли загрузка gen к действующей сессии
func (s *Session) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation && !s.stopped
}

// authenticate устанавливает токен и claims. Новый токен начинает новую
// сессию (generation++), повторная установка того же токена сохраняет профиль.
func (s *Session) authenticate(raw string, claims *token.Claims) uint64 {
	s.mu.Lock()
	if s.state.Token != raw || !s.state.IsAuthenticated {
		s.generation++
		s.state = State{
			Token:           raw,
			Claims:          claims,
			IsAuthenticated: true,
		}
	} else {
		s.state.Claims = claims
	}
	gen := s.generation
	st := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(st)
	return gen
}

// reset возвращает состояние к базовому
func (s *Session) reset() {
	s.mu.Lock()
	s.generation++
	changed := s.state.Token != "" || s.state.Claims != nil || s.state.Profile != nil || s.state.IsAuthenticated
	s.state = State{}
	st := s.snapshotLocked()
	s.mu.Unlock()

	if changed {
		s.notify(st)
	}
}

// refreshAsync запускает загрузку профиля в фоне
func (s *Session) refreshAsync(gen uint64, raw string, claims *token.Claims) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.refreshes.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.refreshes.Done()
		s.loadProfile(s.bgCtx, gen, raw, claims)
	}()
}

// loadProfile загружает профиль для токена raw и применяет его,
// только если сессия не сменилась за время запроса
func (s *Session) loadProfile(ctx context.Context, gen uint64, raw string, claims *token.Claims) {
	var (
		profile *api.UserProfile
		err     error
	)

	if s.fetcher != nil {
		fetchCtx, cancel := context.WithTimeout(ctx, s.profileTimeout)
		profile, err = s.fetcher.FetchProfile(fetchCtx, raw)
		cancel()
	} else {
		err = fmt.Errorf("no profile fetcher configured")
	}

	if !s.current(gen) {
		s.logger.Debug("discarding profile of a finished session")
		return
	}

	if err != nil || profile == nil {
		s.logger.Warn("failed to fetch profile, using token claims", "error", err)
		profile = fallbackProfile(claims)
	}

	s.mu.Lock()
	if gen != s.generation || s.stopped {
		s.mu.Unlock()
		s.logger.Debug("discarding profile of a finished session")
		return
	}
	s.state.Profile = profile
	st := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(st)
}

// snapshotLocked копирует состояние; вызывается под s.mu
func (s *Session) snapshotLocked() State {
	st := State{
		Token:           s.state.Token,
		IsAuthenticated: s.state.IsAuthenticated,
	}
	if s.state.Claims != nil {
		c := *s.state.Claims
		st.Claims = &c
	}
	if s.state.Profile != nil {
		p := *s.state.Profile
		st.Profile = &p
	}
	return st
}

// notify вызывает слушателей вне блокировки
func (s *Session) notify(st State) {
	s.mu.Lock()
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
