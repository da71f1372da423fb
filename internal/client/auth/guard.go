package auth

import "slices"

// Пути перенаправления по умолчанию
const (
	DefaultLoginPath = "/login"
	DefaultHomePath  = "/"
)

// SnapshotSource отдает текущее состояние сессии
type SnapshotSource interface {
	Snapshot() State
}

// Decision результат проверки доступа
type Decision struct {
	RedirectTo string
	Allowed    bool
}

// Allow разрешает вход
func Allow() Decision {
	return Decision{Allowed: true}
}

// RedirectTo запрещает вход и указывает, куда перенаправить
func RedirectTo(path string) Decision {
	return Decision{RedirectTo: path}
}

// Guard решает, можно ли войти в защищенный раздел
type Guard struct {
	src       SnapshotSource
	loginPath string
	homePath  string
}

// GuardOption настраивает Guard
type GuardOption func(*Guard)

// WithLoginPath задает путь страницы логина
func WithLoginPath(path string) GuardOption {
	return func(g *Guard) { g.loginPath = path }
}

// WithHomePath задает путь, куда отправляется пользователь без нужной роли
func WithHomePath(path string) GuardOption {
	return func(g *Guard) { g.homePath = path }
}

// NewGuard создает Guard поверх источника состояния
func NewGuard(src SnapshotSource, opts ...GuardOption) *Guard {
	g := &Guard{
		src:       src,
		loginPath: DefaultLoginPath,
		homePath:  DefaultHomePath,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CanEnter проверяет доступ по одному снимку состояния.
// Сам ничего не загружает: гидрация - ответственность старта приложения.
func (g *Guard) CanEnter(requiredRoles ...string) Decision {
	return g.decide(g.src.Snapshot(), requiredRoles)
}

func (g *Guard) decide(st State, requiredRoles []string) Decision {
	if !st.IsAuthenticated {
		return RedirectTo(g.loginPath)
	}

	if len(requiredRoles) > 0 && !slices.Contains(requiredRoles, EffectiveRole(st)) {
		return RedirectTo(g.homePath)
	}

	return Allow()
}

// Require - вариант CanEnter для команд без навигации:
// ErrNotAuthenticated вместо перехода на логин, ErrForbidden вместо перехода домой
func (g *Guard) Require(requiredRoles ...string) error {
	st := g.src.Snapshot()
	if !st.IsAuthenticated {
		return ErrNotAuthenticated
	}
	if d := g.decide(st, requiredRoles); !d.Allowed {
		return ErrForbidden
	}
	return nil
}
