package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/iudanet/tradedesk/internal/client/api"
	"github.com/iudanet/tradedesk/internal/client/auth"
	"github.com/iudanet/tradedesk/internal/client/config"
	"github.com/iudanet/tradedesk/internal/client/iocli"
	"github.com/iudanet/tradedesk/internal/client/storage"
	"github.com/iudanet/tradedesk/internal/client/storage/boltdb"
	"github.com/iudanet/tradedesk/internal/client/storage/memory"
	"github.com/iudanet/tradedesk/internal/logging"
)

// VersionInfo сведения о сборке, задаются через ldflags
type VersionInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// tokenBackend хранилище токена, которое нужно закрыть при выходе
type tokenBackend interface {
	storage.TokenStorage
	Close() error
}

// Cli связывает команды с ядром сессии.
// Зависимости создаются в setup после разбора флагов.
type Cli struct {
	io      iocli.IO
	stderr  io.Writer
	cfg     *config.Config
	logger  *slog.Logger
	backend tokenBackend
	api     *api.Client
	session *auth.Session
	guard   *auth.Guard
	version VersionInfo
}

// New создает Cli. stderr получает логи.
func New(term iocli.IO, stderr io.Writer, version VersionInfo) *Cli {
	return &Cli{
		io:      term,
		stderr:  stderr,
		version: version,
	}
}

// Execute разбирает аргументы и выполняет команду.
// Сессия закрывается после выполнения (с ожиданием фоновой загрузки профиля).
func (c *Cli) Execute(ctx context.Context, args []string) error {
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(c.io)
	root.SetErr(c.stderr)

	err := root.ExecuteContext(ctx)
	if cerr := c.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// setup загружает конфигурацию, открывает хранилище и гидрирует сессию
func (c *Cli) setup(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, c.stderr)
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}

	backend, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.Server, api.WithTimeout(cfg.Timeout))
	session := auth.NewSession(
		auth.NewTokenStore(backend, logger),
		client,
		auth.WithLogger(logger),
		auth.WithProfileTimeout(cfg.ProfileTimeout),
	)
	client.UseTokenSource(session)

	c.cfg = cfg
	c.logger = logger
	c.backend = backend
	c.api = client
	c.session = session
	c.guard = auth.NewGuard(session)

	c.session.Hydrate(ctx)

	logger.Debug("client initialized",
		"server", cfg.Server,
		"storage", cfg.Storage,
		"authenticated", c.session.Snapshot().IsAuthenticated,
	)
	return nil
}

// Close завершает сессию и закрывает хранилище. Повторный вызов безопасен.
func (c *Cli) Close() error {
	if c.session != nil {
		c.session.Close()
		c.session = nil
	}
	if c.backend != nil {
		err := c.backend.Close()
		c.backend = nil
		if err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	return nil
}

// openStorage выбирает реализацию хранилища токена по конфигурации
func openStorage(ctx context.Context, cfg *config.Config) (tokenBackend, error) {
	switch cfg.Storage {
	case config.StorageBolt:
		st, err := boltdb.New(ctx, cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return st, nil
	case config.StorageMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownBackend, cfg.Storage)
	}
}

// require проверяет доступ к команде через Guard
func (c *Cli) require(roles ...string) error {
	// Роль профиля важнее роли из claims
	c.session.Wait()
	err := c.guard.Require(roles...)
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		return fmt.Errorf("%w. Please run 'tradedesk login' first", err)
	case errors.Is(err, auth.ErrForbidden):
		return fmt.Errorf("%w: this command requires role %v", err, roles)
	default:
		return err
	}
}

// apiError завершает сессию, если сервер отклонил токен
func (c *Cli) apiError(ctx context.Context, err error) error {
	if api.IsUnauthorized(err) {
		c.logger.Info("server rejected session token, logging out", "error", err)
		c.session.Logout(ctx)
		return fmt.Errorf("%w: session is no longer valid. Please run 'tradedesk login' again", auth.ErrNotAuthenticated)
	}
	return err
}
