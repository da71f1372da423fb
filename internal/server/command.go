package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/iudanet/tradedesk/internal/logging"
	"github.com/iudanet/tradedesk/internal/server/config"
	"github.com/iudanet/tradedesk/internal/server/storage/sqlite"
)

// VersionInfo сведения о сборке сервера
type VersionInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// Command создает корневую команду tradedesk-server. Логи пишутся в logOut.
func Command(info VersionInfo, logOut io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tradedesk-server",
		Short:         "TradeDesk development backend",
		Long:          "TradeDesk development backend: authentication, profile, user collections and vouchers over HTTP.",
		Version:       info.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return Start(cmd.Context(), cfg, logOut, info.Version)
		},
	}

	cmd.SetVersionTemplate(fmt.Sprintf(
		"TradeDesk Server\nVersion:    %s\nBuild Date: %s\nGit Commit: %s\n",
		info.Version, info.BuildDate, info.GitCommit,
	))

	config.RegisterFlags(cmd.Flags())

	return cmd
}

// Start открывает хранилище, выполняет начальную загрузку и обслуживает
// запросы до отмены ctx
func Start(ctx context.Context, cfg *config.Config, logOut io.Writer, version string) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, logOut)
	if err != nil {
		return err
	}

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	if cfg.HasAdmin() {
		if err := EnsureAdmin(ctx, store, cfg.AdminEmail, cfg.AdminPassword, logger); err != nil {
			return err
		}
	}

	if cfg.Seed {
		if err := Seed(ctx, store, logger); err != nil {
			return err
		}
	}

	return New(cfg, store, logger, version).Run(ctx)
}
