package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/tradedesk/internal/client/config"
)

func (c *Cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "tradedesk",
		Short:         "TradeDesk terminal client",
		Long:          "TradeDesk terminal client: session management and quick access to accounts, bots, signals and trades.",
		Version:       c.version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return c.setup(cmd.Context(), cfg)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf(
		"TradeDesk Client\nVersion:    %s\nBuild Date: %s\nGit Commit: %s\n",
		c.version.Version, c.version.BuildDate, c.version.GitCommit,
	))

	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		c.registerCommand(),
		c.loginCommand(),
		c.logoutCommand(),
		c.statusCommand(),
		c.profileCommand(),
		c.listCommand(),
		c.redeemCommand(),
		c.adminCommand(),
	)

	return root
}
