package cli

import (
	"github.com/spf13/cobra"
)

func (c *Cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout and delete local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.io.Println("=== Logout ===")

			c.session.Logout(cmd.Context())

			c.io.Println("✓ Logout successful!")
			c.io.Println("Your local session has been deleted.")
			return nil
		},
	}
}
