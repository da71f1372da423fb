package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/tradedesk/internal/client/auth"
)

func (c *Cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c.runStatus(time.Now())
			return nil
		},
	}
}

func (c *Cli) runStatus(now time.Time) {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	st := c.session.Snapshot()
	if !st.IsAuthenticated {
		c.io.Println("Status: Not authenticated")
		c.io.Println()
		c.io.Println("Run 'tradedesk login' to authenticate.")
		return
	}

	c.io.Println("Status: Authenticated")
	c.io.Printf("Server: %s\n", c.cfg.Server)
	c.io.Printf("User ID: %s\n", st.Claims.ID())
	c.io.Printf("Email: %s\n", st.Claims.Email)
	if st.Claims.Name != "" {
		c.io.Printf("Name: %s\n", st.Claims.Name)
	}
	c.io.Printf("Role: %s\n", auth.EffectiveRole(st))

	if st.Claims.ExpiresAt.IsZero() {
		c.io.Println("Token expires: never")
		return
	}

	c.io.Printf("Token expires: %s\n", st.Claims.ExpiresAt.Format(time.RFC3339))
	c.io.Printf("Time remaining: %s\n", st.Claims.ExpiresAt.Sub(now).Round(time.Second))
}
