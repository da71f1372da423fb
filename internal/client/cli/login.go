package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/tradedesk/internal/validation"
	"github.com/iudanet/tradedesk/pkg/api"
)

func (c *Cli) loginCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runLogin(cmd.Context(), email)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when empty)")

	return cmd
}

func (c *Cli) runLogin(ctx context.Context, email string) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	var err error
	if email == "" {
		email, err = c.io.ReadInput("Email: ")
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
	}
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	c.io.Println("Authenticating...")

	token, err := c.api.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}

	if err := c.session.Login(ctx, token); err != nil {
		return fmt.Errorf("server issued an unusable token: %w", err)
	}

	st := c.session.Snapshot()
	c.io.Println()
	c.io.Println("✓ Login successful!")
	c.io.Printf("Email: %s\n", st.Claims.Email)
	if !st.Claims.ExpiresAt.IsZero() {
		c.io.Printf("Session expires: %s\n", st.Claims.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	}

	return nil
}
