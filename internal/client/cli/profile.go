package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/tradedesk/internal/validation"
	"github.com/iudanet/tradedesk/pkg/api"
)

func (c *Cli) profileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show user profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.require(); err != nil {
				return err
			}
			return c.runProfile(cmd.Context())
		},
	}
	cmd.AddCommand(c.profileUpdateCommand())
	return cmd
}

func (c *Cli) profileUpdateCommand() *cobra.Command {
	var req api.UpdateProfileRequest

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change name or email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.require(); err != nil {
				return err
			}
			return c.runProfileUpdate(cmd.Context(), req)
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "new display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "new email")

	return cmd
}

func (c *Cli) runProfile(ctx context.Context) error {
	// Ждем фоновую загрузку после гидрации, затем запрашиваем свежий профиль
	c.session.Wait()
	c.session.FetchProfile(ctx)

	profile := c.session.Snapshot().Profile
	if profile == nil {
		return fmt.Errorf("profile is not available")
	}

	c.io.Println("=== Profile ===")
	c.io.Println()
	c.printProfile(profile)
	return nil
}

func (c *Cli) runProfileUpdate(ctx context.Context, req api.UpdateProfileRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = validation.NormalizeEmail(req.Email)

	if req.Name == "" && req.Email == "" {
		return fmt.Errorf("nothing to update: pass --name and/or --email")
	}
	if req.Name != "" {
		if err := validation.ValidateName(req.Name); err != nil {
			return fmt.Errorf("invalid name: %w", err)
		}
	}
	if req.Email != "" {
		if err := validation.ValidateEmail(req.Email); err != nil {
			return fmt.Errorf("invalid email: %w", err)
		}
	}

	profile, err := c.api.UpdateProfile(ctx, req)
	if err != nil {
		return c.apiError(ctx, err)
	}

	// Дожидаемся фоновой загрузки, чтобы она не перезаписала обновленный профиль
	c.session.Wait()
	c.session.UpdateProfile(profile)

	c.io.Println("✓ Profile updated!")
	c.io.Println()
	c.printProfile(profile)
	return nil
}

func (c *Cli) printProfile(p *api.UserProfile) {
	c.io.Printf("ID:       %s\n", p.ID)
	c.io.Printf("Name:     %s\n", p.Name)
	c.io.Printf("Email:    %s\n", p.Email)
	c.io.Printf("Role:     %s\n", p.Role)
	if p.Package != "" {
		c.io.Printf("Package:  %s\n", p.Package)
	}
	c.io.Printf("Credits:  %.2f\n", p.Credits)
	c.io.Printf("Active:   %t\n", p.IsActive)
	if !p.CreatedAt.IsZero() {
		c.io.Printf("Created:  %s\n", p.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
}
