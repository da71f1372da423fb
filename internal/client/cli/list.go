package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/iudanet/tradedesk/pkg/api"
)

func (c *Cli) listCommand() *cobra.Command {
	valid := make([]string, len(api.UserResources))
	for i, r := range api.UserResources {
		valid[i] = string(r)
	}

	return &cobra.Command{
		Use:       "list <accounts|bots|signals|trades|transactions>",
		Short:     "List your accounts, bots, signals, trades or transactions",
		Args:      cobra.ExactArgs(1),
		ValidArgs: valid,
		RunE: func(cmd *cobra.Command, args []string) error {
			resource := api.Resource(args[0])
			if !slices.Contains(api.UserResources, resource) {
				return fmt.Errorf("unknown collection: %s. Use one of: %v", args[0], valid)
			}
			if err := c.require(); err != nil {
				return err
			}
			return c.runList(cmd.Context(), resource)
		},
	}
}

func (c *Cli) adminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands (ADMIN role)",
	}

	for _, sub := range []struct {
		resource api.Resource
		use      string
		short    string
	}{
		{resource: api.ResourceAdminUsers, use: "users", short: "List all users"},
		{resource: api.ResourceAdminVouchers, use: "vouchers", short: "List all vouchers"},
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   sub.use,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := c.require(api.RoleAdmin); err != nil {
					return err
				}
				return c.runList(cmd.Context(), sub.resource)
			},
		})
	}

	cmd.AddCommand(c.createVoucherCommand())

	return cmd
}

func (c *Cli) createVoucherCommand() *cobra.Command {
	var req api.CreateVoucherRequest

	cmd := &cobra.Command{
		Use:   "create-voucher",
		Short: "Issue a new voucher code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Credits <= 0 {
				return fmt.Errorf("--credits must be positive")
			}
			if err := c.require(api.RoleAdmin); err != nil {
				return err
			}

			v, err := c.api.CreateVoucher(cmd.Context(), req)
			if err != nil {
				return c.apiError(cmd.Context(), err)
			}

			c.io.Println("✓ Voucher created!")
			c.io.Printf("Code:    %s\n", v.Code)
			c.io.Printf("Credits: %.2f\n", v.Credits)
			if v.Package != "" {
				c.io.Printf("Package: %s\n", v.Package)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&req.Credits, "credits", 0, "credits granted by the voucher")
	cmd.Flags().StringVar(&req.Package, "package", "", "package granted by the voucher")

	return cmd
}

func (c *Cli) runList(ctx context.Context, resource api.Resource) error {
	rows, err := c.api.ListResource(ctx, resource)
	if err != nil {
		return c.apiError(ctx, err)
	}

	if len(rows) == 0 {
		c.io.Printf("No %s found.\n", resource)
		return nil
	}

	c.io.Printf("Found %d record(s):\n\n", len(rows))
	return writeTable(c.io, rows)
}
