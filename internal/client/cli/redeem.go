package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

func (c *Cli) redeemCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "redeem <code>",
		Short: "Redeem a voucher code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.require(); err != nil {
				return err
			}
			return c.runRedeem(cmd.Context(), strings.TrimSpace(args[0]))
		},
	}
}

func (c *Cli) runRedeem(ctx context.Context, code string) error {
	result, err := c.api.RedeemVoucher(ctx, code)
	if err != nil {
		return c.apiError(ctx, err)
	}

	c.io.Println("✓ Voucher redeemed!")
	c.io.Printf("Credits added: %.2f\n", result.Credits)
	c.io.Printf("Balance:       %.2f\n", result.Balance)
	if result.Package != "" {
		c.io.Printf("Package:       %s\n", result.Package)
	}

	// Баланс изменился: обновляем профиль сессии
	c.session.Wait()
	c.session.FetchProfile(ctx)
	return nil
}
