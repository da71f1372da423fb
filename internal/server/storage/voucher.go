package storage

import (
	"context"

	"github.com/iudanet/tradedesk/internal/models"
)

//go:generate moq -out voucher_mock.go . VoucherStorage

// VoucherStorage defines interface for voucher persistence
type VoucherStorage interface {
	// CreateVoucher stores a new voucher
	// Returns ErrVoucherAlreadyExists on code collision
	CreateVoucher(ctx context.Context, v *models.Voucher) error

	// ListVouchers returns all vouchers, newest first
	ListVouchers(ctx context.Context) ([]*models.Voucher, error)

	// RedeemVoucher marks voucher as used by the user and credits the user
	// in one transaction. Returns the updated user.
	// Returns ErrVoucherNotFound or ErrVoucherRedeemed
	RedeemVoucher(ctx context.Context, code, userID string) (*models.Voucher, *models.User, error)
}
