package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this email already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrVoucherNotFound indicates that voucher code is unknown
	ErrVoucherNotFound = errors.New("voucher not found")

	// ErrVoucherRedeemed indicates that voucher was already used
	ErrVoucherRedeemed = errors.New("voucher already redeemed")

	// ErrVoucherAlreadyExists indicates a voucher code collision
	ErrVoucherAlreadyExists = errors.New("voucher already exists")
)
