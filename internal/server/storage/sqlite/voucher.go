package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/tradedesk/internal/models"
	"github.com/iudanet/tradedesk/internal/server/storage"
)

const voucherColumns = `id, code, credits, package, redeemed_by, redeemed_at, created_at`

// CreateVoucher stores a new voucher
func (s *Storage) CreateVoucher(ctx context.Context, v *models.Voucher) error {
	query := `
		INSERT INTO vouchers (id, code, credits, package, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := s.db.ExecContext(ctx, query, v.ID, v.Code, v.Credits, v.Package, v.CreatedAt.UTC()); err != nil {
		if isUniqueViolation(err) {
			return storage.ErrVoucherAlreadyExists
		}
		return fmt.Errorf("failed to insert voucher: %w", err)
	}

	return nil
}

// ListVouchers returns all vouchers, newest first
func (s *Storage) ListVouchers(ctx context.Context) ([]*models.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers ORDER BY created_at DESC, code`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	vouchers := make([]*models.Voucher, 0)
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		vouchers = append(vouchers, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vouchers: %w", err)
	}

	return vouchers, nil
}

// RedeemVoucher marks voucher as used and credits the user in one transaction
func (s *Storage) RedeemVoucher(ctx context.Context, code, userID string) (*models.Voucher, *models.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	v, err := scanVoucher(tx.QueryRowContext(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE code = ?`, code))
	if err != nil {
		return nil, nil, err
	}
	if v.Redeemed() {
		return nil, nil, storage.ErrVoucherRedeemed
	}

	now := time.Now().UTC()

	result, err := tx.ExecContext(ctx,
		`UPDATE vouchers SET redeemed_by = ?, redeemed_at = ? WHERE id = ? AND redeemed_at IS NULL`,
		userID, now, v.ID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to mark voucher: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return nil, nil, fmt.Errorf("failed to get rows affected: %w", err)
	} else if rows == 0 {
		return nil, nil, storage.ErrVoucherRedeemed
	}

	result, err = tx.ExecContext(ctx, `
		UPDATE users
		SET credits = credits + ?,
		    package = CASE WHEN ? <> '' THEN ? ELSE package END,
		    updated_at = ?
		WHERE id = ?`,
		v.Credits, v.Package, v.Package, now, userID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to credit user: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return nil, nil, fmt.Errorf("failed to get rows affected: %w", err)
	} else if rows == 0 {
		return nil, nil, storage.ErrUserNotFound
	}

	user, err := scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID))
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit redeem: %w", err)
	}

	v.RedeemedAt = &now
	v.RedeemedBy = &userID
	return v, user, nil
}

func scanVoucher(row rowScanner) (*models.Voucher, error) {
	var (
		v          models.Voucher
		redeemedBy sql.NullString
		redeemedAt sql.NullTime
	)

	err := row.Scan(&v.ID, &v.Code, &v.Credits, &v.Package, &redeemedBy, &redeemedAt, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrVoucherNotFound
		}
		return nil, fmt.Errorf("failed to get voucher: %w", err)
	}

	if redeemedBy.Valid {
		v.RedeemedBy = &redeemedBy.String
	}
	if redeemedAt.Valid {
		v.RedeemedAt = &redeemedAt.Time
	}

	return &v, nil
}
