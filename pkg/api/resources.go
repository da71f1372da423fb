package api

import "time"

// Resource путь коллекции на сервере относительно /api/
type Resource string

const (
	ResourceAccounts      Resource = "accounts"
	ResourceBots          Resource = "bots"
	ResourceSignals       Resource = "signals"
	ResourceTrades        Resource = "trades"
	ResourceTransactions  Resource = "transactions"
	ResourceAdminUsers    Resource = "admin/users"
	ResourceAdminVouchers Resource = "admin/vouchers"
)

// UserResources коллекции, доступные любому аутентифицированному пользователю
var UserResources = []Resource{
	ResourceAccounts,
	ResourceBots,
	ResourceSignals,
	ResourceTrades,
	ResourceTransactions,
}

// ListResponse ответ на GET коллекции
type ListResponse struct {
	Data    []map[string]any `json:"data"`
	Success bool             `json:"success"`
}

// RedeemRequest запрос на активацию ваучера
type RedeemRequest struct {
	Code string `json:"code"`
}

// RedeemResult результат активации ваучера
type RedeemResult struct {
	Package string  `json:"package,omitempty"`
	Credits float64 `json:"credits"`
	Balance float64 `json:"balance"`
}

// RedeemResponse ответ POST /api/vouchers/redeem
type RedeemResponse struct {
	Data    *RedeemResult `json:"data"`
	Success bool          `json:"success"`
}

// CreateVoucherRequest запрос администратора на выпуск ваучера
type CreateVoucherRequest struct {
	Package string  `json:"package,omitempty"`
	Credits float64 `json:"credits"`
}

// Voucher ваучер в ответах администратора
type Voucher struct {
	CreatedAt  time.Time  `json:"createdAt"`
	RedeemedAt *time.Time `json:"redeemedAt"`
	RedeemedBy *string    `json:"redeemedBy"`
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	Package    string     `json:"package,omitempty"`
	Credits    float64    `json:"credits"`
}

// VoucherResponse ответ POST /api/admin/vouchers
type VoucherResponse struct {
	Data    *Voucher `json:"data"`
	Success bool     `json:"success"`
}
