package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/tradedesk/internal/server/storage"
	"github.com/iudanet/tradedesk/pkg/api"
)

// VoucherHandler обрабатывает активацию ваучеров
type VoucherHandler struct {
	responder
	vouchers storage.VoucherStorage
}

// NewVoucherHandler создает handler ваучеров
func NewVoucherHandler(logger *slog.Logger, vouchers storage.VoucherStorage) *VoucherHandler {
	return &VoucherHandler{
		responder: responder{logger: logger},
		vouchers:  vouchers,
	}
}

// NormalizeCode приводит код ваучера к каноническому виду (верхний регистр, без пробелов)
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Redeem обрабатывает POST /api/vouchers/redeem
func (h *VoucherHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req api.RedeemRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	code := NormalizeCode(req.Code)
	if code == "" {
		h.sendError(w, r, "voucher code is required", http.StatusBadRequest)
		return
	}

	voucher, user, err := h.vouchers.RedeemVoucher(ctx, code, p.UserID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrVoucherNotFound):
			h.sendError(w, r, "voucher not found", http.StatusNotFound)
		case errors.Is(err, storage.ErrVoucherRedeemed):
			h.sendError(w, r, "voucher already redeemed", http.StatusConflict)
		case errors.Is(err, storage.ErrUserNotFound):
			h.sendError(w, r, "unauthorized", http.StatusUnauthorized)
		default:
			h.internalError(w, r, "failed to redeem voucher", err)
		}
		return
	}

	h.logger.InfoContext(ctx, "voucher redeemed",
		slog.String("user_id", p.UserID),
		slog.String("voucher_id", voucher.ID),
		slog.Float64("credits", voucher.Credits))

	h.sendData(w, r, api.RedeemResult{
		Credits: voucher.Credits,
		Package: voucher.Package,
		Balance: user.Credits,
	}, http.StatusOK)
}
