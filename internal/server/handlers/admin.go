package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/tradedesk/internal/crypto"
	"github.com/iudanet/tradedesk/internal/models"
	"github.com/iudanet/tradedesk/internal/server/middleware"
	"github.com/iudanet/tradedesk/internal/server/storage"
	"github.com/iudanet/tradedesk/pkg/api"
)

// voucherCodeAttempts число попыток сгенерировать незанятый код
const voucherCodeAttempts = 3

// AdminHandler административные эндпоинты; доступ проверяет RequireRole
type AdminHandler struct {
	responder
	users    storage.UserStorage
	vouchers storage.VoucherStorage
	newCode  func() (string, error)
	now      func() time.Time
}

// NewAdminHandler создает handler администратора
func NewAdminHandler(logger *slog.Logger, users storage.UserStorage, vouchers storage.VoucherStorage) *AdminHandler {
	return &AdminHandler{
		responder: responder{logger: logger},
		users:     users,
		vouchers:  vouchers,
		newCode:   crypto.GenerateVoucherCode,
		now:       time.Now,
	}
}

// ListUsers обрабатывает GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		h.internalError(w, r, "failed to list users", err)
		return
	}

	data := make([]*api.UserProfile, 0, len(users))
	for _, u := range users {
		data = append(data, u.Profile())
	}

	h.sendData(w, r, data, http.StatusOK)
}

// ListVouchers обрабатывает GET /api/admin/vouchers
func (h *AdminHandler) ListVouchers(w http.ResponseWriter, r *http.Request) {
	vouchers, err := h.vouchers.ListVouchers(r.Context())
	if err != nil {
		h.internalError(w, r, "failed to list vouchers", err)
		return
	}

	if vouchers == nil {
		vouchers = []*models.Voucher{}
	}

	h.sendData(w, r, vouchers, http.StatusOK)
}

// CreateVoucher обрабатывает POST /api/admin/vouchers
func (h *AdminHandler) CreateVoucher(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateVoucherRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if req.Credits <= 0 {
		h.sendError(w, r, "credits must be positive", http.StatusBadRequest)
		return
	}

	voucher := &models.Voucher{
		ID:        uuid.New().String(),
		Package:   strings.TrimSpace(req.Package),
		Credits:   req.Credits,
		CreatedAt: h.now(),
	}

	for attempt := 1; ; attempt++ {
		code, err := h.newCode()
		if err != nil {
			h.internalError(w, r, "failed to generate voucher code", err)
			return
		}
		voucher.Code = code

		err = h.vouchers.CreateVoucher(ctx, voucher)
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrVoucherAlreadyExists) || attempt >= voucherCodeAttempts {
			h.internalError(w, r, "failed to create voucher", err)
			return
		}
		h.logger.WarnContext(ctx, "voucher code collision, retrying", slog.Int("attempt", attempt))
	}

	p, _ := middleware.PrincipalFrom(ctx)
	h.logger.InfoContext(ctx, "voucher created",
		slog.String("admin_id", p.UserID),
		slog.String("voucher_id", voucher.ID),
		slog.Float64("credits", voucher.Credits))

	h.sendData(w, r, voucher, http.StatusCreated)
}
