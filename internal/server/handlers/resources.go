package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/iudanet/tradedesk/internal/server/storage"
	"github.com/iudanet/tradedesk/pkg/api"
)

// ResourceHandler отдает коллекции пользователя (accounts, bots, signals, trades, transactions)
type ResourceHandler struct {
	responder
	resources storage.ResourceStorage
}

// NewResourceHandler создает handler коллекций
func NewResourceHandler(logger *slog.Logger, resources storage.ResourceStorage) *ResourceHandler {
	return &ResourceHandler{
		responder: responder{logger: logger},
		resources: resources,
	}
}

// List обрабатывает GET /api/{resource}
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	kind := api.Resource(r.PathValue("resource"))
	if !slices.Contains(api.UserResources, kind) {
		h.sendError(w, r, "unknown resource", http.StatusNotFound)
		return
	}

	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	records, err := h.resources.ListResources(r.Context(), p.UserID, kind)
	if err != nil {
		h.internalError(w, r, "failed to list resources", err)
		return
	}

	data := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		fields, err := rec.Fields()
		if err != nil {
			h.internalError(w, r, "failed to decode resource", err)
			return
		}
		data = append(data, fields)
	}

	h.logger.DebugContext(r.Context(), "resources listed",
		slog.String("user_id", p.UserID),
		slog.String("kind", string(kind)),
		slog.Int("count", len(data)))

	h.sendData(w, r, data, http.StatusOK)
}
