package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/tradedesk/internal/server/middleware"
	"github.com/iudanet/tradedesk/pkg/api"
)

// maxBodyBytes ограничение размера тела запроса
const maxBodyBytes = 1 << 20

// envelope успешный ответ API: {success: true, data: ...}
type envelope struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

// responder общие методы отправки ответов для всех handlers
type responder struct {
	logger *slog.Logger
}

// sendJSON отправляет JSON ответ как есть
func (h responder) sendJSON(w http.ResponseWriter, r *http.Request, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode JSON response", slog.Any("error", err))
	}
}

// sendData отправляет {success: true, data}
func (h responder) sendData(w http.ResponseWriter, r *http.Request, data any, statusCode int) {
	h.sendJSON(w, r, envelope{Success: true, Data: data}, statusCode)
}

// sendError отправляет JSON ответ с ошибкой {success: false, error}
func (h responder) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.sendJSON(w, r, api.ErrorResponse{Error: message}, statusCode)
}

// decodeJSON читает тело запроса в dst; неизвестные поля запрещены
func (h responder) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		h.logger.DebugContext(r.Context(), "failed to decode request", slog.Any("error", err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.sendError(w, r, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		h.sendError(w, r, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// principal извлекает пользователя из контекста; при отсутствии отвечает 401
func (h responder) principal(w http.ResponseWriter, r *http.Request) (middleware.Principal, bool) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok || p.UserID == "" {
		h.logger.ErrorContext(r.Context(), "user not found in context")
		h.sendError(w, r, "unauthorized", http.StatusUnauthorized)
		return middleware.Principal{}, false
	}
	return p, true
}

// internalError логирует ошибку и отвечает 500 без подробностей
func (h responder) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		slog.Any("error", err),
		slog.String("request_id", middleware.RequestID(r.Context())),
	)
	h.sendError(w, r, "internal server error", http.StatusInternalServerError)
}
