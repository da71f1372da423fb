package api

import (
	"errors"
	"net/http"
)

var (
	// ErrMalformedResponse ответ сервера не соответствует ожидаемой структуре
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNoToken ответ login/register не содержит токена
	ErrNoToken = errors.New("response does not contain a token")
)

// APIError нормализованная ошибка запроса со статусом вне 2xx
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return e.Message
}

// IsUnauthorized сообщает, отклонил ли сервер учетные данные
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	return false
}
