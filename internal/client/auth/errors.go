package auth

import "errors"

var (
	// ErrTokenExpired токен истек к моменту, когда его пытались установить
	ErrTokenExpired = errors.New("token expired")

	// ErrNotAuthenticated нет действующей сессии
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrForbidden роль пользователя не допускает действие
	ErrForbidden = errors.New("permission denied")
)
