package api

import "time"

// Роли пользователей, которые различает клиент
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email"`    // email пользователя
	Password string `json:"password"` // пароль в открытом виде (только по TLS)
}

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse представляет ответ login/register.
// Сервер может вернуть токен как на верхнем уровне, так и внутри data.
type TokenResponse struct {
	Data        *TokenData `json:"data,omitempty"`
	Token       string     `json:"token,omitempty"`
	AccessToken string     `json:"access_token,omitempty"`
	AccessCamel string     `json:"accessToken,omitempty"`
	Success     bool       `json:"success"`
}

// TokenData вложенный объект с токеном и данными пользователя
type TokenData struct {
	User        *UserProfile `json:"user,omitempty"`
	Token       string       `json:"token,omitempty"`
	AccessToken string       `json:"access_token,omitempty"`
	AccessCamel string       `json:"accessToken,omitempty"`
}

// UserProfile профиль пользователя, который отдает сервер
type UserProfile struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Package   string    `json:"package,omitempty"`
	Credits   float64   `json:"credits"`
	IsActive  bool      `json:"isActive"`
}

// ProfileResponse ответ GET /api/auth/profile
type ProfileResponse struct {
	Data    *UserProfile `json:"data"`
	Success bool         `json:"success"`
}

// UpdateProfileRequest запрос на изменение профиля
type UpdateProfileRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`   // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
	Success bool   `json:"success"`
}
