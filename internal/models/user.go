package models

import (
	"time"

	"github.com/iudanet/tradedesk/pkg/api"
)

// User представляет пользователя в системе
type User struct {
	CreatedAt    time.Time `json:"created_at"` // время создания
	UpdatedAt    time.Time `json:"updated_at"` // время последнего обновления
	ID           string    `json:"id"`         // UUID пользователя
	Email        string    `json:"email"`      // уникальный email в нижнем регистре
	Name         string    `json:"name"`       // отображаемое имя
	PasswordHash string    `json:"-"`          // argon2id хеш пароля
	Role         string    `json:"role"`       // USER или ADMIN
	Package      string    `json:"package"`    // тарифный пакет
	Credits      float64   `json:"credits"`    // баланс кредитов
	IsActive     bool      `json:"is_active"`  // заблокированный пользователь не может войти
}

// Profile возвращает публичное представление пользователя
func (u *User) Profile() *api.UserProfile {
	return &api.UserProfile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Package:   u.Package,
		Credits:   u.Credits,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// IsAdmin сообщает, есть ли у пользователя роль ADMIN
func (u *User) IsAdmin() bool {
	return u.Role == api.RoleAdmin
}
