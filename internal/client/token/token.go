// Package token декодирует access token, выданный сервером, в набор claims.
//
// Клиент не знает секрет сервера, поэтому подпись не проверяется:
// токен используется только для чтения claims и срока действия.
// Проверка подписи остается ответственностью сервера.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrDecode возвращается для любого токена, который не удалось разобрать
var ErrDecode = errors.New("failed to decode token")

// Имена claims, которые переносятся в отдельные поля Claims
const (
	claimSubject   = "sub"
	claimIssuedAt  = "iat"
	claimExpiresAt = "exp"
	claimName      = "name"
	claimEmail     = "email"
	claimRole      = "role"
)

// альтернативные имена идентификатора пользователя, в порядке приоритета
var userIDClaims = []string{"userId", "user_id", "id"}

// Claims содержит декодированные данные токена
type Claims struct {
	IssuedAt  time.Time      // zero, если iat отсутствует
	ExpiresAt time.Time      // zero, если exp отсутствует
	Extra     map[string]any // все остальные claims
	Subject   string
	UserID    string
	Name      string
	Email     string
	Role      string
}

// ID возвращает идентификатор пользователя: sub, а если его нет - альтернативный user id
func (c *Claims) ID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.UserID
}

// Expired сообщает, истек ли токен к моменту now.
// Токен без exp на клиенте не истекает.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return c.ExpiresAt.Before(now)
}

var parser = jwt.NewParser()

// Decode разбирает compact JWT без проверки подписи.
// Любая ошибка формата возвращается как ErrDecode.
func Decode(raw string) (*Claims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrDecode)
	}

	mc := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, mc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	claims := &Claims{Extra: make(map[string]any)}

	exp, err := mc.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: exp: %v", ErrDecode, err)
	}
	if exp != nil {
		claims.ExpiresAt = exp.Time
	}

	iat, err := mc.GetIssuedAt()
	if err != nil {
		return nil, fmt.Errorf("%w: iat: %v", ErrDecode, err)
	}
	if iat != nil {
		claims.IssuedAt = iat.Time
	}

	claims.Subject = stringClaim(mc[claimSubject])
	claims.Name = stringClaim(mc[claimName])
	claims.Email = stringClaim(mc[claimEmail])
	claims.Role = stringClaim(mc[claimRole])

	for _, key := range userIDClaims {
		if v := stringClaim(mc[key]); v != "" {
			claims.UserID = v
			break
		}
	}

	for key, value := range mc {
		switch key {
		case claimSubject, claimIssuedAt, claimExpiresAt, claimName, claimEmail, claimRole:
			continue
		}
		claims.Extra[key] = value
	}

	return claims, nil
}

// stringClaim приводит строковый или числовой claim к строке
func stringClaim(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
