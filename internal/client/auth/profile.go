package auth

import (
	"github.com/iudanet/tradedesk/internal/client/token"
	"github.com/iudanet/tradedesk/pkg/api"
)

// fallbackProfile строит минимальный профиль из claims, когда сервер
// не отдал профиль. Роль ADMIN сохраняется только если claims явно ее содержат.
func fallbackProfile(claims *token.Claims) *api.UserProfile {
	if claims == nil {
		return nil
	}

	role := api.RoleUser
	if claims.Role == api.RoleAdmin {
		role = api.RoleAdmin
	}

	return &api.UserProfile{
		ID:       claims.ID(),
		Email:    claims.Email,
		Name:     claims.Name,
		Role:     role,
		Credits:  0,
		IsActive: true,
	}
}

// EffectiveRole возвращает роль для принятия решений в UI:
// роль из профиля, если профиль загружен, иначе роль из claims
func EffectiveRole(st State) string {
	if st.Profile != nil && st.Profile.Role != "" {
		return st.Profile.Role
	}
	if st.Claims != nil {
		return st.Claims.Role
	}
	return ""
}
