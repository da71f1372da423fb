package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iudanet/tradedesk/pkg/api"
)

// Пути API
const (
	PathLogin    = "/api/auth/login"
	PathRegister = "/api/auth/register"
	PathProfile  = "/api/auth/profile"
	PathRedeem   = "/api/vouchers/redeem"
	PathVouchers = "/api/admin/vouchers"
)

// Login выполняет аутентификацию и возвращает токен сессии
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (string, error) {
	var resp api.TokenResponse
	if err := c.Do(ctx, http.MethodPost, PathLogin, req, &resp, WithoutAuth()); err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	return extractToken(&resp)
}

// Register регистрирует нового пользователя и возвращает токен сессии
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (string, error) {
	var resp api.TokenResponse
	if err := c.Do(ctx, http.MethodPost, PathRegister, req, &resp, WithoutAuth()); err != nil {
		return "", fmt.Errorf("register request failed: %w", err)
	}
	return extractToken(&resp)
}

// FetchProfile получает профиль пользователя для переданного токена.
// Ответ должен иметь вид {success: true, data: {...}}, иначе ErrMalformedResponse.
func (c *Client) FetchProfile(ctx context.Context, token string) (*api.UserProfile, error) {
	var resp api.ProfileResponse
	if err := c.Do(ctx, http.MethodGet, PathProfile, nil, &resp, WithBearer(token)); err != nil {
		return nil, fmt.Errorf("get profile request failed: %w", err)
	}
	if !resp.Success || resp.Data == nil {
		return nil, fmt.Errorf("get profile request failed: %w", ErrMalformedResponse)
	}
	return resp.Data, nil
}

// UpdateProfile изменяет имя/email текущего пользователя
func (c *Client) UpdateProfile(ctx context.Context, req api.UpdateProfileRequest) (*api.UserProfile, error) {
	var resp api.ProfileResponse
	if err := c.Do(ctx, http.MethodPut, PathProfile, req, &resp); err != nil {
		return nil, fmt.Errorf("update profile request failed: %w", err)
	}
	if !resp.Success || resp.Data == nil {
		return nil, fmt.Errorf("update profile request failed: %w", ErrMalformedResponse)
	}
	return resp.Data, nil
}

// ListResource получает коллекцию (accounts, bots, ...) текущего пользователя
func (c *Client) ListResource(ctx context.Context, resource api.Resource) ([]map[string]any, error) {
	var resp api.ListResponse
	if err := c.Do(ctx, http.MethodGet, "/api/"+string(resource), nil, &resp); err != nil {
		return nil, fmt.Errorf("list %s request failed: %w", resource, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("list %s request failed: %w", resource, ErrMalformedResponse)
	}
	return resp.Data, nil
}

// RedeemVoucher активирует ваучер и возвращает начисленные кредиты
func (c *Client) RedeemVoucher(ctx context.Context, code string) (*api.RedeemResult, error) {
	var resp api.RedeemResponse
	if err := c.Do(ctx, http.MethodPost, PathRedeem, api.RedeemRequest{Code: code}, &resp); err != nil {
		return nil, fmt.Errorf("redeem request failed: %w", err)
	}
	if !resp.Success || resp.Data == nil {
		return nil, fmt.Errorf("redeem request failed: %w", ErrMalformedResponse)
	}
	return resp.Data, nil
}

// CreateVoucher выпускает ваучер (только ADMIN)
func (c *Client) CreateVoucher(ctx context.Context, req api.CreateVoucherRequest) (*api.Voucher, error) {
	var resp api.VoucherResponse
	if err := c.Do(ctx, http.MethodPost, PathVouchers, req, &resp); err != nil {
		return nil, fmt.Errorf("create voucher request failed: %w", err)
	}
	if !resp.Success || resp.Data == nil {
		return nil, fmt.Errorf("create voucher request failed: %w", ErrMalformedResponse)
	}
	return resp.Data, nil
}

// extractToken достает токен из ответа: с верхнего уровня или из data
func extractToken(resp *api.TokenResponse) (string, error) {
	for _, candidate := range []string{resp.Token, resp.AccessToken, resp.AccessCamel} {
		if candidate != "" {
			return candidate, nil
		}
	}
	if resp.Data != nil {
		for _, candidate := range []string{resp.Data.Token, resp.Data.AccessToken, resp.Data.AccessCamel} {
			if candidate != "" {
				return candidate, nil
			}
		}
	}
	return "", ErrNoToken
}
