package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/tradedesk/internal/crypto"
	"github.com/iudanet/tradedesk/internal/models"
	"github.com/iudanet/tradedesk/internal/server/handlers"
	"github.com/iudanet/tradedesk/internal/server/storage"
	"github.com/iudanet/tradedesk/pkg/api"
)

// Учетные данные демо-пользователя, создаваемого флагом --seed
const (
	DemoEmail    = "demo@tradedesk.local"
	DemoPassword = "demo-password"
)

// EnsureAdmin создает администратора, если пользователя с таким email еще нет
func EnsureAdmin(ctx context.Context, users storage.UserStorage, email, password string, logger *slog.Logger) error {
	existing, err := users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != api.RoleAdmin {
			logger.Warn("bootstrap admin email belongs to a non-admin user", slog.String("email", email))
		}
		return nil
	case !errors.Is(err, storage.ErrUserNotFound):
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	admin, err := newUser(email, "Administrator", password, api.RoleAdmin)
	if err != nil {
		return err
	}
	admin.Package = "enterprise"

	if err := users.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	logger.Info("bootstrap admin created", slog.String("email", email), slog.String("user_id", admin.ID))
	return nil
}

// demoRecords записи демо-пользователя по коллекциям
var demoRecords = map[api.Resource][]map[string]any{
	api.ResourceAccounts: {
		{"name": "Binance Spot", "exchange": "binance", "status": "connected", "balance": 1520.75},
		{"name": "Bybit Futures", "exchange": "bybit", "status": "disconnected", "balance": 0},
	},
	api.ResourceBots: {
		{"name": "BTC Grid", "symbol": "BTCUSDT", "type": "grid", "status": "running"},
		{"name": "ETH DCA", "symbol": "ETHUSDT", "type": "dca", "status": "stopped"},
	},
	api.ResourceSignals: {
		{"symbol": "SOLUSDT", "side": "BUY", "price": 142.3, "status": "open"},
	},
	api.ResourceTrades: {
		{"symbol": "BTCUSDT", "side": "BUY", "amount": 0.015, "price": 64250.5, "status": "filled"},
		{"symbol": "ETHUSDT", "side": "SELL", "amount": 0.4, "price": 3105.2, "status": "filled"},
	},
	api.ResourceTransactions: {
		{"type": "deposit", "amount": 500, "status": "completed"},
	},
}

// Seed наполняет базу демо-данными: пользователь, записи коллекций и ваучеры.
// Повторный вызов ничего не делает, если демо-пользователь уже есть.
func Seed(ctx context.Context, store Store, logger *slog.Logger) error {
	if _, err := store.GetUserByEmail(ctx, DemoEmail); err == nil {
		logger.Debug("demo data already present")
		return nil
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return fmt.Errorf("failed to look up demo user: %w", err)
	}

	demo, err := newUser(DemoEmail, "Demo Trader", DemoPassword, api.RoleUser)
	if err != nil {
		return err
	}
	if err := store.CreateUser(ctx, demo); err != nil {
		return fmt.Errorf("failed to create demo user: %w", err)
	}

	now := time.Now()
	for kind, records := range demoRecords {
		for i, fields := range records {
			data, err := json.Marshal(fields)
			if err != nil {
				return fmt.Errorf("failed to encode demo %s: %w", kind, err)
			}
			res := &models.Resource{
				ID:        uuid.New().String(),
				UserID:    demo.ID,
				Kind:      kind,
				Data:      data,
				CreatedAt: now.Add(-time.Duration(i) * time.Hour),
			}
			if err := store.CreateResource(ctx, res); err != nil {
				return fmt.Errorf("failed to create demo %s: %w", kind, err)
			}
		}
	}

	for _, v := range []struct {
		pkg     string
		credits float64
	}{{credits: 100}, {credits: 500, pkg: "pro"}} {
		code, err := crypto.GenerateVoucherCode()
		if err != nil {
			return err
		}
		voucher := &models.Voucher{
			ID:        uuid.New().String(),
			Code:      code,
			Credits:   v.credits,
			Package:   v.pkg,
			CreatedAt: now,
		}
		if err := store.CreateVoucher(ctx, voucher); err != nil {
			return fmt.Errorf("failed to create demo voucher: %w", err)
		}
		logger.Info("demo voucher created", slog.String("code", code), slog.Float64("credits", v.credits))
	}

	logger.Info("demo data created", slog.String("email", DemoEmail))
	return nil
}

func newUser(email, name, password, role string) (*models.User, error) {
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	return &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		Package:      handlers.DefaultPackage,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
