// Package config загружает настройки сервера разработки TradeDesk.
//
// Порядок источников такой же, как у клиента: значения по умолчанию,
// файл (--config), окружение TRADEDESK_SERVER_*, флаги.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/iudanet/tradedesk/internal/validation"
)

// EnvPrefix префикс переменных окружения сервера
const EnvPrefix = "TRADEDESK_SERVER"

// MinSecretLen минимальная длина секрета подписи токенов
const MinSecretLen = 16

// Ключи конфигурации; совпадают с именами флагов
const (
	KeyConfig        = "config"
	KeyAddr          = "addr"
	KeyDB            = "db"
	KeyJWTSecret     = "jwt-secret"
	KeyTokenTTL      = "token-ttl"
	KeyRateLimit     = "rate-limit"
	KeyLogLevel      = "log-level"
	KeyLogFormat     = "log-format"
	KeyAdminEmail    = "admin-email"
	KeyAdminPassword = "admin-password"
	KeySeed          = "seed"
	KeyTrustedProxy  = "trusted-proxies"
)

// ErrInvalidConfig некорректное значение настройки
var ErrInvalidConfig = errors.New("invalid config")

// Config настройки сервера
type Config struct {
	Addr          string
	DBPath        string
	JWTSecret     string
	LogLevel      string
	LogFormat     string
	AdminEmail    string
	AdminPassword string
	// Адреса или подсети прокси, чьим X-Forwarded-For можно верить
	TrustedProxies []string
	TokenTTL       time.Duration
	RateLimit      int // запросов в минуту с одного IP на /api/auth/*
	Seed           bool
}

// Defaults возвращает настройки по умолчанию. JWTSecret по умолчанию пуст и обязателен.
func Defaults() Config {
	return Config{
		Addr:      ":8080",
		DBPath:    "tradedesk-server.db",
		TokenTTL:  24 * time.Hour,
		RateLimit: 30,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// RegisterFlags добавляет флаги сервера в набор
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String(KeyConfig, "", "path to config file (yaml, json or toml)")
	fs.String(KeyAddr, d.Addr, "listen address")
	fs.String(KeyDB, d.DBPath, "path to SQLite database")
	fs.String(KeyJWTSecret, "", "secret for signing access tokens (required)")
	fs.Duration(KeyTokenTTL, d.TokenTTL, "access token lifetime")
	fs.Int(KeyRateLimit, d.RateLimit, "auth requests per minute per client IP, 0 disables")
	fs.String(KeyLogLevel, d.LogLevel, "log level: debug, info, warn, error")
	fs.String(KeyLogFormat, d.LogFormat, "log format: text or json")
	fs.String(KeyAdminEmail, "", "bootstrap admin email")
	fs.String(KeyAdminPassword, "", "bootstrap admin password")
	fs.Bool(KeySeed, false, "fill empty database with demo records")
	fs.StringSlice(KeyTrustedProxy, nil, "proxy IPs or CIDRs allowed to set X-Forwarded-For")
}

// Load собирает конфигурацию из всех источников. fs может быть nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault(KeyAddr, d.Addr)
	v.SetDefault(KeyDB, d.DBPath)
	v.SetDefault(KeyTokenTTL, d.TokenTTL)
	v.SetDefault(KeyRateLimit, d.RateLimit)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Addr:           v.GetString(KeyAddr),
		DBPath:         v.GetString(KeyDB),
		JWTSecret:      v.GetString(KeyJWTSecret),
		TokenTTL:       v.GetDuration(KeyTokenTTL),
		RateLimit:      v.GetInt(KeyRateLimit),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
		AdminEmail:     validation.NormalizeEmail(v.GetString(KeyAdminEmail)),
		AdminPassword:  v.GetString(KeyAdminPassword),
		Seed:           v.GetBool(KeySeed),
		TrustedProxies: v.GetStringSlice(KeyTrustedProxy),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: listen address is empty", ErrInvalidConfig)
	}
	if c.DBPath == "" {
		return fmt.Errorf("%w: db path is empty", ErrInvalidConfig)
	}
	if len(c.JWTSecret) < MinSecretLen {
		return fmt.Errorf("%w: jwt secret must be at least %d characters", ErrInvalidConfig, MinSecretLen)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%w: token ttl must be positive", ErrInvalidConfig)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalidConfig)
	}
	if _, err := ParsePrefixes(c.TrustedProxies); err != nil {
		return fmt.Errorf("%w: trusted proxies: %v", ErrInvalidConfig, err)
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("%w: admin email and password must be set together", ErrInvalidConfig)
	}
	if c.AdminEmail != "" {
		if err := validation.ValidateEmail(c.AdminEmail); err != nil {
			return fmt.Errorf("%w: admin email: %v", ErrInvalidConfig, err)
		}
		if err := validation.ValidatePassword(c.AdminPassword); err != nil {
			return fmt.Errorf("%w: admin password: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// HasAdmin сообщает, задан ли администратор для начальной загрузки
func (c *Config) HasAdmin() bool {
	return c.AdminEmail != ""
}

// TrustedProxyPrefixes возвращает разобранный список доверенных прокси.
// Некорректные записи отсеиваются в Validate.
func (c *Config) TrustedProxyPrefixes() []netip.Prefix {
	prefixes, _ := ParsePrefixes(c.TrustedProxies)
	return prefixes
}

// ParsePrefixes разбирает адреса и подсети; одиночный адрес становится /32 или /128
func ParsePrefixes(list []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(list))
	for _, item := range list {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
