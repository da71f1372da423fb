// Package config загружает настройки клиента TradeDesk.
//
// Источники в порядке возрастания приоритета:
//
//  1. значения по умолчанию (см. Defaults);
//  2. файл конфигурации (--config, YAML/JSON/TOML);
//  3. переменные окружения с префиксом TRADEDESK_ (TRADEDESK_PROFILE_TIMEOUT=5s);
//  4. флаги командной строки.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix префикс переменных окружения клиента
const EnvPrefix = "TRADEDESK"

// Ключи конфигурации; совпадают с именами флагов
const (
	KeyConfig         = "config"
	KeyServer         = "server"
	KeyDB             = "db"
	KeyStorage        = "storage"
	KeyTimeout        = "timeout"
	KeyProfileTimeout = "profile-timeout"
	KeyLogLevel       = "log-level"
	KeyLogFormat      = "log-format"
)

// Бэкенды хранилища токена
const (
	StorageBolt   = "bolt"
	StorageMemory = "memory"
)

// ErrInvalidConfig некорректное значение настройки
var ErrInvalidConfig = errors.New("invalid config")

// Config настройки клиента
type Config struct {
	Server         string
	DBPath         string
	Storage        string
	LogLevel       string
	LogFormat      string
	Timeout        time.Duration
	ProfileTimeout time.Duration
}

// Defaults возвращает настройки по умолчанию
func Defaults() Config {
	return Config{
		Server:         "http://localhost:8080",
		DBPath:         "tradedesk-client.db",
		Storage:        StorageBolt,
		Timeout:        30 * time.Second,
		ProfileTimeout: 10 * time.Second,
		LogLevel:       "warn",
		LogFormat:      "text",
	}
}

// RegisterFlags добавляет флаги клиента в набор (обычно persistent flags корневой команды)
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String(KeyConfig, "", "path to config file (yaml, json or toml)")
	fs.String(KeyServer, d.Server, "server URL")
	fs.String(KeyDB, d.DBPath, "path to local database")
	fs.String(KeyStorage, d.Storage, "token storage backend: bolt or memory")
	fs.Duration(KeyTimeout, d.Timeout, "HTTP request timeout")
	fs.Duration(KeyProfileTimeout, d.ProfileTimeout, "profile fetch timeout")
	fs.String(KeyLogLevel, d.LogLevel, "log level: debug, info, warn, error")
	fs.String(KeyLogFormat, d.LogFormat, "log format: text or json")
}

// Load собирает конфигурацию из всех источников. fs может быть nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault(KeyServer, d.Server)
	v.SetDefault(KeyDB, d.DBPath)
	v.SetDefault(KeyStorage, d.Storage)
	v.SetDefault(KeyTimeout, d.Timeout)
	v.SetDefault(KeyProfileTimeout, d.ProfileTimeout)
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
		Server:         strings.TrimSpace(v.GetString(KeyServer)),
		DBPath:         v.GetString(KeyDB),
		Storage:        strings.ToLower(v.GetString(KeyStorage)),
		Timeout:        v.GetDuration(KeyTimeout),
		ProfileTimeout: v.GetDuration(KeyProfileTimeout),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("%w: server URL is empty", ErrInvalidConfig)
	}
	switch c.Storage {
	case StorageBolt:
		if c.DBPath == "" {
			return fmt.Errorf("%w: db path is empty", ErrInvalidConfig)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if c.ProfileTimeout <= 0 {
		return fmt.Errorf("%w: profile timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
