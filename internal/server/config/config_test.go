package config

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef-secret"

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_RequiresSecret(t *testing.T) {
	_, err := Load(newFlags(t))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newFlags(t, "--jwt-secret", testSecret))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "tradedesk-server.db", cfg.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 30, cfg.RateLimit)
	assert.False(t, cfg.HasAdmin())
	assert.False(t, cfg.Seed)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("TRADEDESK_SERVER_JWT_SECRET", testSecret)
	t.Setenv("TRADEDESK_SERVER_TOKEN_TTL", "2h")
	t.Setenv("TRADEDESK_SERVER_ADMIN_EMAIL", " Admin@Example.com ")
	t.Setenv("TRADEDESK_SERVER_ADMIN_PASSWORD", "supersecret")

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, testSecret, cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "admin@example.com", cfg.AdminEmail)
	assert.True(t, cfg.HasAdmin())
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("TRADEDESK_SERVER_JWT_SECRET", testSecret)
	t.Setenv("TRADEDESK_SERVER_ADDR", ":9000")

	cfg, err := Load(newFlags(t, "--addr", "127.0.0.1:7000", "--rate-limit", "0", "--seed"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
	assert.Equal(t, 0, cfg.RateLimit)
	assert.True(t, cfg.Seed)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	content := "jwt-secret: " + testSecret + "\ndb: /tmp/td.db\ntoken-ttl: 30m\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(newFlags(t, "--config", path))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/td.db", cfg.DBPath)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		c := Defaults()
		c.JWTSecret = testSecret
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "short secret", mutate: func(c *Config) { c.JWTSecret = "short" }, wantErr: true},
		{name: "empty addr", mutate: func(c *Config) { c.Addr = "" }, wantErr: true},
		{name: "empty db", mutate: func(c *Config) { c.DBPath = "" }, wantErr: true},
		{name: "zero ttl", mutate: func(c *Config) { c.TokenTTL = 0 }, wantErr: true},
		{name: "negative rate", mutate: func(c *Config) { c.RateLimit = -1 }, wantErr: true},
		{name: "admin without password", mutate: func(c *Config) { c.AdminEmail = "a@example.com" }, wantErr: true},
		{name: "admin bad email", mutate: func(c *Config) {
			c.AdminEmail = "nope"
			c.AdminPassword = "supersecret"
		}, wantErr: true},
		{name: "admin short password", mutate: func(c *Config) {
			c.AdminEmail = "a@example.com"
			c.AdminPassword = "short"
		}, wantErr: true},
		{name: "trusted proxies ok", mutate: func(c *Config) { c.TrustedProxies = []string{"10.0.0.0/8", "127.0.0.1", "::1"} }},
		{name: "bad trusted proxy", mutate: func(c *Config) { c.TrustedProxies = []string{"proxy.local"} }, wantErr: true},
		{name: "admin ok", mutate: func(c *Config) {
			c.AdminEmail = "a@example.com"
			c.AdminPassword = "supersecret"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	cfg, err := Load(newFlags(t, "--jwt-secret", testSecret, "--trusted-proxies", "10.0.0.0/8,192.168.1.7"))
	require.NoError(t, err)

	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.7"}, cfg.TrustedProxies)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.1.7/32"),
	}, cfg.TrustedProxyPrefixes())
}

func TestLoad_NoTrustedProxiesByDefault(t *testing.T) {
	cfg, err := Load(newFlags(t, "--jwt-secret", testSecret))
	require.NoError(t, err)
	assert.Empty(t, cfg.TrustedProxyPrefixes())
}
