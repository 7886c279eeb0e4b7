package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"rentalshop-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
server:
  port: 8080
database:
  driver: memory
jwt:
  secret: "0123456789abcdef0123456789abcdef"
booking:
  default_timezone: Asia/Kolkata
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, sample))
		require.NoError(t, err)

		assert.Equal(t, "memory", cfg.Database.Driver)
		assert.Equal(t, 7, cfg.Booking.BackdateWindowDays)
		assert.Equal(t, 7*24*time.Hour, cfg.BackdateWindow())
		assert.Equal(t, 3, cfg.Booking.MaxVisibleStacks)
		assert.Equal(t, 5.0, cfg.Booking.MinSegmentWidthPct)
		assert.Equal(t, time.Monday, cfg.WeekStart())
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "text", cfg.Log.Format)
		assert.NotEmpty(t, cfg.Scheduler.BackfillInvoices)
		assert.Equal(t, "Asia/Kolkata", cfg.DefaultLocation().String())
	})

	t.Run("Env overrides", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("BOOKING_BACKDATE_WINDOW_DAYS", "3")
		t.Setenv("LOG_FORMAT", "json")

		cfg, err := Load(writeConfig(t, sample))
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, 3, cfg.Booking.BackdateWindowDays)
		assert.Equal(t, "json", cfg.Log.Format)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: "postgres", Host: "localhost", User: "shop", Database: "shop"},
			JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
		}
	}

	t.Run("Postgres defaults", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres://shop:@localhost:5432/shop?sslmode=disable", cfg.GetDatabaseConnectionString())
	})

	cases := map[string]func(*Config){
		"bad port":         func(c *Config) { c.Server.Port = 0 },
		"missing db host":  func(c *Config) { c.Database.Host = "" },
		"unknown driver":   func(c *Config) { c.Database.Driver = "mysql" },
		"short secret":     func(c *Config) { c.JWT.Secret = "short" },
		"redis no addr":    func(c *Config) { c.Redis.Enabled = true },
		"bad timezone":     func(c *Config) { c.Booking.DefaultTimezone = "Mars/Olympus" },
		"bad week start":   func(c *Config) { c.Booking.WeekStartDay = "someday" },
		"negative window":  func(c *Config) { c.Booking.BackdateWindowDays = -1 },
		"width above 100%": func(c *Config) { c.Booking.MinSegmentWidthPct = 150 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSecurityLevels(t *testing.T) {
	assert.Equal(t, SecurityPublic, GetSecurityLevel("GET", "/healthz"))
	assert.Equal(t, SecurityManager, GetSecurityLevel("DELETE", "/api/v1/bookings/{id}"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("POST", "/api/v1/bookings"))

	assert.True(t, SecurityAccess.Allows(domain.StaffRoleClerk))
	assert.False(t, SecurityManager.Allows(domain.StaffRoleClerk))
	assert.True(t, SecurityManager.Allows(domain.StaffRoleManager))
}
