package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Booking   BookingConfig   `yaml:"booking"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// DatabaseConfig contains PostgreSQL connection settings. Driver "memory"
// keeps everything in process and ignores the connection fields.
type DatabaseConfig struct {
	Driver         string `yaml:"driver"` // "postgres" or "memory"
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"ssl_mode"`
	Migrate        bool   `yaml:"migrate"`
	ConnectRetries int    `yaml:"connect_retries"`
	MaxOpenConns   int    `yaml:"max_open_conns"`
}

// RedisConfig enables the shared booking lock used when several API
// instances serve the same shops.
type RedisConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	LockTTLMillis int    `yaml:"lock_ttl_ms"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	Issuer            string `yaml:"issuer"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// BookingConfig holds the booking rules that shops share.
type BookingConfig struct {
	BackdateWindowDays int     `yaml:"backdate_window_days"`
	MaxVisibleStacks   int     `yaml:"max_visible_stacks"`
	MinSegmentWidthPct float64 `yaml:"min_segment_width_pct"`
	DefaultTimezone    string  `yaml:"default_timezone"`
	WeekStartDay       string  `yaml:"week_start_day"`
	MaxCalendarDays    int     `yaml:"max_calendar_days"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	Enabled               bool   `yaml:"enabled"`
	BackfillInvoices      string `yaml:"backfill_invoices"`
	PurgeStaleOverrides   string `yaml:"purge_stale_overrides"`
	OverrideRetentionDays int    `yaml:"override_retention_days"`
}

// Load reads configuration from a YAML file. A .env file next to the working
// directory is loaded first so its values take part in the env overrides.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func envInt(key string, target *int) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*target = n
		}
	}
}

func envBool(key string, target *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*target = b
		}
	}
}

func envString(key string, target *string) {
	if val := os.Getenv(key); val != "" {
		*target = val
	}
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	envString("DB_DRIVER", &c.Database.Driver)
	envString("DB_HOST", &c.Database.Host)
	envInt("DB_PORT", &c.Database.Port)
	envString("DB_USER", &c.Database.User)
	envString("DB_PASSWORD", &c.Database.Password)
	envString("DB_NAME", &c.Database.Database)
	envString("DB_SSL_MODE", &c.Database.SSLMode)
	envBool("DB_MIGRATE", &c.Database.Migrate)

	// Redis
	envBool("REDIS_ENABLED", &c.Redis.Enabled)
	envString("REDIS_ADDR", &c.Redis.Addr)
	envString("REDIS_PASSWORD", &c.Redis.Password)
	envInt("REDIS_DB", &c.Redis.DB)

	// JWT
	envString("JWT_SECRET", &c.JWT.Secret)
	envString("JWT_ISSUER", &c.JWT.Issuer)

	// Server
	envString("SERVER_HOST", &c.Server.Host)
	envInt("SERVER_PORT", &c.Server.Port)

	// Log
	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)

	// Booking
	envInt("BOOKING_BACKDATE_WINDOW_DAYS", &c.Booking.BackdateWindowDays)
	envString("BOOKING_DEFAULT_TIMEZONE", &c.Booking.DefaultTimezone)

	// Scheduler
	envBool("SCHEDULER_ENABLED", &c.Scheduler.Enabled)

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 15
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = 10
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}
	if c.Database.ConnectRetries == 0 {
		c.Database.ConnectRetries = 5
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 20
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required when redis is enabled")
	}
	if c.Redis.LockTTLMillis == 0 {
		c.Redis.LockTTLMillis = 5000
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "rentalshop"
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 12 * 60
	}

	// Booking defaults
	if c.Booking.BackdateWindowDays == 0 {
		c.Booking.BackdateWindowDays = 7
	}
	if c.Booking.BackdateWindowDays < 0 {
		return fmt.Errorf("backdate window must not be negative: %d", c.Booking.BackdateWindowDays)
	}
	if c.Booking.MaxVisibleStacks <= 0 {
		c.Booking.MaxVisibleStacks = 3
	}
	if c.Booking.MinSegmentWidthPct == 0 {
		c.Booking.MinSegmentWidthPct = 5
	}
	if c.Booking.MinSegmentWidthPct < 0 || c.Booking.MinSegmentWidthPct > 100 {
		return fmt.Errorf("invalid min segment width: %v", c.Booking.MinSegmentWidthPct)
	}
	if c.Booking.DefaultTimezone == "" {
		c.Booking.DefaultTimezone = "UTC"
	}
	if _, err := time.LoadLocation(c.Booking.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid default timezone %q: %w", c.Booking.DefaultTimezone, err)
	}
	if c.Booking.WeekStartDay == "" {
		c.Booking.WeekStartDay = "monday"
	}
	if _, ok := weekdays[c.Booking.WeekStartDay]; !ok {
		return fmt.Errorf("invalid week start day: %s", c.Booking.WeekStartDay)
	}
	if c.Booking.MaxCalendarDays == 0 {
		c.Booking.MaxCalendarDays = 62
	}

	// Scheduler defaults
	if c.Scheduler.BackfillInvoices == "" {
		c.Scheduler.BackfillInvoices = "0 */15 * * * *" // every 15 minutes
	}
	if c.Scheduler.PurgeStaleOverrides == "" {
		c.Scheduler.PurgeStaleOverrides = "0 30 3 * * *" // 3:30 AM UTC
	}
	if c.Scheduler.OverrideRetentionDays == 0 {
		c.Scheduler.OverrideRetentionDays = 90
	}

	return nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DefaultLocation is used for shops without a timezone of their own.
func (c *Config) DefaultLocation() *time.Location {
	loc, err := time.LoadLocation(c.Booking.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) WeekStart() time.Weekday {
	return weekdays[c.Booking.WeekStartDay]
}

func (c *Config) BackdateWindow() time.Duration {
	return time.Duration(c.Booking.BackdateWindowDays) * 24 * time.Hour
}

func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.Redis.LockTTLMillis) * time.Millisecond
}
