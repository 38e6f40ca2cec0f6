package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// Config holds all configuration values.
type Config struct {
	Port            string `mapstructure:"PORT"`
	Env             string `mapstructure:"ENV"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	DatabaseURL     string `mapstructure:"DATABASE_URL"`
	MigrationsPath  string `mapstructure:"MIGRATIONS_PATH"`
	AllowedOrigins  string `mapstructure:"ALLOWED_ORIGINS"`
	RateLimitPerMin int    `mapstructure:"RATE_LIMIT_PER_MIN"`
	TrustedProxies  string `mapstructure:"TRUSTED_PROXIES"`

	// Booking session storage.
	SessionBackend string        `mapstructure:"SESSION_BACKEND"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int           `mapstructure:"REDIS_DB"`

	// Contact directory.
	ContactsBaseURL    string        `mapstructure:"CONTACTS_BASE_URL"`
	ContactsTimeout    time.Duration `mapstructure:"CONTACTS_TIMEOUT"`
	ContactsMaxRetries int           `mapstructure:"CONTACTS_MAX_RETRIES"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	// Notifications.
	SendGridAPIKey    string `mapstructure:"SENDGRID_API_KEY"`
	SendGridFromEmail string `mapstructure:"SENDGRID_FROM_EMAIL"`
	SendGridFromName  string `mapstructure:"SENDGRID_FROM_NAME"`
	TwilioAccountSID  string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber  string `mapstructure:"TWILIO_FROM_NUMBER"`

	// Cron schedules.
	CronCompleteSpec string `mapstructure:"CRON_COMPLETE_SPEC"`
	CronReminderSpec string `mapstructure:"CRON_REMINDER_SPEC"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "MIGRATIONS_PATH", "ALLOWED_ORIGINS",
	"RATE_LIMIT_PER_MIN", "TRUSTED_PROXIES", "SESSION_BACKEND", "SESSION_TTL", "REDIS_ADDR",
	"REDIS_PASSWORD", "REDIS_DB", "CONTACTS_BASE_URL", "CONTACTS_TIMEOUT", "CONTACTS_MAX_RETRIES",
	"JWT_SECRET", "SENDGRID_API_KEY", "SENDGRID_FROM_EMAIL", "SENDGRID_FROM_NAME",
	"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_FROM_NUMBER", "CRON_COMPLETE_SPEC",
	"CRON_REMINDER_SPEC",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MIGRATIONS_PATH", "migrations")
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_PER_MIN", 200)
	v.SetDefault("SESSION_BACKEND", SessionBackendRedis)
	v.SetDefault("SESSION_TTL", 12*time.Hour)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CONTACTS_TIMEOUT", 5*time.Second)
	v.SetDefault("CONTACTS_MAX_RETRIES", 3)
	v.SetDefault("SENDGRID_FROM_NAME", "Service Booking")
	v.SetDefault("CRON_COMPLETE_SPEC", "@every 1h")
	v.SetDefault("CRON_REMINDER_SPEC", "0 9 * * *")
}

// Load reads .env (if present), the optional config.yaml and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	// Unmarshal only sees keys viper knows about, so env-only keys are bound explicitly.
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.ContactsBaseURL = strings.TrimRight(cfg.ContactsBaseURL, "/")
	cfg.SessionBackend = strings.ToLower(cfg.SessionBackend)
	if cfg.SessionBackend != SessionBackendRedis && cfg.SessionBackend != SessionBackendMemory {
		return nil, fmt.Errorf("unsupported SESSION_BACKEND %q", cfg.SessionBackend)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

// Proxies splits TRUSTED_PROXIES (IPs or CIDR ranges) on commas.
func (c *Config) Proxies() []string {
	return splitList(c.TrustedProxies)
}

// RemoteContacts reports whether the contact directory lives behind
// CONTACTS_BASE_URL rather than this server's own database.
func (c *Config) RemoteContacts() bool {
	return c.ContactsBaseURL != ""
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
