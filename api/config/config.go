package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string
	ServiceName string
	Port        string

	DBDriver    string
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	SQLitePath  string

	APISecret     string
	TokenTTL      time.Duration
	SessionSecret string
	BcryptCost    int

	RedisURL      string
	RedisAddr     string
	RedisPassword string
	FeedCacheTTL  time.Duration

	AllowedOrigins []string

	LogLevel       string
	SendgridAPIKey string
	MailFrom       string
	Admins         []string
}

// Load reads configuration from the environment. Outside production a .env
// file in the working directory is loaded first; values already set in the
// environment win.
func Load() (*Config, error) {
	if !strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		_ = godotenv.Load()
	}

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		ServiceName: getEnv("SERVICE_NAME", "microblog"),
		Port:        getEnv("PORT", getEnv("API_PORT", "8888")),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      getEnv("DB_NAME", "microblog"),
		SQLitePath:  getEnv("SQLITE_PATH", "app.db"),

		APISecret:     getEnv("API_SECRET", "you-will-never-guess"),
		SessionSecret: os.Getenv("SESSION_SECRET"),

		RedisURL:      os.Getenv("REDIS_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       getEnv("MAIL_FROM", "no-reply@microblog.local"),
		Admins:         splitCSV(os.Getenv("ADMINS")),
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = cfg.APISecret
	}

	var err error
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.FeedCacheTTL, err = getDuration("FEED_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 0); err != nil {
		return nil, err
	}

	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.IsProduction() && cfg.APISecret == "you-will-never-guess" {
		return nil, fmt.Errorf("API_SECRET must be set in production")
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// PostgresDSN prefers DATABASE_URL and forces sslmode=require on it in
// production; otherwise it assembles a DSN from the DB_* parts.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		dsn := c.DatabaseURL
		if c.IsProduction() && !strings.Contains(dsn, "sslmode=") {
			if strings.Contains(dsn, "?") {
				dsn += "&sslmode=require"
			} else {
				dsn += "?sslmode=require"
			}
		}
		return dsn
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort,
	)
}

// SQLiteDSN turns on foreign keys, which sqlite leaves off by default.
func (c *Config) SQLiteDSN() string {
	if strings.Contains(c.SQLitePath, "?") {
		return c.SQLitePath + "&_foreign_keys=on"
	}
	return c.SQLitePath + "?_foreign_keys=on"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitCSV(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
