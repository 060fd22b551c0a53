package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable; values may also come from a .env file in the
// working directory.
type Config struct {
	Env      string // application environment (development, production, test)
	Port     string // HTTP port to listen on
	LogLevel string // zap level name; empty means debug

	DBDriver   string // "mysql" or "sqlite3"
	DBUser     string
	DBPass     string // may be empty
	DBHost     string
	DBPort     string
	DBName     string
	SQLitePath string // used when DBDriver is sqlite3

	AccessSecret   string // HMAC secret for access tokens
	RefreshSecret  string // HMAC secret for refresh tokens, must differ from AccessSecret
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days

	PasswordHash string // "bcrypt" or "argon2id"
	BcryptCost   int

	// RevokeSessionsOnPasswordChange clears the stored refresh token when a
	// user changes their password.
	RevokeSessionsOnPasswordChange bool
}

// IsProduction reports whether the service runs with production settings
// (secure cookies, no error detail in responses).
func (c Config) IsProduction() bool { return c.Env == "production" }

// Load reads configuration values from the environment and returns a
// Config. A missing .env file is not an error. Required variables are
// enforced by must() and missing values stop the process.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Env:      must("APP_ENV"),
		Port:     must("APP_PORT"),
		LogLevel: os.Getenv("LOG_LEVEL"),

		DBDriver: getenv("DB_DRIVER", "mysql"),

		AccessSecret:   must("ACCESS_TOKEN_SECRET"),
		RefreshSecret:  must("REFRESH_TOKEN_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),

		PasswordHash: getenv("PASSWORD_HASH", "bcrypt"),
		BcryptCost:   envInt("BCRYPT_COST", 10),

		RevokeSessionsOnPasswordChange: envBool("REVOKE_SESSIONS_ON_PASSWORD_CHANGE", false),
	}

	switch cfg.DBDriver {
	case "mysql":
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	case "sqlite3":
		cfg.SQLitePath = getenv("SQLITE_PATH", "data/vidtube.db")
	default:
		log.Fatalf("unsupported DB_DRIVER: %q", cfg.DBDriver)
	}

	if cfg.AccessSecret == cfg.RefreshSecret {
		log.Fatalf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if cfg.PasswordHash != "bcrypt" && cfg.PasswordHash != "argon2id" {
		log.Fatalf("unsupported PASSWORD_HASH: %q", cfg.PasswordHash)
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
