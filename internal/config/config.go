package config // package config loads application configuration from environment variables

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported values for DB_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env        string        // application environment (e.g. "dev", "prod")
	Port       string        // HTTP port to listen on
	LogLevel   string        // echo logger level (debug, info, warn, error)
	DBDriver   string        // "mysql" or "sqlite3"
	DBUser     string        // mysql username
	DBPass     string        // mysql password (optional)
	DBHost     string        // mysql host address
	DBPort     string        // mysql port number
	DBName     string        // mysql database name
	SQLitePath string        // sqlite database file
	JWTSecret  string        // secret used to sign JWTs
	TokenTTL   time.Duration // access token lifetime
	BcryptCost int           // bcrypt cost for password hashing
	AMQPURL    string        // broker url; empty disables event publishing
}

// Load reads an optional .env file and then the process environment.  It
// returns an error naming the first required variable that is missing or
// malformed instead of exiting, so commands can report it themselves.
func Load() (Config, error) {
	_ = godotenv.Load() // a missing .env file is fine

	cfg := Config{
		Env:        getenv("APP_ENV", "dev"),
		Port:       getenv("APP_PORT", "5000"),
		LogLevel:   strings.ToLower(getenv("LOG_LEVEL", "info")),
		DBDriver:   strings.ToLower(getenv("DB_DRIVER", DriverSQLite)),
		DBUser:     os.Getenv("DB_USER"),
		DBPass:     os.Getenv("DB_PASS"),
		DBHost:     getenv("DB_HOST", "127.0.0.1"),
		DBPort:     getenv("DB_PORT", "3306"),
		DBName:     os.Getenv("DB_NAME"),
		SQLitePath: getenv("SQLITE_PATH", "mechanic_shop.db"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		AMQPURL:    getenv("AMQP_URL", os.Getenv("RABBITMQ_URL")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("missing required env var: JWT_SECRET")
	}

	hours, err := intVar("TOKEN_TTL_HOURS", 24)
	if err != nil {
		return Config{}, err
	}
	if hours < 1 {
		return Config{}, fmt.Errorf("TOKEN_TTL_HOURS must be positive, got %d", hours)
	}
	cfg.TokenTTL = time.Duration(hours) * time.Hour

	if cfg.BcryptCost, err = intVar("BCRYPT_COST", 10); err != nil {
		return Config{}, err
	}

	switch cfg.DBDriver {
	case DriverSQLite:
	case DriverMySQL:
		if cfg.DBUser == "" || cfg.DBName == "" {
			return Config{}, fmt.Errorf("DB_USER and DB_NAME are required when DB_DRIVER=mysql")
		}
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return cfg, nil
}

// intVar is like getenv but converts the value into an integer.  An unset
// variable yields def; a malformed one is an error.
func intVar(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q", key, s)
	}
	return n, nil
}
