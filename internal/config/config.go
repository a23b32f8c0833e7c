package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time converts TTL settings into durations
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  A Config is built once at startup and then only
// read; it is passed by pointer to the token issuer and session manager.
type Config struct {
	Env                string // application environment (e.g. "dev", "prod")
	Port               string // HTTP port to listen on
	LogLevel           string // slog level name: debug, info, warn, error
	DBUser             string // database username
	DBPass             string // database password (optional)
	DBHost             string // database host address
	DBPort             string // database port number
	DBName             string // database name
	MigrateOnStart     bool   // apply embedded schema migrations at startup
	AccessTokenSecret  string // secret used to sign access tokens
	RefreshTokenSecret string // secret used to sign refresh tokens; must differ from the access secret
	AccessTTLMin       int    // access token time‑to‑live in minutes
	RefreshTTLDays     int    // refresh token time‑to‑live in days
	BcryptCost         int    // bcrypt cost for password hashing
	CookieSecure       bool   // set the Secure attribute on session cookies
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() *Config {
	cfg := &Config{
		Env:                must("APP_ENV"),                         // environment (dev/test/prod)
		Port:               must("APP_PORT"),                        // port to bind the HTTP server
		LogLevel:           envStr("LOG_LEVEL", "info"),             // log verbosity
		DBUser:             must("DB_USER"),                         // database user
		DBPass:             os.Getenv("DB_PASS"),                    // database password (empty allowed)
		DBHost:             must("DB_HOST"),                         // database host
		DBPort:             must("DB_PORT"),                         // database port
		DBName:             must("DB_NAME"),                         // database name
		MigrateOnStart:     envBool("MIGRATE_ON_START", true),       // run goose migrations on boot
		AccessTokenSecret:  must("ACCESS_TOKEN_SECRET"),             // access token signing secret
		RefreshTokenSecret: must("REFRESH_TOKEN_SECRET"),            // refresh token signing secret
		AccessTTLMin:       mustInt("ACCESS_TOKEN_TTL_MIN"),         // TTL for access tokens in minutes
		RefreshTTLDays:     mustInt("REFRESH_TOKEN_TTL_DAYS"),       // TTL for refresh tokens in days
		BcryptCost:         mustInt("BCRYPT_COST"),                  // bcrypt cost factor
		CookieSecure:       envBool("COOKIE_SECURE", true),          // Secure flag on cookies
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return cfg
}

// AccessTTL returns the access token lifetime as a duration.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMin) * time.Minute
}

// RefreshTTL returns the refresh token lifetime as a duration.
func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLDays) * 24 * time.Hour
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
