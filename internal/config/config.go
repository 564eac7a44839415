package config // package config loads application configuration from environment variables

import (
    "fmt"
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  TTLs are typed as durations; identifiers and
// secrets stay strings.
type Config struct {
    Env             string        // application environment (e.g. "dev", "prod")
    Port            string        // HTTP port to listen on
    DBUser          string        // database username
    DBPass          string        // database password (optional)
    DBHost          string        // database host address
    DBPort          string        // database port number
    DBName          string        // database name
    JWTSecret       string        // secret used to sign signing tokens
    TokenTTL        time.Duration // signing-token lifetime
    SessionCacheTTL time.Duration // session-cache entry lifetime
    StatusCacheTTL  time.Duration // status-cache entry lifetime
    SignHost        string        // externally reachable host used in sign URLs
    SignPort        string        // externally reachable port used in sign URLs
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Cache TTL defaults
// match the deployed contract: 15 minutes for sessions, 5 for status.
func Load() Config {
    cfg := Config{
        Env:             must("APP_ENV"),                               // environment (dev/test/prod)
        Port:            must("APP_PORT"),                              // port to bind the HTTP server
        DBUser:          must("DB_USER"),                               // database user
        DBPass:          os.Getenv("DB_PASS"),                          // database password (empty allowed)
        DBHost:          must("DB_HOST"),                               // database host
        DBPort:          must("DB_PORT"),                               // database port
        DBName:          must("DB_NAME"),                               // database name
        JWTSecret:       must("JWT_SECRET"),                            // secret used for signing tokens
        TokenTTL:        minutes("TOKEN_TTL_MIN", 30),                  // signing-token TTL
        SessionCacheTTL: duration("SESSION_CACHE_TTL", 15*time.Minute), // token -> record binding TTL
        StatusCacheTTL:  duration("STATUS_CACHE_TTL", 5*time.Minute),   // status snapshot TTL
        SignHost:        envDefault("SIGN_HOST", "localhost"),          // host in composed sign URLs
    }
    cfg.SignPort = envDefault("SIGN_PORT", cfg.Port)
    return cfg
}

// BaseURL composes the externally reachable origin used in sign URLs.
func (c Config) BaseURL() string {
    return fmt.Sprintf("http://%s:%s", c.SignHost, c.SignPort)
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

// envDefault returns the variable's value or def when unset.
func envDefault(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

// minutes reads an integer minute count, falling back to def.
func minutes(key string, def int) time.Duration {
    v := os.Getenv(key)
    if v == "" {
        return time.Duration(def) * time.Minute
    }
    n, err := strconv.Atoi(v)
    if err != nil || n <= 0 {
        log.Fatalf("invalid int for %s: %q", key, v)
    }
    return time.Duration(n) * time.Minute
}

// duration reads a Go duration string (e.g. "15m"), falling back to def.
func duration(key string, def time.Duration) time.Duration {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    d, err := time.ParseDuration(v)
    if err != nil || d <= 0 {
        log.Fatalf("invalid duration for %s: %q", key, v)
    }
    return d
}
