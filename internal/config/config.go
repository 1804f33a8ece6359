package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strings" // strings splits and normalizes list values
	"time"    // time parses session and sweep durations
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable; defaults follow a local development setup where
// the frontend is served from http://localhost:5500 and MySQL runs locally.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	DBMaxOpenConns int    // upper bound of pooled connections

	FrontendOrigin string // CORS origin and OAuth redirect target
	PublicBaseURL  string // externally visible base URL of this API, used for OAuth callbacks

	SessionSecret        string        // secret used to sign the session cookie
	SessionTTL           time.Duration // lifetime of a session and its cookie
	SessionSweepInterval time.Duration // how often expired sessions are purged
	CookieSecure         bool          // mark the session cookie Secure (HTTPS only)

	AdminEmails []string // admin allow-list; empty admits every authenticated user

	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string

	PasswordMode string // "plain" (default, matches existing rows) or "bcrypt"
	BcryptCost   int    // bcrypt cost when PasswordMode is "bcrypt"

	LogLevel  string // zerolog level name
	LogPretty bool   // human readable console output instead of JSON

	RateLimit RateLimitConfig
	Redis     RedisConfig
}

// Load reads configuration values from environment variables and returns a
// Config. Outside of development a real SESSION_SECRET is enforced by must().
func Load() Config {
	cfg := Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           envStr("APP_PORT", envStr("PORT", "3000")),
		DBUser:         envStr("DB_USER", "root"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         envStr("DB_HOST", "localhost"),
		DBPort:         envStr("DB_PORT", "3306"),
		DBName:         envStr("DB_NAME", "online_movie"),
		DBMaxOpenConns: envInt("DB_MAX_OPEN_CONNS", 10),

		FrontendOrigin: strings.TrimRight(envStr("FRONTEND_ORIGIN", "http://localhost:5500"), "/"),

		SessionTTL:           envDur("SESSION_TTL", 7*24*time.Hour),
		SessionSweepInterval: envDur("SESSION_SWEEP_INTERVAL", 15*time.Minute),
		CookieSecure:         envBool("COOKIE_SECURE", false),

		AdminEmails: ParseList(os.Getenv("ADMIN_EMAILS")),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),

		PasswordMode: strings.ToLower(envStr("PASSWORD_MODE", "plain")),
		BcryptCost:   envInt("BCRYPT_COST", 10),

		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogPretty: envBool("LOG_PRETTY", false),

		RateLimit: LoadRateLimitConfig(),
		Redis:     LoadRedisConfig(),
	}
	cfg.PublicBaseURL = strings.TrimRight(envStr("PUBLIC_BASE_URL", "http://localhost:"+cfg.Port), "/")

	if cfg.IsDev() {
		cfg.SessionSecret = envStr("SESSION_SECRET", "dev_secret_change_me")
	} else {
		cfg.SessionSecret = must("SESSION_SECRET")
	}
	if cfg.PasswordMode != "bcrypt" {
		cfg.PasswordMode = "plain"
	}
	return cfg
}

// IsDev reports whether the service runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "", "dev", "development", "local", "test":
		return true
	}
	return false
}

// GoogleEnabled reports whether both Google OAuth credentials are present.
func (c Config) GoogleEnabled() bool { return c.GoogleClientID != "" && c.GoogleClientSecret != "" }

// GitHubEnabled reports whether both GitHub OAuth credentials are present.
func (c Config) GitHubEnabled() bool { return c.GitHubClientID != "" && c.GitHubClientSecret != "" }

// ParseList splits a comma separated value, trimming blanks and dropping
// empty entries. An empty input yields a nil slice.
func ParseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
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
