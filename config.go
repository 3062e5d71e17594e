package authcore

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/feldspar-io/authcore/cache"
	"github.com/feldspar-io/authcore/password"
	"github.com/feldspar-io/authcore/token"
)

// JWTConfig holds token signing parameters.
type JWTConfig struct {
	// Secret signs and verifies every token. Required; there is no default.
	Secret string
	// TokenLifetime bounds token validity. Zero means 24h.
	TokenLifetime time.Duration
	// Issuer, when set, is embedded and enforced on verification.
	Issuer string
	// Leeway tolerates small clock skew on time-bound claims.
	Leeway time.Duration
}

// SessionConfig controls the server-side session layer.
type SessionConfig struct {
	// TTL is the requested session lifetime. It is always clamped to the
	// token's remaining lifetime; zero means "same as the token".
	TTL time.Duration
	// RequireOnAuthenticate, when true, makes Authenticate reject tokens
	// whose session record is gone, turning session deletion into forced
	// logout. Off by default: sessions are a visibility layer.
	RequireOnAuthenticate bool
}

// RateLimitConfig holds the fixed-window defaults used by the middleware.
type RateLimitConfig struct {
	// Window is the fixed window length.
	Window time.Duration
	// Limit is the number of requests allowed per window per identifier.
	Limit int64
}

// RegisterConfig controls the registration fast path.
type RegisterConfig struct {
	// HintTTL bounds the cached duplicate-registration hint. The durable
	// store stays authoritative regardless.
	HintTTL time.Duration
}

// Config aggregates everything the [Coordinator] needs. Zero values fall
// back to the defaults documented per field; only JWT.Secret and
// Cache.Addr have no usable default.
type Config struct {
	JWT       JWTConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Register  RegisterConfig
	Cache     cache.Config
	Password  password.Config
}

// DefaultConfig returns a Config with production-leaning defaults. The
// caller must still supply JWT.Secret and Cache.Addr.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			TokenLifetime: token.DefaultLifetime,
		},
		RateLimit: RateLimitConfig{
			Window: time.Minute,
			Limit:  100,
		},
		Register: RegisterConfig{
			HintTTL: time.Hour,
		},
		Password: password.DefaultConfig(),
	}
}

// Validate rejects configurations the Coordinator cannot run with.
func (c Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("config: JWT secret is required")
	}
	if c.JWT.TokenLifetime < 0 {
		return fmt.Errorf("config: negative token lifetime")
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("config: negative session TTL")
	}
	if lifetime := c.JWT.TokenLifetime; lifetime > 0 && c.Session.TTL > lifetime {
		return fmt.Errorf("config: session TTL exceeds token lifetime")
	}
	if c.RateLimit.Window < 0 || c.RateLimit.Limit < 0 {
		return fmt.Errorf("config: negative rate limit settings")
	}
	if c.Register.HintTTL < 0 {
		return fmt.Errorf("config: negative registration hint TTL")
	}
	return nil
}

// ConfigFromEnv builds a Config from the process environment on top of
// [DefaultConfig]. Recognized variables:
//
//	JWT_SECRET                (required)
//	JWT_ISSUER
//	TOKEN_LIFETIME            Go duration, default 24h
//	SESSION_TTL               Go duration, default token lifetime
//	SESSION_REQUIRED          bool, default false
//	RATE_LIMIT_WINDOW         Go duration, default 1m
//	RATE_LIMIT_MAX            int, default 100
//	REDIS_HOST                default localhost
//	REDIS_PORT                default 6379
//	REDIS_PASSWORD
//	REDIS_DB                  int, default 0
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return Config{}, fmt.Errorf("config: JWT_SECRET is not set")
	}
	cfg.JWT.Secret = secret
	cfg.JWT.Issuer = os.Getenv("JWT_ISSUER")

	var err error
	if cfg.JWT.TokenLifetime, err = envDuration("TOKEN_LIFETIME", cfg.JWT.TokenLifetime); err != nil {
		return Config{}, err
	}
	if cfg.Session.TTL, err = envDuration("SESSION_TTL", cfg.Session.TTL); err != nil {
		return Config{}, err
	}
	if cfg.Session.RequireOnAuthenticate, err = envBool("SESSION_REQUIRED", false); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit.Window, err = envDuration("RATE_LIMIT_WINDOW", cfg.RateLimit.Window); err != nil {
		return Config{}, err
	}
	limit, err := envInt("RATE_LIMIT_MAX", cfg.RateLimit.Limit)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimit.Limit = limit

	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	cfg.Cache.Addr = net.JoinHostPort(host, port)
	cfg.Cache.Password = os.Getenv("REDIS_PASSWORD")
	db, err := envInt("REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	cfg.Cache.DB = int(db)

	return cfg, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %v", name, err)
	}
	return d, nil
}

func envInt(name string, fallback int64) (int64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %v", name, err)
	}
	return n, nil
}

func envBool(name string, fallback bool) (bool, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("config: %s: %v", name, err)
	}
	return b, nil
}
