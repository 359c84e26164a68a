package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	PublicURL       string        // external base URL, used to build the sign-in callback

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Platform
	PlatformURL   string        // identity provider base URL (required)
	PlatformKey   string        // shared secret used to verify provider tokens (required)
	ProvidersFile string        // optional providers.yaml, empty = google only
	SessionTTL    time.Duration // upper bound of a session lifetime (default: 7d)
	CallTimeout   time.Duration // bound of every remote call made by a screen (default: 10s)
	SecureCookie  bool          // mark the session cookie Secure

	// Storage
	StoreBackend string // "redis" | "sqlite" | "memory"
	SQLitePath   string // database file when StoreBackend=sqlite

	// Screens
	ScreenIdleTTL    time.Duration // idle time before a screen is torn down (default: 30m)
	ScreenGCInterval time.Duration // how often idle screens are collected (default: 1m)

	// Redis
	RedisAddr             string        // ex: "localhost:6379", required unless StoreBackend=memory
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict infra endpoints to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // trust X-Forwarded-For headers, only behind a proxy (e.g. cloudflared)

	// Rate limiting of state-changing requests
	RateLimitBurst     int // requests allowed in a burst per client IP
	RateLimitPerMinute int // refill rate per client IP
	RateLimitMaxIPs    int // tracked client IPs before an early sweep
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SMARTMARK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SMARTMARK_SHUTDOWN_TIMEOUT", 5*time.Second),
		PublicURL:       strings.TrimRight(getenv("SMARTMARK_PUBLIC_URL", "http://localhost:8080"), "/"),

		// Logging
		LogLevel:  getenv("SMARTMARK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SMARTMARK_PRETTY_LOG", true),

		// Platform
		PlatformURL:   requireEnv("SMARTMARK_PLATFORM_URL"),
		PlatformKey:   requireEnv("SMARTMARK_PLATFORM_KEY"),
		ProvidersFile: getenv("SMARTMARK_PROVIDERS_FILE", ""),
		SessionTTL:    mustDuration("SMARTMARK_SESSION_TTL", 7*24*time.Hour),
		CallTimeout:   mustDuration("SMARTMARK_CALL_TIMEOUT", 10*time.Second),
		SecureCookie:  mustBool("SMARTMARK_SECURE_COOKIE", true),

		// Storage
		StoreBackend: strings.ToLower(getenv("SMARTMARK_STORE_BACKEND", BackendRedis)),
		SQLitePath:   getenv("SMARTMARK_SQLITE_PATH", "/data/smartmark.db"),

		// Screens
		ScreenIdleTTL:    mustDuration("SMARTMARK_SCREEN_IDLE_TTL", 30*time.Minute),
		ScreenGCInterval: mustDuration("SMARTMARK_SCREEN_GC_INTERVAL", time.Minute),

		// Redis settings
		RedisAddr:             getenv("SMARTMARK_REDIS_ADDR", ""),
		RedisUser:             getenv("SMARTMARK_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("SMARTMARK_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("SMARTMARK_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("SMARTMARK_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("SMARTMARK_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("SMARTMARK_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("SMARTMARK_TRUST_PROXY", false),

		RateLimitBurst:     getenvInt("SMARTMARK_RATE_LIMIT_BURST", 30),
		RateLimitPerMinute: getenvInt("SMARTMARK_RATE_LIMIT_PER_MINUTE", 60),
		RateLimitMaxIPs:    getenvInt("SMARTMARK_RATE_LIMIT_MAX_IPS", 10000),
	}

	switch cfg.StoreBackend {
	case BackendRedis, BackendSQLite:
		if cfg.RedisAddr == "" {
			panic(fmt.Sprintf("❌ FATAL: SMARTMARK_REDIS_ADDR is required when SMARTMARK_STORE_BACKEND=%s", cfg.StoreBackend))
		}
		// Validate Redis password configuration
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: SMARTMARK_REDIS_PASSWORD is required when SMARTMARK_REDIS_PASSWORD_REQUIRED=true")
		}
	case BackendMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: Invalid SMARTMARK_STORE_BACKEND %q (want redis, sqlite or memory)", cfg.StoreBackend))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.PlatformKey = "***REDACTED***"
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// UsesRedis reports whether the configured backend needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.StoreBackend != BackendMemory
}

// CallbackURL is where the identity provider sends the visitor back.
func (c *Config) CallbackURL() string {
	return c.PublicURL + "/auth/callback"
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
