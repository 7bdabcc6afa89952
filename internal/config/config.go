// Package config provides application configuration loaded from environment
// variables (optionally seeded from a .env file) with defaults and validation.
// It centralizes server timeouts, logging, Messenger credentials, the ledger
// store backend, session handling, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-ledger-bot")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// MessengerConfig holds the webhook subscription and Send API settings.
type MessengerConfig struct {
	VerifyToken string        // VERIFY_TOKEN: validates the webhook subscription
	AccessToken string        // PAGE_ACCESS_TOKEN: authorizes outbound replies
	AppSecret   string        // APP_SECRET: enables X-Hub-Signature-256 checks when set
	GraphURL    string        // GRAPH_API_URL
	GraphVer    string        // GRAPH_API_VERSION (e.g. "v20.0")
	SendTimeout time.Duration // SEND_TIMEOUT
	SendRPS     float64       // SEND_RPS: outbound requests per second
}

// LedgerConfig selects and tunes the ledger store.
type LedgerConfig struct {
	Driver       string        // LEDGER_DRIVER: sqlite|postgres|mysql|xlsx|memory
	DSN          string        // LEDGER_DSN (SQL drivers)
	StoreID      string        // LEDGER_ID: workbook id (SQL) or file path (xlsx)
	Sheet        string        // LEDGER_SHEET
	Columns      []string      // LEDGER_COLUMNS: name,price,quantity,total
	StoreTimeout time.Duration // STORE_TIMEOUT
	CacheTTL     time.Duration // CACHE_TTL_MS (0 disables the read cache)
	SoldPolicy   string        // SOLD_POLICY: allow_negative|clamp|reject
}

// SessionConfig selects the session store and its lifecycle policy.
type SessionConfig struct {
	Backend       string        // SESSION_BACKEND: memory|redis
	RedisAddr     string        // REDIS_ADDR
	RedisPassword string        // REDIS_PASSWORD
	RedisDB       int           // REDIS_DB
	TTL           time.Duration // SESSION_TTL
	EndOnInvalid  bool          // SESSION_END_ON_INVALID
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // graceful drain
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for admin API routes

	// App database (interaction log, processed webhook events)
	DBPath string // SQLite path

	Messenger MessengerConfig
	Ledger    LedgerConfig
	Session   SessionConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// EventDedupTTL is how long a delivered message id is remembered.
	EventDedupTTL time.Duration

	// AdminJWTSecret enables the admin API when non-empty.
	AdminJWTSecret string

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables (after merging an
// optional .env file, which never overrides variables already set),
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	if path := getenv("DOTENV_PATH", ".env"); path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return Config{}, err
			}
		}
	}

	cfg := Config{
		// Server
		Port:              getenv("PORT", "3000"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 15*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DBPath: getenv("DB_PATH", "app.db"),

		Messenger: MessengerConfig{
			VerifyToken: getenv("VERIFY_TOKEN", ""),
			AccessToken: getenv("PAGE_ACCESS_TOKEN", ""),
			AppSecret:   getenv("APP_SECRET", ""),
			GraphURL:    strings.TrimRight(getenv("GRAPH_API_URL", "https://graph.facebook.com"), "/"),
			GraphVer:    getenv("GRAPH_API_VERSION", "v20.0"),
			SendTimeout: getdur("SEND_TIMEOUT", 5*time.Second),
			SendRPS:     getfloat("SEND_RPS", 20),
		},

		Ledger: LedgerConfig{
			Driver:       strings.ToLower(getenv("LEDGER_DRIVER", "sqlite")),
			DSN:          getenv("LEDGER_DSN", "ledger.db"),
			StoreID:      getenv("LEDGER_ID", "inventory"),
			Sheet:        getenv("LEDGER_SHEET", "Sheet1"),
			Columns:      splitCSV(strings.ToUpper(getenv("LEDGER_COLUMNS", "A,B,C,D"))),
			StoreTimeout: getdur("STORE_TIMEOUT", 5*time.Second),
			CacheTTL:     time.Duration(getint("CACHE_TTL_MS", 5000)) * time.Millisecond,
			SoldPolicy:   strings.ToLower(getenv("SOLD_POLICY", "allow_negative")),
		},

		Session: SessionConfig{
			Backend:       strings.ToLower(getenv("SESSION_BACKEND", "memory")),
			RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getint("REDIS_DB", 0),
			TTL:           getdur("SESSION_TTL", 10*time.Minute),
			EndOnInvalid:  getbool("SESSION_END_ON_INVALID", true),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 20.0),
		RateBurst: getint("RATE_BURST", 40),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		EventDedupTTL:  getdur("EVENT_DEDUP_TTL", 24*time.Hour),
		AdminJWTSecret: getenv("ADMIN_JWT_SECRET", ""),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-ledger-bot"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.Ledger.Driver == "sqlite3" {
		cfg.Ledger.Driver = "sqlite"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.Messenger.VerifyToken) == "" {
		return cfg, errors.New("VERIFY_TOKEN must not be empty")
	}
	if cfg.Messenger.SendTimeout <= 0 {
		return cfg, errors.New("SEND_TIMEOUT must be > 0")
	}
	if cfg.Messenger.SendRPS <= 0 {
		return cfg, errors.New("SEND_RPS must be > 0")
	}
	switch cfg.Ledger.Driver {
	case "sqlite", "postgres", "mysql", "xlsx", "memory":
	default:
		return cfg, errors.New("LEDGER_DRIVER must be one of: sqlite, postgres, mysql, xlsx, memory")
	}
	if strings.TrimSpace(cfg.Ledger.StoreID) == "" {
		return cfg, errors.New("LEDGER_ID must not be empty")
	}
	if (cfg.Ledger.Driver == "sqlite" || cfg.Ledger.Driver == "postgres" || cfg.Ledger.Driver == "mysql") && strings.TrimSpace(cfg.Ledger.DSN) == "" {
		return cfg, errors.New("LEDGER_DSN must not be empty for SQL drivers")
	}
	if strings.TrimSpace(cfg.Ledger.Sheet) == "" {
		return cfg, errors.New("LEDGER_SHEET must not be empty")
	}
	if len(cfg.Ledger.Columns) != 4 {
		return cfg, errors.New("LEDGER_COLUMNS must list 4 columns: name,price,quantity,total")
	}
	if cfg.Ledger.StoreTimeout <= 0 {
		return cfg, errors.New("STORE_TIMEOUT must be > 0")
	}
	if cfg.Ledger.CacheTTL < 0 {
		return cfg, errors.New("CACHE_TTL_MS must be >= 0")
	}
	switch cfg.Ledger.SoldPolicy {
	case "allow_negative", "clamp", "reject":
	default:
		return cfg, errors.New("SOLD_POLICY must be one of: allow_negative, clamp, reject")
	}
	switch cfg.Session.Backend {
	case "memory", "redis":
	default:
		return cfg, errors.New("SESSION_BACKEND must be one of: memory, redis")
	}
	if cfg.Session.TTL <= 0 {
		return cfg, errors.New("SESSION_TTL must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.EventDedupTTL <= 0 {
		return cfg, errors.New("EVENT_DEDUP_TTL must be > 0")
	}
	if cfg.AdminJWTSecret != "" && len(cfg.AdminJWTSecret) < 32 {
		return cfg, errors.New("ADMIN_JWT_SECRET must be at least 32 characters")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
