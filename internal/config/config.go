package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/live-scores/internal/platform/logging"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	HTTPAddr                   string
	CORSAllowedOrigins         []string
	ReadTimeout                time.Duration
	WriteTimeout               time.Duration
	SwaggerEnabled             bool
	StoreBackend               string
	RedisURL                   string
	CacheEnabled               bool
	CacheTTL                   time.Duration
	LiveScoreEnabled           bool
	LiveScoreBaseURL           string
	LiveScoreKey               string
	LiveScoreSecret            string
	LiveScoreCompetitionIDs    []string
	LiveScoreTimeout           time.Duration
	LiveScoreQuotaPerDay       int64
	CooldownQuota              time.Duration
	CooldownUnauthorized       time.Duration
	CooldownTransient          time.Duration
	CooldownPayload            time.Duration
	PollLiveInterval           time.Duration
	PollEventsInterval         time.Duration
	PollFixturesAt             string
	PollEventsWorkers          int
	EventsKeepLast             int
	StartupSeedEnabled         bool
	HubSubscriberBuffer        int
	StreamKeepAlive            time.Duration
	PprofEnabled               bool
	PprofAddr                  string
	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	LogLevel                   logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}

	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "live-scores-api"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		SwaggerEnabled:     swaggerEnabled,
		LogLevel:           logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	if cfg.ReadTimeout, err = parsePositiveDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	// Zero keeps long-lived streams open.
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "0s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}
	if writeTimeout < 0 {
		return Config{}, fmt.Errorf("APP_WRITE_TIMEOUT must be >= 0")
	}
	cfg.WriteTimeout = writeTimeout

	if err := loadStore(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadLiveScore(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadPolling(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadObservability(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadStore(cfg *Config) error {
	backend := strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", StoreRedis)))
	switch backend {
	case StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q: valid values are %s, %s", backend, StoreRedis, StoreMemory)
	}
	cfg.StoreBackend = backend
	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", "redis://localhost:6379/0"))
	if backend == StoreRedis && cfg.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when STORE_BACKEND=redis")
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cfg.CacheEnabled = cacheEnabled
	if cfg.CacheTTL, err = parsePositiveDuration("CACHE_TTL", "2s"); err != nil {
		return err
	}
	return nil
}

func loadLiveScore(cfg *Config) error {
	enabled, err := strconv.ParseBool(getEnv("LIVESCORE_ENABLED", "true"))
	if err != nil {
		return fmt.Errorf("parse LIVESCORE_ENABLED: %w", err)
	}
	cfg.LiveScoreEnabled = enabled
	cfg.LiveScoreBaseURL = strings.TrimRight(strings.TrimSpace(getEnv("LIVESCORE_BASE_URL", "https://livescore-api.com")), "/")
	cfg.LiveScoreKey = strings.TrimSpace(getEnv("LIVESCORE_KEY", ""))
	cfg.LiveScoreSecret = strings.TrimSpace(getEnv("LIVESCORE_SECRET", ""))
	cfg.LiveScoreCompetitionIDs = splitCSV(getEnv("LIVESCORE_COMPETITION_IDS", ""))
	if enabled && (cfg.LiveScoreKey == "" || cfg.LiveScoreSecret == "") {
		return fmt.Errorf("LIVESCORE_KEY and LIVESCORE_SECRET are required when LIVESCORE_ENABLED=true")
	}

	if cfg.LiveScoreTimeout, err = parsePositiveDuration("LIVESCORE_TIMEOUT", "15s"); err != nil {
		return err
	}

	quota, err := getEnvAsInt("LIVESCORE_QUOTA_PER_DAY", 14500)
	if err != nil {
		return fmt.Errorf("parse LIVESCORE_QUOTA_PER_DAY: %w", err)
	}
	if quota <= 0 {
		return fmt.Errorf("LIVESCORE_QUOTA_PER_DAY must be > 0")
	}
	cfg.LiveScoreQuotaPerDay = int64(quota)

	if cfg.CooldownQuota, err = parsePositiveDuration("LIVESCORE_COOLDOWN_QUOTA", "6h"); err != nil {
		return err
	}
	if cfg.CooldownUnauthorized, err = parsePositiveDuration("LIVESCORE_COOLDOWN_UNAUTHORIZED", "24h"); err != nil {
		return err
	}
	if cfg.CooldownTransient, err = parsePositiveDuration("LIVESCORE_COOLDOWN_TRANSIENT", "5m"); err != nil {
		return err
	}
	if cfg.CooldownPayload, err = parsePositiveDuration("LIVESCORE_COOLDOWN_PAYLOAD", "10m"); err != nil {
		return err
	}
	return nil
}

func loadPolling(cfg *Config) error {
	var err error
	if cfg.PollLiveInterval, err = parsePositiveDuration("POLL_LIVE_INTERVAL", "60s"); err != nil {
		return err
	}
	if cfg.PollEventsInterval, err = parsePositiveDuration("POLL_EVENTS_INTERVAL", "60s"); err != nil {
		return err
	}
	if cfg.StreamKeepAlive, err = parsePositiveDuration("STREAM_KEEPALIVE", "15s"); err != nil {
		return err
	}

	cfg.PollFixturesAt = strings.TrimSpace(getEnv("POLL_FIXTURES_AT", "06:05"))
	if _, err := time.Parse("15:04", cfg.PollFixturesAt); err != nil {
		return fmt.Errorf("parse POLL_FIXTURES_AT: %w", err)
	}

	if cfg.PollEventsWorkers, err = getEnvAsInt("POLL_EVENTS_WORKERS", 4); err != nil {
		return fmt.Errorf("parse POLL_EVENTS_WORKERS: %w", err)
	}
	if cfg.PollEventsWorkers < 1 {
		return fmt.Errorf("POLL_EVENTS_WORKERS must be >= 1")
	}
	if cfg.EventsKeepLast, err = getEnvAsInt("EVENTS_KEEP_LAST", 30); err != nil {
		return fmt.Errorf("parse EVENTS_KEEP_LAST: %w", err)
	}
	if cfg.EventsKeepLast < 1 {
		return fmt.Errorf("EVENTS_KEEP_LAST must be >= 1")
	}
	if cfg.HubSubscriberBuffer, err = getEnvAsInt("HUB_SUBSCRIBER_BUFFER", 32); err != nil {
		return fmt.Errorf("parse HUB_SUBSCRIBER_BUFFER: %w", err)
	}
	if cfg.HubSubscriberBuffer < 1 {
		return fmt.Errorf("HUB_SUBSCRIBER_BUFFER must be >= 1")
	}

	if cfg.StartupSeedEnabled, err = strconv.ParseBool(getEnv("STARTUP_SEED_ENABLED", "true")); err != nil {
		return fmt.Errorf("parse STARTUP_SEED_ENABLED: %w", err)
	}
	return nil
}

func loadObservability(cfg *Config) error {
	var err error

	if cfg.UptraceEnabled, err = strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PprofEnabled, err = strconv.ParseBool(getEnv("PPROF_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	cfg.PprofAddr = strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	if cfg.PyroscopeUploadRate, err = parsePositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return err
	}
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	return nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	value, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return value, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
