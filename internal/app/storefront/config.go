package storefront

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"

	platformobservability "github.com/Apurer/storefront-core/internal/platform/observability"
)

// Config carries environment-driven settings for a storefront process.
type Config struct {
	CommerceBaseURL  string
	HTTPTimeout      time.Duration
	CacheTTL         time.Duration
	TrackingTTL      time.Duration
	StorageNamespace string

	PostgresDSN string

	TemporalAddress    string
	TemporalNamespace  string
	TemporalDisabled   bool
	TemporalPayloadKey string // empty leaves workflow payloads readable in history

	Environment   string
	LogLevel      string
	TraceExporter string

	SandboxPort       string
	SandboxSigningKey string
	StorageRetention  time.Duration
}

// LoadConfig reads .env when present, then the environment, applies defaults,
// and validates numeric settings.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Config{
		CommerceBaseURL:    envDefault("COMMERCE_API_BASE_URL", "http://localhost:8090/api/v1"),
		StorageNamespace:   envDefault("STORAGE_NAMESPACE", "default"),
		PostgresDSN:        strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		TemporalAddress:    envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:  envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:   isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		TemporalPayloadKey: strings.TrimSpace(os.Getenv("TEMPORAL_PAYLOAD_KEY")),
		Environment:        envDefault("ENVIRONMENT", "local"),
		LogLevel:           envDefault("LOG_LEVEL", "info"),
		SandboxPort:        envDefault("SANDBOX_PORT", "8090"),
		SandboxSigningKey:  strings.TrimSpace(os.Getenv("SANDBOX_SIGNING_KEY")),
	}
	exporter, err := platformobservability.ParseExporter(os.Getenv("TRACE_EXPORTER"))
	if err != nil {
		return Config{}, fmt.Errorf("TRACE_EXPORTER: %w", err)
	}
	cfg.TraceExporter = string(exporter)
	if cfg.HTTPTimeout, err = positiveSeconds("COMMERCE_HTTP_TIMEOUT_SECONDS", 15); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = positiveSeconds("CACHE_TTL_SECONDS", 300); err != nil {
		return Config{}, err
	}
	if cfg.TrackingTTL, err = positiveSeconds("TRACKING_TTL_SECONDS", 60); err != nil {
		return Config{}, err
	}
	days, err := positiveInt("STORAGE_RETENTION_DAYS", 30)
	if err != nil {
		return Config{}, err
	}
	cfg.StorageRetention = time.Duration(days) * 24 * time.Hour
	return cfg, nil
}

func positiveSeconds(key string, fallback int) (time.Duration, error) {
	n, err := positiveInt(key, fallback)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}

func positiveInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
