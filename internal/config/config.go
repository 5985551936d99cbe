// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-3.5-turbo"
	DefaultTemperature = 0.6
	DefaultRedisURL    = "redis://localhost:6379/0"
	DefaultHTTPAddr    = ":8080"
)

// Settings is an immutable snapshot of runtime configuration. Load it once at
// startup and pass it into constructors.
type Settings struct {
	// Provider
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64

	// Fine-tuned model switch
	UseFineTuned   bool
	FineTunedModel string

	// Request resilience
	RequestTimeout     time.Duration
	MaxRetries         int
	RetryDelay         time.Duration
	RateLimitPerMinute int

	// Caching
	CacheEnabled bool
	CacheTTL     time.Duration
	RedisURL     string

	// Local data
	DataDir string

	// Fine-tuning
	FineTuneMaxWait time.Duration

	// Server
	HTTPAddr string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads settings from the process environment, after merging in a .env
// file when one exists in the working directory. A missing .env is not an
// error.
func Load() (Settings, error) {
	_ = godotenv.Load()

	s := Settings{
		APIKey:         os.Getenv("OPENAI_API_KEY"),
		BaseURL:        envStr("OPENAI_BASE_URL", DefaultBaseURL),
		Model:          envStr("OPENAI_MODEL", DefaultModel),
		FineTunedModel: os.Getenv("FINE_TUNED_MODEL_ID"),
		RedisURL:       envStr("REDIS_URL", DefaultRedisURL),
		DataDir:        envStr("WAYFARER_DATA_DIR", defaultDataDir()),
		HTTPAddr:       envStr("WAYFARER_ADDR", DefaultHTTPAddr),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		LogFormat:      envStr("LOG_FORMAT", "text"),
	}

	var err error
	if s.Temperature, err = envFloat("OPENAI_TEMPERATURE", DefaultTemperature); err != nil {
		return s, err
	}
	if s.UseFineTuned, err = envBool("USE_FINE_TUNED_MODEL", false); err != nil {
		return s, err
	}
	if s.RequestTimeout, err = envSeconds("API_TIMEOUT", 30*time.Second); err != nil {
		return s, err
	}
	if s.MaxRetries, err = envInt("MAX_RETRIES", 3); err != nil {
		return s, err
	}
	if s.RetryDelay, err = envSecondsFloat("RETRY_DELAY", 2*time.Second); err != nil {
		return s, err
	}
	if s.RateLimitPerMinute, err = envInt("RATE_LIMIT_PER_MINUTE", 60); err != nil {
		return s, err
	}
	if s.CacheEnabled, err = envBool("ENABLE_CACHING", true); err != nil {
		return s, err
	}
	if s.CacheTTL, err = envSeconds("CACHE_TTL", time.Hour); err != nil {
		return s, err
	}
	if s.FineTuneMaxWait, err = envSeconds("WAYFARER_FINETUNE_MAX_WAIT", time.Hour); err != nil {
		return s, err
	}

	if s.APIKey == "" {
		s.APIKey = apiKeyFromFile("api_key.txt")
	}

	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return s, fmt.Errorf("invalid LOG_LEVEL %q (valid: debug, info, warn, error)", s.LogLevel)
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return s, fmt.Errorf("invalid LOG_FORMAT %q (valid: text, json)", s.LogFormat)
	}

	return s, nil
}

// EffectiveModel returns the fine-tuned model when enabled and configured,
// otherwise the base model.
func (s Settings) EffectiveModel() string {
	if s.UseFineTuned && s.FineTunedModel != "" {
		return s.FineTunedModel
	}
	return s.Model
}

// CacheDBPath is the durable cache tier database.
func (s Settings) CacheDBPath() string {
	return filepath.Join(s.DataDir, "cache.db")
}

// JobsDBPath is the fine-tune job history database.
func (s Settings) JobsDBPath() string {
	return filepath.Join(s.DataDir, "jobs.db")
}

// TrainingDir holds generated training datasets.
func (s Settings) TrainingDir() string {
	return filepath.Join(s.DataDir, "training")
}

// ArtifactsDir holds fine-tuned model info artifacts.
func (s Settings) ArtifactsDir() string {
	return filepath.Join(s.DataDir, "models")
}

func defaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".wayfarer")
}

// apiKeyFromFile reads a bare API key from a local file, for setups that
// avoid putting secrets in the environment. Missing file means no key.
func apiKeyFromFile(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

// envSeconds reads a whole-second count.
func envSeconds(key string, def time.Duration) (time.Duration, error) {
	n, err := envInt(key, int(def/time.Second))
	if err != nil {
		return def, err
	}
	return time.Duration(n) * time.Second, nil
}

// envSecondsFloat reads a fractional second count, e.g. RETRY_DELAY=0.5.
func envSecondsFloat(key string, def time.Duration) (time.Duration, error) {
	f, err := envFloat(key, def.Seconds())
	if err != nil {
		return def, err
	}
	return time.Duration(f * float64(time.Second)), nil
}
