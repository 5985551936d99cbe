// Package cli implements the wayfarer CLI commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/wayfarer/internal/cache"
	"github.com/rcliao/wayfarer/internal/config"
	"github.com/rcliao/wayfarer/internal/finetune"
	"github.com/rcliao/wayfarer/internal/llm"
	"github.com/rcliao/wayfarer/internal/retry"
	"github.com/rcliao/wayfarer/internal/suggest"
)

var (
	logLevelFlag  string
	logFormatFlag string

	// Loaded once in PersistentPreRunE; commands read these directly.
	cfg config.Settings
	log *slog.Logger
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "wayfarer",
	Short: "LLM-backed travel destination suggestions",
	Long:  "Generate themed travel destination and activity suggestions with an LLM. Results are cached, provider errors are retried, and the fine-tuning workflow is built in.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevelFlag != "" {
			cfg.LogLevel = logLevelFlag
		}
		if logFormatFlag != "" {
			cfg.LogFormat = logFormatFlag
		}
		log, err = newLogger(cfg)
		return err
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL)")
	RootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format: text or json (default from LOG_FORMAT)")
}

// newLogger builds the process logger. Logs go to stderr so stdout stays
// clean for command output.
func newLogger(cfg config.Settings) (*slog.Logger, error) {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", cfg.LogLevel)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch cfg.LogFormat {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (valid: text, json)", cfg.LogFormat)
	}
}

// newCacheTiers builds the two-tier cache manager regardless of the enable
// switch: Redis primary, SQLite durable tier. Caller closes it.
func newCacheTiers() *cache.Manager {
	var primary cache.Backend
	if cfg.RedisURL != "" {
		primary = cache.NewRedisBackend(cfg.RedisURL, log)
	}
	var durable cache.Backend
	if b, err := cache.NewSQLiteBackend(cfg.CacheDBPath()); err != nil {
		log.Warn("durable cache tier unavailable", "path", cfg.CacheDBPath(), "error", err)
	} else {
		durable = b
	}
	return cache.NewManager(primary, durable, cfg.CacheTTL, log)
}

func newCache() *cache.Manager {
	if !cfg.CacheEnabled {
		return cache.Disabled()
	}
	return newCacheTiers()
}

// newGenerator wires the full generation stack. The returned cache manager
// is the generator's; close it when done.
func newGenerator() (*suggest.Generator, *cache.Manager) {
	store := newCache()
	client := llm.New(cfg.BaseURL, cfg.APIKey, cfg.RequestTimeout)
	exec := retry.New(cfg.MaxRetries, cfg.RetryDelay, cfg.RateLimitPerMinute, log)
	return suggest.NewGenerator(client, exec, store, cfg, log), store
}

// newFinetuneManager opens the job history store alongside the manager. The
// store is best-effort; without it jobs simply go unrecorded. Callers close
// a non-nil store.
func newFinetuneManager() (*finetune.Manager, *finetune.Store) {
	client := llm.New(cfg.BaseURL, cfg.APIKey, cfg.RequestTimeout)
	store, err := finetune.OpenStore(cfg.JobsDBPath())
	if err != nil {
		log.Warn("job history store unavailable", "path", cfg.JobsDBPath(), "error", err)
		store = nil
	}
	return finetune.NewManager(client, store, cfg, log), store
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
