package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"github.com/dgallion1/doclabel/internal/engine"
	"github.com/dgallion1/doclabel/internal/labels"
	"github.com/dgallion1/doclabel/internal/numbering"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Result storage
	DBPath string

	// Downstream publishing; empty URL disables it.
	PublishURL    string
	PublishAPIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Labeling
	LabelsFile          string
	Locale              string
	HierarchicalFigures bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		APIKey: os.Getenv("DOCLABEL_API_KEY"),

		DBPath: envOr("DB_PATH", "doclabel.db"),

		PublishURL:    os.Getenv("PUBLISH_URL"),
		PublishAPIKey: os.Getenv("PUBLISH_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		LabelsFile:          os.Getenv("LABELS_FILE"),
		Locale:              os.Getenv("LOCALE"),
		HierarchicalFigures: envBool("HIERARCHICAL_FIGURES", false),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DOCLABEL_API_KEY is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.PublishURL != "" && c.PublishAPIKey == "" {
		return fmt.Errorf("PUBLISH_API_KEY is required when PUBLISH_URL is set")
	}
	if c.Locale != "" {
		if _, err := language.Parse(c.Locale); err != nil {
			return fmt.Errorf("LOCALE %q: %w", c.Locale, err)
		}
	}
	if c.LabelsFile != "" {
		if _, err := os.Stat(c.LabelsFile); err != nil {
			return fmt.Errorf("LABELS_FILE: %w", err)
		}
	}
	return nil
}

// EngineOptions loads the vocabulary and resolves the locale for the
// labeling engine.
func (c Config) EngineOptions(log *slog.Logger) (engine.Options, error) {
	vocab, err := labels.Load(c.LabelsFile)
	if err != nil {
		return engine.Options{}, err
	}
	opts := engine.Options{
		Vocabulary: &vocab,
		Numbering:  numbering.Options{HierarchicalBody: c.HierarchicalFigures},
		Logger:     log,
	}
	if c.Locale != "" {
		tag, err := language.Parse(c.Locale)
		if err != nil {
			return engine.Options{}, fmt.Errorf("LOCALE %q: %w", c.Locale, err)
		}
		opts.Locale = tag
	}
	return opts, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
