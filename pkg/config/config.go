package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Config is read from the environment; see Load.
type Config struct {
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	ClassifyTimeout time.Duration
	MemoTTL         time.Duration
	BatchWorkers    int
	QueueSize       int
	JobsFile        string

	Addr     string
	LogLevel log.Level
}

// Values shipped in sample .env files. A key equal to one of these is
// treated as absent.
var placeholderKeys = []string{
	"your_gemini_api_key_here",
	"your_openai_api_key_here",
	"changeme",
}

// Usable reports whether key looks like a real credential.
func Usable(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && !slices.Contains(placeholderKeys, strings.ToLower(key))
}

func (c Config) GeminiEnabled() bool { return Usable(c.GeminiAPIKey) }
func (c Config) OpenAIEnabled() bool { return Usable(c.OpenAIAPIKey) }

// Load reads the configuration. Unset variables take their defaults; a
// malformed number or duration is an error.
func Load() (Config, error) {
	c := Config{
		GeminiAPIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:   getenv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL: strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")),
		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:   getenv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		JobsFile:      getenv("JOBS_FILE", "Jobs.json"),
		Addr:          ":" + getenv("PORT", "8080"),
		LogLevel:      log.InfoLevel,
	}

	var err error
	if c.ClassifyTimeout, err = duration("CLASSIFY_TIMEOUT", 20*time.Second); err != nil {
		return c, err
	}
	if c.MemoTTL, err = duration("MEMO_TTL", 10*time.Minute); err != nil {
		return c, err
	}
	if c.BatchWorkers, err = integer("BATCH_WORKERS", 4); err != nil {
		return c, err
	}
	if c.QueueSize, err = integer("QUEUE_SIZE", 100); err != nil {
		return c, err
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if c.LogLevel, err = log.ParseLevel(v); err != nil {
			return c, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}
	return c, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// duration accepts Go durations ("30s") or a bare number of seconds.
func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func integer(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
