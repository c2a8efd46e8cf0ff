package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/greattrades/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	WebSocket   WebSocketConfig `toml:"websocket"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Analysis    AnalysisConfig  `toml:"analysis"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
	InMemory       bool   `toml:"in_memory"`        // Run without a data directory (tests, one-shot CLI runs)
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
	Dir    string   `toml:"dir"`    // Log file directory; empty = "logs" next to the executable
}

// WebSocketConfig controls which analysis events are pushed to browser clients
type WebSocketConfig struct {
	// Whitelist of event types to broadcast. Empty list allows all events.
	AllowedEvents []string `toml:"allowed_events"`
	// Map of event type to minimum interval between broadcasts, e.g. {"analysis_completed": "250ms"}
	ThrottleIntervals map[string]string `toml:"throttle_intervals"`
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`       // default: "gemini-2.5-flash"
	Timeout     string  `toml:"timeout"`     // Per-call timeout; empty leaves it to the transport
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between calls; empty disables limiting
	Temperature float32 `toml:"temperature"` // 0 leaves the model default in place
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	RateLimit   string  `toml:"rate_limit"`
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the provider used for chart analysis
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"`
}

// AnalysisConfig holds limits for chart uploads and batch fan-out
type AnalysisConfig struct {
	MaxConcurrency        int   `toml:"max_concurrency"`         // 0 = every chart in a batch runs at once
	MaxBatchSize          int   `toml:"max_batch_size"`          // Upper bound on charts per request
	MaxImageBytes         int64 `toml:"max_image_bytes"`         // Largest accepted chart image
	MaxImagePixels        int64 `toml:"max_image_pixels"`        // Largest width*height decoded for thumbnails
	ThumbnailMaxDimension int   `toml:"thumbnail_max_dimension"` // Longest thumbnail side in pixels
	ThumbnailQuality      int   `toml:"thumbnail_quality"`       // JPEG quality 1-100
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		WebSocket: WebSocketConfig{
			AllowedEvents: []string{},
			ThrottleIntervals: map[string]string{
				"analysis_completed": "100ms",
			},
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		Claude: ClaudeConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 8192,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Analysis: AnalysisConfig{
			MaxConcurrency:        0,
			MaxBatchSize:          20,
			MaxImageBytes:         20 * 1024 * 1024, // inline request payload limit
			MaxImagePixels:        40_000_000,
			ThumbnailMaxDimension: 100,
			ThumbnailQuality:      80,
		},
	}
}

// LoadDotEnv loads .env style files into the process environment without
// overwriting variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	return nil
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI flags are applied afterwards by the caller.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("GREATTRADES_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server
	if port := os.Getenv("GREATTRADES_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("GREATTRADES_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage
	if badgerPath := os.Getenv("GREATTRADES_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging
	if level := os.Getenv("GREATTRADES_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if dir := os.Getenv("GREATTRADES_LOG_DIR"); dir != "" {
		config.Logging.Dir = dir
	}
	if output := os.Getenv("GREATTRADES_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// LLM
	if provider := os.Getenv("GREATTRADES_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(provider))
	}
	if model := os.Getenv("GREATTRADES_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if model := os.Getenv("GREATTRADES_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	// Analysis
	if concurrency := os.Getenv("GREATTRADES_ANALYSIS_MAX_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Analysis.MaxConcurrency = c
		}
	}
	if batch := os.Getenv("GREATTRADES_ANALYSIS_MAX_BATCH_SIZE"); batch != "" {
		if b, err := strconv.Atoi(batch); err == nil {
			config.Analysis.MaxBatchSize = b
		}
	}
	if pixels := os.Getenv("GREATTRADES_ANALYSIS_MAX_IMAGE_PIXELS"); pixels != "" {
		if p, err := strconv.ParseInt(pixels, 10, 64); err == nil {
			config.Analysis.MaxImagePixels = p
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks values that would otherwise fail later at runtime
func (c *Config) Validate() error {
	switch c.LLM.DefaultProvider {
	case LLMProviderGemini, LLMProviderClaude:
	default:
		return fmt.Errorf("invalid llm.default_provider %q (expected gemini or claude)", c.LLM.DefaultProvider)
	}

	for name, value := range map[string]string{
		"gemini.timeout":    c.Gemini.Timeout,
		"gemini.rate_limit": c.Gemini.RateLimit,
		"claude.timeout":    c.Claude.Timeout,
		"claude.rate_limit": c.Claude.RateLimit,
	} {
		if _, err := ParseOptionalDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if c.Analysis.ThumbnailQuality < 1 || c.Analysis.ThumbnailQuality > 100 {
		return fmt.Errorf("analysis.thumbnail_quality must be between 1 and 100, got %d", c.Analysis.ThumbnailQuality)
	}
	if c.Analysis.ThumbnailMaxDimension <= 0 {
		return fmt.Errorf("analysis.thumbnail_max_dimension must be positive, got %d", c.Analysis.ThumbnailMaxDimension)
	}
	if c.Analysis.MaxImagePixels <= 0 {
		return fmt.Errorf("analysis.max_image_pixels must be positive, got %d", c.Analysis.MaxImagePixels)
	}
	if c.Analysis.MaxConcurrency < 0 {
		return fmt.Errorf("analysis.max_concurrency must not be negative, got %d", c.Analysis.MaxConcurrency)
	}
	return nil
}

// ParseOptionalDuration parses a duration string where empty means zero
func ParseOptionalDuration(value string) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	return time.ParseDuration(value)
}

// ResolveAPIKey resolves an API key by name.
// Resolution order: environment variables → KV store → config fallback → error
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"GREATTRADES_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY"},
		"google_api_key":    {"GREATTRADES_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY"},
		"anthropic_api_key": {"GREATTRADES_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
		"claude_api_key":    {"GREATTRADES_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
