package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/respondeo/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Search      SearchConfig     `toml:"search"`
	LLM         LLMConfig        `toml:"llm"`
	Claude      ClaudeConfig     `toml:"claude"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Completion  CompletionConfig `toml:"completion"`
	Documents   DocumentsConfig  `toml:"documents"`
	Retention   RetentionConfig  `toml:"retention"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`

	// APIKey, when set, must be presented by callers in the x-api-key
	// header. Empty disables the check (open access).
	APIKey string `toml:"api_key"`

	// PublicBaseURL is the externally reachable base URL used to build
	// document download links (default: http://{host}:{port})
	PublicBaseURL string `toml:"public_base_url"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// SearchConfig configures the document index client
type SearchConfig struct {
	Endpoint              string `toml:"endpoint"`               // Index service base URL
	Index                 string `toml:"index"`                  // Index name
	APIKey                string `toml:"api_key"`                // Index API key
	APIVersion            string `toml:"api_version"`            // Query API version
	SemanticConfiguration string `toml:"semantic_configuration"` // Semantic ranking configuration name
	TopK                  int    `toml:"top_k"`                  // Results per query
}

// LLMConfig selects the completion provider
type LLMConfig struct {
	Provider string `toml:"provider"` // "claude" or "gemini"
}

type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// CompletionConfig configures caching, retry, and rate limiting around
// the completion provider
type CompletionConfig struct {
	CacheCapacity   int    `toml:"cache_capacity"`    // Bounded response cache size
	RetryAttempts   uint   `toml:"retry_attempts"`    // Total attempts per call
	RetryMinBackoff string `toml:"retry_min_backoff"` // Lower backoff bound, e.g. "1s"
	RetryMaxBackoff string `toml:"retry_max_backoff"` // Upper backoff bound, e.g. "10s"
	RateLimit       int    `toml:"rate_limit"`        // Remote calls per second
}

// DocumentsConfig configures report generation
type DocumentsConfig struct {
	TemplatesDir     string `toml:"templates_dir"`      // Directory containing named report templates
	BlobPrefix       string `toml:"blob_prefix"`        // Name prefix for uploaded reports
	SystemPromptPath string `toml:"system_prompt_path"` // Optional system prompt text file
}

// RetentionConfig configures scheduled cleanup of old report blobs
type RetentionConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format
	MaxAge   string `toml:"max_age"`  // Reports older than this are deleted, e.g. "720h"
}

// NewDefaultConfig returns a Config populated with defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/respondeo",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Search: SearchConfig{
			APIVersion:            "2024-07-01",
			SemanticConfiguration: "default",
			TopK:                  3,
		},
		LLM: LLMConfig{
			Provider: "claude",
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   1500,
			Timeout:     "2m",
			Temperature: 0.1,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.0-flash",
			Timeout:     "2m",
			Temperature: 0.1,
		},
		Completion: CompletionConfig{
			CacheCapacity:   100,
			RetryAttempts:   3,
			RetryMinBackoff: "1s",
			RetryMaxBackoff: "10s",
			RateLimit:       2,
		},
		Documents: DocumentsConfig{
			TemplatesDir: "./templates",
			BlobPrefix:   "ddq_responses",
		},
		Retention: RetentionConfig{
			Enabled:  false,
			Schedule: "0 3 * * *",
			MaxAge:   "720h",
		},
	}
}

// LoadFromFiles loads configuration from TOML files with priority:
// defaults -> file1 -> file2 -> ... -> env -> CLI flags. Later files
// override earlier files.
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

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("RESPONDEO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("RESPONDEO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("RESPONDEO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if apiKey := os.Getenv("RESPONDEO_API_KEY"); apiKey != "" {
		config.Server.APIKey = apiKey
	}
	if baseURL := os.Getenv("RESPONDEO_PUBLIC_BASE_URL"); baseURL != "" {
		config.Server.PublicBaseURL = baseURL
	}

	if badgerPath := os.Getenv("RESPONDEO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("RESPONDEO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("RESPONDEO_LOG_OUTPUT"); output != "" {
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

	if endpoint := os.Getenv("RESPONDEO_SEARCH_ENDPOINT"); endpoint != "" {
		config.Search.Endpoint = endpoint
	}
	if index := os.Getenv("RESPONDEO_SEARCH_INDEX"); index != "" {
		config.Search.Index = index
	}
	if apiKey := os.Getenv("RESPONDEO_SEARCH_API_KEY"); apiKey != "" {
		config.Search.APIKey = apiKey
	}
	if topK := os.Getenv("RESPONDEO_SEARCH_TOP_K"); topK != "" {
		if k, err := strconv.Atoi(topK); err == nil && k > 0 {
			config.Search.TopK = k
		}
	}

	if provider := os.Getenv("RESPONDEO_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = provider
	}
	if model := os.Getenv("RESPONDEO_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if model := os.Getenv("RESPONDEO_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	if capacity := os.Getenv("RESPONDEO_COMPLETION_CACHE_CAPACITY"); capacity != "" {
		if c, err := strconv.Atoi(capacity); err == nil && c > 0 {
			config.Completion.CacheCapacity = c
		}
	}

	if dir := os.Getenv("RESPONDEO_TEMPLATES_DIR"); dir != "" {
		config.Documents.TemplatesDir = dir
	}
	if path := os.Getenv("RESPONDEO_SYSTEM_PROMPT_PATH"); path != "" {
		config.Documents.SystemPromptPath = path
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// PublicBaseURL returns the configured public base URL, defaulting to the
// server's own listen address.
func (c *Config) PublicBaseURL() string {
	if c.Server.PublicBaseURL != "" {
		return strings.TrimRight(c.Server.PublicBaseURL, "/")
	}
	return fmt.Sprintf("http://%s:%d", c.Server.Host, c.Server.Port)
}

// ParseDurationOrDefault parses a duration string, falling back to def on
// empty or invalid input.
func ParseDurationOrDefault(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// ResolveAPIKey resolves an API key by name with environment variable
// priority. Resolution order: environment variables -> KV store -> config
// fallback -> error.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"anthropic_api_key": {"ANTHROPIC_API_KEY", "RESPONDEO_CLAUDE_API_KEY"},
		"gemini_api_key":    {"GEMINI_API_KEY", "RESPONDEO_GEMINI_API_KEY"},
		"search_api_key":    {"RESPONDEO_SEARCH_API_KEY"},
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
