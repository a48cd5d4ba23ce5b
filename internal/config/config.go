// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.verda/config.yaml or ./config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - AI: model selection, temperature, generation budget, embedder
//   - Storage: SQLite database path
//   - RAG: docs directory and retrieval depth
//   - Server: listen address, CORS origins, rebuild token
//   - Observability: optional OTLP trace export (see observability.go)
//
// Error handling uses sentinel errors for Go-idiomatic checks with errors.Is();
// sensitive values (rebuild token) are masked in MarshalJSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidRAGTopK indicates the retrieval depth is out of range.
	ErrInvalidRAGTopK = errors.New("invalid RAG topK")

	// ErrInvalidDatabasePath indicates the SQLite database path is invalid.
	ErrInvalidDatabasePath = errors.New("invalid database path")

	// ErrInvalidDocsDir indicates the knowledge docs directory is invalid.
	ErrInvalidDocsDir = errors.New("invalid docs directory")

	// ErrMissingRebuildToken indicates the rebuild token is not set.
	ErrMissingRebuildToken = errors.New("missing rebuild token")
)

// Provider-qualified model name prefix for Genkit.
const providerGoogleAI = "googleai"

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// AI model configuration
	ModelName   string  `mapstructure:"model_name" json:"model_name"`
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`

	// RAG configuration
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`
	DocsDir       string `mapstructure:"docs_dir" json:"docs_dir"`
	RAGTopK       int    `mapstructure:"rag_top_k" json:"rag_top_k"`

	// Storage configuration
	DatabasePath string `mapstructure:"database_path" json:"database_path"`

	// Server configuration
	Addr         string   `mapstructure:"addr" json:"addr"`
	CORSOrigins  []string `mapstructure:"cors_origins" json:"cors_origins"`
	RebuildToken string   `mapstructure:"rebuild_token" json:"rebuild_token"` // SENSITIVE: masked in MarshalJSON

	// Observability configuration (see observability.go)
	Otel OtelConfig `mapstructure:"otel" json:"otel"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".verda")

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Fail fast: an invalid config should never leave Load.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// AI defaults. The generation budget is deliberately small: replies are
	// short coaching tips, not long-form answers.
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("temperature", 0.7)
	viper.SetDefault("max_tokens", 200)

	// RAG defaults
	viper.SetDefault("embedder_model", "gemini-embedding-001")
	viper.SetDefault("docs_dir", "docs")
	viper.SetDefault("rag_top_k", 3)

	// Storage defaults
	viper.SetDefault("database_path", "verda.db")

	// Server defaults
	viper.SetDefault("addr", "127.0.0.1:8080")
	viper.SetDefault("cors_origins", []string{"http://localhost:5173"})

	// Otel defaults (empty endpoint = tracing disabled)
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.environment", "dev")
	viper.SetDefault("otel.service_name", "verda")
}

// bindEnvVariables binds environment variables explicitly.
// GEMINI_API_KEY is read directly by Genkit (not via Viper); its presence is
// checked in Validate().
func bindEnvVariables() {
	// Hardcoded keys can't fail to bind; a failure here is a bug.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("rebuild_token", "VERDA_REBUILD_TOKEN")
	mustBind("addr", "VERDA_ADDR")
	mustBind("database_path", "VERDA_DB_PATH")
	mustBind("docs_dir", "VERDA_DOCS_DIR")
	mustBind("model_name", "VERDA_MODEL_NAME")
	mustBind("embedder_model", "VERDA_EMBEDDER_MODEL")
	mustBind("cors_origins", "VERDA_CORS_ORIGINS")
	mustBind("otel.endpoint", "VERDA_OTEL_ENDPOINT")
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Secrets of 8 chars or fewer are fully masked to prevent substring matching;
// longer secrets keep the first and last 2 characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
// When adding new sensitive fields (tokens, keys), update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.RebuildToken = maskSecret(a.RebuildToken)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified model name for Genkit.
// Example: "googleai/gemini-2.5-flash". A ModelName that already contains a
// "/" is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	return providerGoogleAI + "/" + c.ModelName
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
