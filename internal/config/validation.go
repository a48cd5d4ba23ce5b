package config

import (
	"fmt"
	"os"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// API key is required for all AI operations (read directly by Genkit).
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	// Temperature range: 0.0 (deterministic) to 2.0 (maximum creativity)
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	// Replies are capped; 8192 is far beyond anything the coach should emit.
	if c.MaxTokens < 1 || c.MaxTokens > 8192 {
		return fmt.Errorf("%w: must be between 1 and 8192, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	if c.RAGTopK <= 0 || c.RAGTopK > 10 {
		return fmt.Errorf("%w: must be between 1 and 10, got %d", ErrInvalidRAGTopK, c.RAGTopK)
	}

	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database_path cannot be empty", ErrInvalidDatabasePath)
	}

	if c.DocsDir == "" {
		return fmt.Errorf("%w: docs_dir cannot be empty", ErrInvalidDocsDir)
	}

	return nil
}

// ValidateServe validates the additional requirements of serve mode.
// The rebuild token protects POST /rebuild-rag; a server without it would
// expose an unauthenticated reindex trigger, so startup refuses to proceed.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.RebuildToken == "" {
		return fmt.Errorf("%w: set VERDA_REBUILD_TOKEN or rebuild_token in config.yaml",
			ErrMissingRebuildToken)
	}
	return nil
}
