package config

import (
	"fmt"
	"os"
)

// EmbeddingConfig configures the text embedding provider used by the post index.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`    // Provider type: "jina"
	Model      string `mapstructure:"model"`       // Model name/ID
	APIKey     string `mapstructure:"api_key"`     // API key (can be set directly or via env var)
	APIKeyEnv  string `mapstructure:"api_key_env"` // Environment variable name for API key
	BaseURL    string `mapstructure:"base_url"`    // Optional endpoint override
	Dimensions int    `mapstructure:"dimensions"`  // Embedding vector dimensions
}

// ResolveEnvVars loads APIKey from APIKeyEnv when no direct value is set.
func (c *EmbeddingConfig) ResolveEnvVars() {
	if c.APIKeyEnv != "" && c.APIKey == "" {
		if val := os.Getenv(c.APIKeyEnv); val != "" {
			c.APIKey = val
		}
	}
}

// Validate checks that the embedding configuration can be used for indexing.
func (c *EmbeddingConfig) Validate() error {
	if c.Provider != "jina" {
		return fmt.Errorf("embedding: unsupported provider %q", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("embedding: model is required")
	}
	if c.Dimensions <= 0 {
		return fmt.Errorf("embedding: dimensions must be positive")
	}
	if c.APIKey == "" {
		return fmt.Errorf("embedding: api key is required")
	}
	return nil
}
