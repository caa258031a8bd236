// Package config loads the typed application configuration from an
// optional YAML file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all runtime settings. Every field can come from YAML or
// from the environment; env always wins.
type Config struct {
	// GeminiAPIKey authenticates against the generative text provider.
	// Required; startup fails without it.
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`

	// Model is the provider model used for all operations.
	Model string `yaml:"model" env:"MAILMINDER_MODEL" env-default:"gemini-2.5-flash"`

	// ListenAddr is the address of the HTTP API server.
	ListenAddr string `yaml:"listen_addr" env:"MAILMINDER_LISTEN_ADDR" env-default:":5001"`

	// StorePath is the JSON data file holding prompts, emails and drafts.
	StorePath string `yaml:"store_path" env:"MAILMINDER_STORE_PATH" env-default:"data.json"`

	// DefaultPromptsPath optionally provides the default PromptSet.
	DefaultPromptsPath string `yaml:"default_prompts_path" env:"MAILMINDER_DEFAULT_PROMPTS" env-default:"default_prompts.json"`

	// MockInboxPath is the sample inbox fixture for mock mode.
	MockInboxPath string `yaml:"mock_inbox_path" env:"MAILMINDER_MOCK_INBOX" env-default:"mock_inbox.json"`

	// GoogleCredentialsPath is the OAuth client secret file for the live
	// Gmail source. Optional; without it only mock mode works.
	GoogleCredentialsPath string `yaml:"google_credentials_path" env:"MAILMINDER_GOOGLE_CREDENTIALS" env-default:"credentials.json"`

	// GoogleTokenPath is the cached OAuth token file.
	GoogleTokenPath string `yaml:"google_token_path" env:"MAILMINDER_GOOGLE_TOKEN" env-default:"token.json"`

	// PacingInterval is the minimum spacing between provider calls.
	PacingInterval time.Duration `yaml:"pacing_interval" env:"MAILMINDER_PACING_INTERVAL" env-default:"4.2s"`
}

// Load reads configuration from the YAML file at path (when it exists)
// and the environment. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			return &cfg, nil
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config from environment: %w", err)
	}
	return &cfg, nil
}

// Validate checks the required settings. The API key is the only hard
// requirement; everything else has a usable default.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.PacingInterval < 0 {
		return fmt.Errorf("pacing interval must not be negative, got %s", c.PacingInterval)
	}
	return nil
}
