package ai

import "time"

// Config holds the model provider configuration resolved from the settings
// document, per-board defaults and process environment, in that order of
// increasing precedence.
type Config struct {
	Provider    string // openai, custom (any OpenAI-compatible endpoint)
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32 // default: 0.7
	MaxTokens   int     // default: 2048
	MaxRetries  int     // default: 3
	Timeout     time.Duration
}

// DefaultConfig returns the default provider configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   2048,
		MaxRetries:  3,
		Timeout:     60 * time.Second,
	}
}

// normalize applies defaults for unset values.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Provider == "" {
		c.Provider = def.Provider
	}
	if c.Model == "" {
		c.Model = def.Model
	}
	if c.Temperature == 0 {
		c.Temperature = def.Temperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = def.MaxTokens
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
}

// Validate reports whether the configuration can reach a provider at all.
// A custom base URL may point at a local server that ignores auth, so the
// key requirement only applies to the hosted default.
func (c *Config) Validate() error {
	if c.APIKey == "" && c.BaseURL == "" {
		return ConfigurationMissing("no API key configured")
	}
	return nil
}
