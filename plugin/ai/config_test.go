package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Normalize(t *testing.T) {
	cfg := &Config{APIKey: "sk-test"}
	cfg.normalize()

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.InDelta(t, 0.7, cfg.Temperature, 0.001)
	assert.Equal(t, 2048, cfg.MaxTokens)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 60*time.Second, cfg.Timeout)

	// Explicit values are kept.
	cfg = &Config{Provider: "custom", Model: "llama3.1", Temperature: 0.1, MaxTokens: 256, MaxRetries: 1, Timeout: time.Second}
	cfg.normalize()
	assert.Equal(t, "custom", cfg.Provider)
	assert.Equal(t, "llama3.1", cfg.Model)
	assert.Equal(t, 256, cfg.MaxTokens)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("MissingKeyAndURL", func(t *testing.T) {
		err := (&Config{}).Validate()
		require.Error(t, err)
		assert.True(t, IsCode(err, ErrCodeConfigurationMissing))
	})

	t.Run("KeyOnly", func(t *testing.T) {
		assert.NoError(t, (&Config{APIKey: "sk-test"}).Validate())
	})

	t.Run("LocalServerWithoutKey", func(t *testing.T) {
		assert.NoError(t, (&Config{BaseURL: "http://localhost:11434/v1"}).Validate())
	})
}
