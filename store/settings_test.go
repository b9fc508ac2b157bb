package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettings_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Settings
		want Settings
	}{
		{
			// Booleans are not defaulted: a decoded false cannot be told
			// apart from a missing field. Only a fully absent document
			// yields DefaultSettings with autoExtractTopics enabled.
			name: "empty document gets defaults except booleans",
			in:   Settings{},
			want: Settings{
				Provider:            "openai",
				Model:               "gpt-4o-mini",
				Temperature:         0.7,
				MaxTokens:           2048,
				AutoExtractTopics:   false,
				MaxTopicsPerExtract: 5,
			},
		},
		{
			name: "explicit values survive",
			in: Settings{
				Provider:            "custom",
				Model:               "llama-3.1-70b",
				Temperature:         0.2,
				MaxTokens:           4096,
				BaseURL:             "http://localhost:11434/v1",
				AutoExtractTopics:   false,
				MaxTopicsPerExtract: 3,
			},
			want: Settings{
				Provider:            "custom",
				Model:               "llama-3.1-70b",
				Temperature:         0.2,
				MaxTokens:           4096,
				BaseURL:             "http://localhost:11434/v1",
				AutoExtractTopics:   false,
				MaxTopicsPerExtract: 3,
			},
		},
		{
			name: "partial document fills the gaps",
			in:   Settings{Model: "gpt-4o"},
			want: Settings{
				Provider:            "openai",
				Model:               "gpt-4o",
				Temperature:         0.7,
				MaxTokens:           2048,
				MaxTopicsPerExtract: 5,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Normalize()
			assert.Equal(t, tt.want, tt.in)
		})
	}
}

func TestSettings_Apply(t *testing.T) {
	settings := DefaultSettings()

	model := "gpt-4o"
	key := "sk-test"
	settings.Apply(&UpdateSettings{Model: &model, APIKey: &key})

	assert.Equal(t, "gpt-4o", settings.Model)
	assert.Equal(t, "sk-test", settings.APIKey)
	// Untouched fields keep their values.
	assert.Equal(t, "openai", settings.Provider)
	assert.InDelta(t, 0.7, settings.Temperature, 0.001)

	// Zeroing a numeric field snaps back to the default.
	zero := 0
	settings.Apply(&UpdateSettings{MaxTokens: &zero})
	assert.Equal(t, 2048, settings.MaxTokens)

	settings.Apply(nil)
	assert.Equal(t, "gpt-4o", settings.Model)
}
