package profile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromEnvOverrides(t *testing.T) {
	clearAIEnvVars(t)

	t.Setenv("RAMIFY_AI_PROVIDER", "openai")
	t.Setenv("RAMIFY_AI_API_KEY", "sk-test")
	t.Setenv("RAMIFY_AI_BASE_URL", "http://localhost:1234/v1")
	t.Setenv("RAMIFY_AI_MODEL", "gpt-4o-mini")

	p := &Profile{}
	p.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"provider", "openai", p.AIProvider},
		{"api key", "sk-test", p.AIAPIKey},
		{"base url", "http://localhost:1234/v1", p.AIBaseURL},
		{"model", "gpt-4o-mini", p.AIModel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, tt.actual)
			}
		})
	}
}

func TestFromEnvKeepsExistingValues(t *testing.T) {
	clearAIEnvVars(t)

	p := &Profile{AIProvider: "deepseek", AIModel: "deepseek-chat"}
	p.FromEnv()

	if p.AIProvider != "deepseek" {
		t.Errorf("expected provider to survive empty env, got %q", p.AIProvider)
	}
	if p.AIModel != "deepseek-chat" {
		t.Errorf("expected model to survive empty env, got %q", p.AIModel)
	}
}

func TestValidateNormalizesMode(t *testing.T) {
	p := &Profile{Mode: "demo", Data: t.TempDir()}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if p.Mode != "dev" {
		t.Errorf("expected unknown mode to fall back to dev, got %q", p.Mode)
	}
}

func TestValidateCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	p := &Profile{Mode: "prod", Data: dir}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("expected data dir to be created: %v", err)
	}
}

func clearAIEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{"RAMIFY_AI_PROVIDER", "RAMIFY_AI_API_KEY", "RAMIFY_AI_BASE_URL", "RAMIFY_AI_MODEL"} {
		t.Setenv(key, "")
	}
}
