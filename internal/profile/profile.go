package profile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main engine process.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the local API server
	Addr string
	// Port is the binding port for the local API server
	Port int
	// Data is the data directory holding boards/, settings.json and an
	// optional models.yaml catalog override
	Data string
	// Driver is the storage backend, currently only "jsonfile"
	Driver string
	// Version is the current version of the engine
	Version string

	// AI credential overrides. When set they take precedence over the
	// values stored in settings.json, so the desktop shell can inject a
	// key without persisting it to disk.
	AIProvider string // RAMIFY_AI_PROVIDER
	AIAPIKey   string // RAMIFY_AI_API_KEY
	AIBaseURL  string // RAMIFY_AI_BASE_URL
	AIModel    string // RAMIFY_AI_MODEL
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads the AI overrides from RAMIFY_AI_* environment variables.
func (p *Profile) FromEnv() {
	p.AIProvider = getEnvOrDefault("RAMIFY_AI_PROVIDER", p.AIProvider)
	p.AIAPIKey = getEnvOrDefault("RAMIFY_AI_API_KEY", p.AIAPIKey)
	p.AIBaseURL = getEnvOrDefault("RAMIFY_AI_BASE_URL", p.AIBaseURL)
	p.AIModel = getEnvOrDefault("RAMIFY_AI_MODEL", p.AIModel)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		if !os.IsNotExist(err) {
			return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
		}
		if mkErr := os.MkdirAll(dataDir, 0o750); mkErr != nil {
			return "", errors.Wrapf(mkErr, "failed to create data folder %s", dataDir)
		}
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.Driver == "" {
		p.Driver = "jsonfile"
	}

	if p.Data == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to resolve home directory")
		}
		p.Data = filepath.Join(home, ".ramify")
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	return nil
}
