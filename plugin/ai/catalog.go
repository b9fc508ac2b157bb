package ai

import (
	_ "embed"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var builtinCatalog []byte

// CatalogModel is one selectable model.
type CatalogModel struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	IsDefault   bool   `yaml:"isDefault,omitempty" json:"isDefault,omitempty"`
}

// CatalogProvider groups the models of one provider. BaseURL is empty for
// the hosted OpenAI default.
type CatalogProvider struct {
	ID      string         `yaml:"id" json:"id"`
	Name    string         `yaml:"name" json:"name"`
	BaseURL string         `yaml:"baseUrl,omitempty" json:"baseUrl,omitempty"`
	Models  []CatalogModel `yaml:"models" json:"models"`
}

// Catalog is the model list offered to the UI.
type Catalog struct {
	Providers []CatalogProvider `yaml:"providers" json:"providers"`
}

// LoadCatalog reads the catalog from overridePath when that file exists,
// falling back to the built-in list when it is absent or broken. The
// built-in catalog failing to parse is a build defect and returns an error.
func LoadCatalog(overridePath string) (*Catalog, error) {
	if overridePath != "" {
		data, err := os.ReadFile(overridePath)
		switch {
		case err == nil:
			catalog := &Catalog{}
			if err := yaml.Unmarshal(data, catalog); err != nil {
				slog.Warn("model catalog override is invalid, using built-in list",
					"path", overridePath, "error", err)
			} else if len(catalog.Providers) > 0 {
				return catalog, nil
			}
		case !os.IsNotExist(err):
			slog.Warn("model catalog override is unreadable, using built-in list",
				"path", overridePath, "error", err)
		}
	}

	catalog := &Catalog{}
	if err := yaml.Unmarshal(builtinCatalog, catalog); err != nil {
		return nil, errors.Wrap(err, "built-in model catalog is invalid")
	}
	return catalog, nil
}

// Provider returns the provider with the given id.
func (c *Catalog) Provider(providerID string) (*CatalogProvider, bool) {
	for i := range c.Providers {
		if c.Providers[i].ID == providerID {
			return &c.Providers[i], true
		}
	}
	return nil, false
}

// DefaultModel returns the provider's default model id, falling back to its
// first model.
func (c *Catalog) DefaultModel(providerID string) (string, bool) {
	provider, ok := c.Provider(providerID)
	if !ok || len(provider.Models) == 0 {
		return "", false
	}
	for _, m := range provider.Models {
		if m.IsDefault {
			return m.ID, true
		}
	}
	return provider.Models[0].ID, true
}

// HasModel reports whether the provider lists the model.
func (c *Catalog) HasModel(providerID, modelID string) bool {
	provider, ok := c.Provider(providerID)
	if !ok {
		return false
	}
	for _, m := range provider.Models {
		if m.ID == modelID {
			return true
		}
	}
	return false
}
