package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ramify-app/ramify/store"
)

// UpdateSettingsRequest is a partial settings update. Absent fields are
// untouched; explicit zero values reset a field to its default.
type UpdateSettingsRequest struct {
	Provider            *string  `json:"provider"`
	Model               *string  `json:"model"`
	Temperature         *float32 `json:"temperature"`
	MaxTokens           *int     `json:"maxTokens"`
	APIKey              *string  `json:"apiKey"`
	BaseURL             *string  `json:"baseUrl"`
	AutoExtractTopics   *bool    `json:"autoExtractTopics"`
	MaxTopicsPerExtract *int     `json:"maxTopicsPerExtract"`
}

// GetSettings returns the settings document. The API key travels in the
// clear; the engine serves a single local user on localhost.
// GET /api/v1/settings
func (s *APIV1Service) GetSettings(c echo.Context) error {
	settings, err := s.Store.GetSettings(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, settings)
}

// UpdateSettings applies a partial update to the settings document.
// PATCH /api/v1/settings
func (s *APIV1Service) UpdateSettings(c echo.Context) error {
	request := &UpdateSettingsRequest{}
	if err := c.Bind(request); err != nil {
		return respondInvalid(c, "malformed settings request")
	}
	if request.Temperature != nil && (*request.Temperature < 0 || *request.Temperature > 2) {
		return respondInvalid(c, "temperature must be between 0 and 2")
	}
	if request.MaxTokens != nil && *request.MaxTokens < 0 {
		return respondInvalid(c, "maxTokens cannot be negative")
	}
	if request.MaxTopicsPerExtract != nil && *request.MaxTopicsPerExtract < 0 {
		return respondInvalid(c, "maxTopicsPerExtract cannot be negative")
	}

	settings, err := s.Store.UpdateSettings(c.Request().Context(), &store.UpdateSettings{
		Provider:            request.Provider,
		Model:               request.Model,
		Temperature:         request.Temperature,
		MaxTokens:           request.MaxTokens,
		APIKey:              request.APIKey,
		BaseURL:             request.BaseURL,
		AutoExtractTopics:   request.AutoExtractTopics,
		MaxTopicsPerExtract: request.MaxTopicsPerExtract,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, settings)
}

// GetModelCatalog returns the model catalog: the built-in list or the
// models.yaml override from the data directory.
// GET /api/v1/models
func (s *APIV1Service) GetModelCatalog(c echo.Context) error {
	catalog, err := s.catalog()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, catalog)
}
