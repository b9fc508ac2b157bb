package store

// Settings is the global settings document. It is stored as a single JSON
// file and read through a short-lived cache; unknown fields in the file are
// ignored and missing ones fall back to DefaultSettings.
type Settings struct {
	Provider            string  `json:"provider"`
	Model               string  `json:"model"`
	Temperature         float32 `json:"temperature"`
	MaxTokens           int     `json:"maxTokens"`
	APIKey              string  `json:"apiKey,omitempty"`
	BaseURL             string  `json:"baseUrl,omitempty"`
	AutoExtractTopics   bool    `json:"autoExtractTopics"`
	MaxTopicsPerExtract int     `json:"maxTopicsPerExtract"`
}

// DefaultSettings returns the built-in settings table.
func DefaultSettings() *Settings {
	return &Settings{
		Provider:            "openai",
		Model:               "gpt-4o-mini",
		Temperature:         0.7,
		MaxTokens:           2048,
		AutoExtractTopics:   true,
		MaxTopicsPerExtract: 5,
	}
}

// Normalize fills zero-valued fields from the defaults table. A zero
// temperature means "unset" here, same as everywhere else in the request
// pipeline. Booleans are left alone; after decoding there is no telling a
// deliberate false from a missing field.
func (s *Settings) Normalize() {
	def := DefaultSettings()
	if s.Provider == "" {
		s.Provider = def.Provider
	}
	if s.Model == "" {
		s.Model = def.Model
	}
	if s.Temperature == 0 {
		s.Temperature = def.Temperature
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = def.MaxTokens
	}
	if s.MaxTopicsPerExtract <= 0 {
		s.MaxTopicsPerExtract = def.MaxTopicsPerExtract
	}
}

// Clone returns a copy safe to hand out to readers.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

// UpdateSettings is the partial-update parameter set. Nil fields are
// untouched; pointers to zero values reset a field to its default.
type UpdateSettings struct {
	Provider            *string
	Model               *string
	Temperature         *float32
	MaxTokens           *int
	APIKey              *string
	BaseURL             *string
	AutoExtractTopics   *bool
	MaxTopicsPerExtract *int
}

// Apply folds the patch into the settings document and re-normalizes.
func (s *Settings) Apply(u *UpdateSettings) {
	if u == nil {
		return
	}
	if u.Provider != nil {
		s.Provider = *u.Provider
	}
	if u.Model != nil {
		s.Model = *u.Model
	}
	if u.Temperature != nil {
		s.Temperature = *u.Temperature
	}
	if u.MaxTokens != nil {
		s.MaxTokens = *u.MaxTokens
	}
	if u.APIKey != nil {
		s.APIKey = *u.APIKey
	}
	if u.BaseURL != nil {
		s.BaseURL = *u.BaseURL
	}
	if u.AutoExtractTopics != nil {
		s.AutoExtractTopics = *u.AutoExtractTopics
	}
	if u.MaxTopicsPerExtract != nil {
		s.MaxTopicsPerExtract = *u.MaxTopicsPerExtract
	}
	s.Normalize()
}
