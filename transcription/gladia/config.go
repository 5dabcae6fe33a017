package gladia

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public Gladia API.
	DefaultBaseURL = "https://api.gladia.io"
	// KeyHeader carries the API key on every request.
	KeyHeader = "x-gladia-key"

	uploadPath      = "/v2/upload"
	preRecordedPath = "/v2/pre-recorded"
)

// Config configures the Gladia client.
type Config struct {
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey  string `mapstructure:"api_key"`
	// Languages enables code switching between the listed languages.
	Languages []string      `mapstructure:"languages"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("gladia.api_key is required")
	}
	for _, l := range c.Languages {
		if strings.TrimSpace(l) == "" {
			return fmt.Errorf("gladia.languages must not contain empty entries")
		}
	}
	return nil
}
