package matrix

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kbukum/transcribot/security"
	"github.com/kbukum/transcribot/util"
)

// Config configures the Matrix adapter.
type Config struct {
	Homeserver  string `mapstructure:"homeserver"`
	AccessToken string `mapstructure:"access_token"`
	// UserID is optional; whoami is authoritative and a mismatch is an error.
	UserID      string        `mapstructure:"user_id"`
	SyncTimeout time.Duration `mapstructure:"sync_timeout"`
	AutoJoin    bool          `mapstructure:"auto_join"`
	// SkipInitialSync ignores events that arrived while the bot was
	// offline. Defaults to true.
	SkipInitialSync *bool `mapstructure:"skip_initial_sync"`
	// TLS is for homeservers behind a private CA.
	TLS *security.TLSConfig `mapstructure:"tls"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	c.Homeserver = strings.TrimRight(c.Homeserver, "/")
	if c.SyncTimeout <= 0 {
		c.SyncTimeout = 30 * time.Second
	}
	if c.SkipInitialSync == nil {
		c.SkipInitialSync = util.Ptr(true)
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Homeserver == "" {
		return fmt.Errorf("matrix.homeserver is required")
	}
	if u, err := url.Parse(c.Homeserver); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("matrix.homeserver must be an absolute URL")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("matrix.access_token is required")
	}
	return c.TLS.Validate()
}

func (c *Config) skipInitialSync() bool {
	return c.SkipInitialSync == nil || *c.SkipInitialSync
}
