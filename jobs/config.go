package jobs

import (
	"fmt"
	"time"
)

// Config configures the poll loop.
type Config struct {
	// Interval is the pause between rounds.
	Interval time.Duration `mapstructure:"interval"`
	// Concurrency bounds the polls in flight during a round.
	Concurrency int `mapstructure:"concurrency"`
	// MaxConsecutiveFailures drops a job after that many failed polls in a
	// row. Zero keeps failing jobs forever.
	MaxConsecutiveFailures int `mapstructure:"max_consecutive_failures"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("poll.concurrency must be positive")
	}
	if c.MaxConsecutiveFailures < 0 {
		return fmt.Errorf("poll.max_consecutive_failures must not be negative")
	}
	return nil
}
