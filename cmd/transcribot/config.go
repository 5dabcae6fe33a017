package main

import (
	"fmt"

	"github.com/kbukum/transcribot/bot"
	"github.com/kbukum/transcribot/chat"
	"github.com/kbukum/transcribot/config"
	"github.com/kbukum/transcribot/discord"
	"github.com/kbukum/transcribot/jobs"
	"github.com/kbukum/transcribot/matrix"
	"github.com/kbukum/transcribot/observability"
	"github.com/kbukum/transcribot/server"
	"github.com/kbukum/transcribot/transcription/gladia"
	"github.com/kbukum/transcribot/validation"
	"github.com/kbukum/transcribot/version"
)

// ChatConfig selects the chat platform.
type ChatConfig struct {
	Platform string `yaml:"platform" mapstructure:"platform" validate:"oneof=matrix discord"`
}

// AppConfig is the full transcribot configuration.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Gladia        gladia.Config        `yaml:"gladia" mapstructure:"gladia"`
	Poll          jobs.Config          `yaml:"poll" mapstructure:"poll"`
	Reply         bot.ReplyConfig      `yaml:"reply" mapstructure:"reply"`
	Handler       bot.HandlerConfig    `yaml:"handler" mapstructure:"handler"`
	Chat          ChatConfig           `yaml:"chat" mapstructure:"chat"`
	Matrix        matrix.Config        `yaml:"matrix" mapstructure:"matrix"`
	Discord       discord.Config       `yaml:"discord" mapstructure:"discord"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills zero values in every section.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().Version
	}
	c.ServiceConfig.ApplyDefaults()
	if c.Chat.Platform == "" {
		c.Chat.Platform = chat.PlatformMatrix
	}
	c.Gladia.ApplyDefaults()
	c.Poll.ApplyDefaults()
	c.Reply.ApplyDefaults()
	c.Handler.ApplyDefaults()
	c.Matrix.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks struct tags first, then each section. Only the selected
// chat platform is validated.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	checks := []func() error{c.Gladia.Validate, c.Poll.Validate, c.Observability.Validate}
	switch c.Chat.Platform {
	case chat.PlatformMatrix:
		checks = append(checks, c.Matrix.Validate)
	case chat.PlatformDiscord:
		checks = append(checks, c.Discord.Validate)
	}
	if c.Server.Enabled {
		checks = append(checks, c.Server.Validate)
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}
