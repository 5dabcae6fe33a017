package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/transcribot/chat"
)

const testConfig = `
name: transcribot
environment: production
chat:
  platform: discord
gladia:
  languages: [en, de]
poll:
  interval: 2s
discord:
  token: discord-token
server:
  enabled: true
  host: 127.0.0.1
  port: 18080
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	t.Setenv("GLADIA_API_KEY", "from-env")
	cfg, err := loadConfig(writeConfig(t, testConfig), "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Gladia.APIKey != "from-env" {
		t.Errorf("api key = %q", cfg.Gladia.APIKey)
	}
	if len(cfg.Gladia.Languages) != 2 || cfg.Poll.Interval != 2*time.Second {
		t.Errorf("gladia = %+v, poll = %+v", cfg.Gladia, cfg.Poll)
	}
	if cfg.Chat.Platform != chat.PlatformDiscord || cfg.Discord.Token != "discord-token" {
		t.Errorf("chat = %+v", cfg.Chat)
	}
	if cfg.Poll.Concurrency != 8 || cfg.Reply.EmptyText == "" || cfg.Gladia.BaseURL == "" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestAppConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		want   string
	}{
		{"missing api key", func(c *AppConfig) { c.Gladia.APIKey = "" }, "gladia.api_key"},
		{"unknown platform", func(c *AppConfig) { c.Chat.Platform = "irc" }, "platform"},
		{"matrix without homeserver", func(c *AppConfig) { c.Chat.Platform = chat.PlatformMatrix }, "matrix.homeserver"},
		{"discord without token", func(c *AppConfig) { c.Discord.Token = "" }, "discord.token"},
		{"bad exporter", func(c *AppConfig) { c.Observability.MetricsExporter = "statsd" }, "metrics_exporter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &AppConfig{}
			cfg.Gladia.APIKey = "k"
			cfg.Chat.Platform = chat.PlatformDiscord
			cfg.Discord.Token = "t"
			cfg.ApplyDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestBuildApp_RegistersComponents(t *testing.T) {
	t.Setenv("GLADIA_API_KEY", "k")
	cfg, err := loadConfig(writeConfig(t, testConfig), "")
	if err != nil {
		t.Fatal(err)
	}
	app, err := buildApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}

	var names []string
	for _, c := range app.Components.All() {
		names = append(names, c.Name())
	}
	if got := strings.Join(names, ","); got != "poller,discord,http-server" {
		t.Errorf("components = %s", got)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "transcribot ") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunCommand_MissingConfigFile(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"run", "--config", filepath.Join(t.TempDir(), "missing.yml")})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected missing config error")
	}
}
