package main

import (
	"context"
	"fmt"

	"github.com/kbukum/transcribot/bootstrap"
	"github.com/kbukum/transcribot/bot"
	"github.com/kbukum/transcribot/chat"
	"github.com/kbukum/transcribot/component"
	"github.com/kbukum/transcribot/config"
	"github.com/kbukum/transcribot/discord"
	"github.com/kbukum/transcribot/httpclient"
	"github.com/kbukum/transcribot/jobs"
	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/matrix"
	"github.com/kbukum/transcribot/media"
	"github.com/kbukum/transcribot/observability"
	"github.com/kbukum/transcribot/server"
	"github.com/kbukum/transcribot/transcription/gladia"
	"github.com/kbukum/transcribot/util"
)

const serviceName = "transcribot"

// chatAdapter is a platform adapter: a lifecycle component that replies
// and feeds a handler.
type chatAdapter interface {
	component.Component
	chat.Replier
}

func loadConfig(configFile, envFile string) (*AppConfig, error) {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	cfg := &AppConfig{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildApp wires the pipeline. Components start in registration order:
// poller, chat adapter, status server. They stop in reverse, so the adapter
// drains in-flight messages into the poller before the poller stops.
func buildApp(ctx context.Context, cfg *AppConfig) (*bootstrap.App[*AppConfig], error) {
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return nil, err
	}
	tel, err := observability.Setup(ctx, cfg.Observability, observability.ServiceInfo{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Environment: cfg.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	app.OnStop(tel.Shutdown)

	metrics, err := observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	gladiaClient, err := gladia.New(cfg.Gladia)
	if err != nil {
		return nil, fmt.Errorf("gladia: %w", err)
	}
	app.OnStop(func(context.Context) error {
		gladiaClient.Close()
		return nil
	})
	app.OnStart(func(context.Context) error {
		app.Logger.Info("transcribing voice messages", logger.Fields(
			logger.FieldPlatform, cfg.Chat.Platform,
			"gladia_url", cfg.Gladia.BaseURL,
			"gladia_key", util.MaskSecret(cfg.Gladia.APIKey, 4),
			"languages", cfg.Gladia.Languages,
			"poll_interval", cfg.Poll.Interval.String(),
		))
		return nil
	})

	dispatcher := bot.NewDispatcher(cfg.Reply, bot.WithMetrics(metrics))
	poller := jobs.NewPoller(cfg.Poll, gladiaClient, dispatcher, jobs.WithMetrics(metrics))
	if err := app.RegisterComponent(poller); err != nil {
		return nil, err
	}

	var (
		adapter    chatAdapter
		fetcher    media.Fetcher
		setHandler func(*bot.Handler)
	)
	switch cfg.Chat.Platform {
	case chat.PlatformMatrix:
		client, err := matrix.NewClient(cfg.Matrix)
		if err != nil {
			return nil, fmt.Errorf("matrix: %w", err)
		}
		mb := matrix.NewBot(cfg.Matrix, client, nil, nil)
		adapter, fetcher = mb, media.NewFetcher(client)
		setHandler = func(h *bot.Handler) { mb.SetHandler(h) }
	case chat.PlatformDiscord:
		downloader, err := media.NewHTTPDownloader(httpclient.Config{Timeout: cfg.Gladia.Timeout}, cfg.Handler.MaxAudioBytes)
		if err != nil {
			return nil, fmt.Errorf("discord media: %w", err)
		}
		db, err := discord.New(cfg.Discord, nil, nil)
		if err != nil {
			return nil, err
		}
		adapter, fetcher = db, media.NewFetcher(downloader)
		setHandler = func(h *bot.Handler) { db.SetHandler(h) }
	default:
		return nil, fmt.Errorf("unsupported chat platform %q", cfg.Chat.Platform)
	}
	setHandler(bot.NewHandler(cfg.Handler, fetcher, gladiaClient, poller, bot.WithMetrics(metrics)))
	dispatcher.Register(cfg.Chat.Platform, adapter)
	if err := app.RegisterComponent(adapter); err != nil {
		return nil, err
	}

	if cfg.Server.Enabled {
		srv := server.New(cfg.Server, nil)
		srv.RegisterEndpoints(server.Endpoints{
			ServiceName: cfg.Name,
			Health:      app.Components.HealthAll,
			Jobs:        poller,
			Metrics:     tel.MetricsHandler,
		})
		if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
			return nil, err
		}
		app.OnReady(func(context.Context) error {
			srv.MarkReady()
			return nil
		})
	}
	return app, nil
}
