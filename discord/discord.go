// Package discord is the Discord chat adapter. It listens on the gateway
// for messages with audio attachments and replies with message references.
package discord

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"

	"github.com/kbukum/transcribot/chat"
	"github.com/kbukum/transcribot/component"
	"github.com/kbukum/transcribot/logger"
)

// Config configures the Discord adapter.
type Config struct {
	Token string `mapstructure:"token"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("discord.token is required")
	}
	return nil
}

// MessageHandler consumes inbound messages.
type MessageHandler interface {
	Handle(ctx context.Context, msg chat.Message) error
}

// session is the part of *discordgo.Session the bot uses.
type session interface {
	Open() error
	Close() error
	AddHandler(handler interface{}) func()
	ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Bot owns the gateway connection.
type Bot struct {
	session session
	handler MessageHandler
	log     *logger.Logger

	selfID   atomic.Pointer[string]
	ctx      context.Context
	cancel   context.CancelFunc
	handlers sync.WaitGroup
	remove   []func()
	open     atomic.Bool
}

var (
	_ component.Component   = (*Bot)(nil)
	_ component.Describable = (*Bot)(nil)
	_ chat.Replier          = (*Bot)(nil)
)

// New creates a bot for cfg.Token. The gateway connects on Start. A nil
// log uses logger.Get("discord").
func New(cfg Config, handler MessageHandler, log *logger.Logger) (*Bot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentGuildMessages |
		discordgo.IntentDirectMessages |
		discordgo.IntentMessageContent
	return newBot(s, handler, log), nil
}

func newBot(s session, handler MessageHandler, log *logger.Logger) *Bot {
	if log == nil {
		log = logger.Get("discord")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{session: s, handler: handler, log: log, ctx: ctx, cancel: cancel}
}

// SetHandler sets the message handler.
func (b *Bot) SetHandler(h MessageHandler) { b.handler = h }

// Name implements component.Component.
func (b *Bot) Name() string { return "discord" }

// Start registers the event handlers and opens the gateway.
func (b *Bot) Start(_ context.Context) error {
	if b.handler == nil {
		return fmt.Errorf("discord: no message handler")
	}
	b.remove = append(b.remove,
		b.session.AddHandler(b.onReady),
		b.session.AddHandler(b.onMessageCreate),
	)
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord: open session: %w", err)
	}
	b.open.Store(true)
	b.log.Info("discord gateway connected")
	return nil
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	if r.User == nil {
		return
	}
	id := r.User.ID
	b.selfID.Store(&id)
	b.log.Info("discord ready", logger.Fields("user", r.User.Username))
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Message == nil || m.Author == nil {
		return
	}
	if self := b.selfID.Load(); m.Author.Bot || (self != nil && m.Author.ID == *self) {
		return
	}
	msg, ok := toMessage(m.Message)
	if !ok {
		return
	}
	b.handlers.Add(1)
	defer b.handlers.Done()
	_ = b.handler.Handle(context.WithoutCancel(b.ctx), msg)
}

// toMessage converts a Discord message carrying an audio attachment.
func toMessage(m *discordgo.Message) (chat.Message, bool) {
	for _, a := range m.Attachments {
		if a == nil || !chat.IsAudioMime(a.ContentType) {
			continue
		}
		msg := chat.Message{
			Origin: chat.Origin{
				Platform:       chat.PlatformDiscord,
				ConversationID: m.ChannelID,
				MessageID:      m.ID,
			},
			Kind:     chat.KindAudio,
			URL:      a.URL,
			MimeType: a.ContentType,
			FileName: a.Filename,
			Size:     int64(a.Size),
		}
		if m.Author != nil {
			msg.Origin.SenderID = m.Author.ID
		}
		return msg, true
	}
	return chat.Message{}, false
}

// Reply implements chat.Replier.
func (b *Bot) Reply(ctx context.Context, origin chat.Origin, text string) error {
	ref := &discordgo.MessageReference{MessageID: origin.MessageID, ChannelID: origin.ConversationID}
	if _, err := b.session.ChannelMessageSendReply(origin.ConversationID, text, ref, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: reply in %s: %w", origin.ConversationID, err)
	}
	return nil
}

// Stop closes the gateway and waits for in-flight messages.
func (b *Bot) Stop(ctx context.Context) error {
	for _, rm := range b.remove {
		rm()
	}
	b.remove = nil
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.handlers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("discord stop: %w", ctx.Err())
	}
	if b.open.Swap(false) {
		return b.session.Close()
	}
	return nil
}

// Health implements component.Component.
func (b *Bot) Health(_ context.Context) component.Health {
	h := component.Health{Name: b.Name(), Status: component.StatusHealthy, Message: "connected"}
	if !b.open.Load() {
		h.Status = component.StatusUnhealthy
		h.Message = "disconnected"
	}
	return h
}

// Describe implements component.Describable.
func (b *Bot) Describe() component.Description {
	return component.Description{Type: "chat", Details: "gateway"}
}
