package matrix

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/transcribot/chat"
	"github.com/kbukum/transcribot/component"
	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/resilience"
)

const (
	minSyncBackoff = time.Second
	maxSyncBackoff = 30 * time.Second
)

// MessageHandler consumes inbound messages.
type MessageHandler interface {
	Handle(ctx context.Context, msg chat.Message) error
}

// Bot runs the sync loop and replies in rooms.
type Bot struct {
	cfg     Config
	client  *Client
	handler MessageHandler
	log     *logger.Logger

	userID string
	ctx    context.Context
	cancel context.CancelFunc
	loop   sync.WaitGroup
	// handlers tracks in-flight message goroutines.
	handlers sync.WaitGroup

	lastSyncErr atomic.Pointer[string]
	synced      atomic.Int64
}

var (
	_ component.Component   = (*Bot)(nil)
	_ component.Describable = (*Bot)(nil)
	_ chat.Replier          = (*Bot)(nil)
)

// NewBot creates a Matrix bot. The handler may be set later with
// SetHandler, before Start. A nil log uses logger.Get("matrix").
func NewBot(cfg Config, client *Client, handler MessageHandler, log *logger.Logger) *Bot {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Get("matrix")
	}
	return &Bot{cfg: cfg, client: client, handler: handler, log: log}
}

// SetHandler sets the message handler.
func (b *Bot) SetHandler(h MessageHandler) { b.handler = h }

// Name implements component.Component.
func (b *Bot) Name() string { return "matrix" }

// Start resolves the bot's identity, optionally skips the backlog and
// starts the sync loop.
func (b *Bot) Start(ctx context.Context) error {
	if b.handler == nil {
		return fmt.Errorf("matrix: no message handler")
	}
	userID, err := b.client.Whoami(ctx)
	if err != nil {
		return err
	}
	if b.cfg.UserID != "" && b.cfg.UserID != userID {
		return fmt.Errorf("matrix: token belongs to %s, configured user is %s", userID, b.cfg.UserID)
	}
	b.userID = userID

	var since string
	if b.cfg.skipInitialSync() {
		resp, err := b.client.Sync(ctx, "", 0)
		if err != nil {
			return err
		}
		since = resp.NextBatch
		if b.cfg.AutoJoin {
			b.joinInvites(ctx, resp)
		}
	}

	b.ctx, b.cancel = context.WithCancel(context.Background())
	b.loop.Add(1)
	go b.run(since)
	b.log.Info("matrix sync started", logger.Fields("user_id", userID, "skip_backlog", b.cfg.skipInitialSync()))
	return nil
}

func (b *Bot) run(since string) {
	defer b.loop.Done()
	backoff := minSyncBackoff
	for b.ctx.Err() == nil {
		resp, err := b.client.Sync(b.ctx, since, b.cfg.SyncTimeout)
		if err != nil {
			if b.ctx.Err() != nil {
				return
			}
			msg := err.Error()
			b.lastSyncErr.Store(&msg)
			b.log.WithError(err).Warn("sync failed", logger.Fields("backoff", backoff.String()))
			if resilience.Wait(b.ctx, backoff) != nil {
				return
			}
			backoff = min(backoff*2, maxSyncBackoff)
			continue
		}
		backoff = minSyncBackoff
		b.lastSyncErr.Store(nil)
		b.synced.Add(1)
		b.process(resp)
		since = resp.NextBatch
	}
}

func (b *Bot) process(resp *SyncResponse) {
	if b.cfg.AutoJoin {
		b.joinInvites(b.ctx, resp)
	}
	for roomID, room := range resp.Rooms.Join {
		for _, ev := range room.Timeline.Events {
			if ev.Sender == b.userID {
				continue
			}
			msg, ok := toMessage(roomID, ev)
			if !ok || !msg.HasAudio() {
				continue
			}
			b.handlers.Add(1)
			go func() {
				defer b.handlers.Done()
				// Handling outlives shutdown so an accepted upload still
				// becomes a job; the HTTP timeouts bound it.
				_ = b.handler.Handle(context.WithoutCancel(b.ctx), msg)
			}()
		}
	}
}

func (b *Bot) joinInvites(ctx context.Context, resp *SyncResponse) {
	for roomID := range resp.Rooms.Invite {
		fields := logger.Fields(logger.FieldRoomID, roomID)
		if err := b.client.JoinRoom(ctx, roomID); err != nil {
			b.log.WithError(err).Warn("could not join room", fields)
			continue
		}
		b.log.Info("joined room", fields)
	}
}

// Reply implements chat.Replier.
func (b *Bot) Reply(ctx context.Context, origin chat.Origin, text string) error {
	_, err := b.client.SendReply(ctx, origin.ConversationID, origin.MessageID, text)
	return err
}

// Stop ends the sync loop and waits for in-flight messages.
func (b *Bot) Stop(ctx context.Context) error {
	if b.cancel == nil {
		return nil
	}
	b.cancel()
	done := make(chan struct{})
	go func() {
		b.loop.Wait()
		b.handlers.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.client.Close()
		return nil
	case <-ctx.Done():
		return fmt.Errorf("matrix stop: %w", ctx.Err())
	}
}

// Health implements component.Component.
func (b *Bot) Health(_ context.Context) component.Health {
	h := component.Health{Name: b.Name(), Status: component.StatusHealthy,
		Message: fmt.Sprintf("%d syncs", b.synced.Load())}
	if msg := b.lastSyncErr.Load(); msg != nil {
		h.Status = component.StatusDegraded
		h.Message = *msg
	}
	return h
}

// Describe implements component.Describable.
func (b *Bot) Describe() component.Description {
	return component.Description{
		Type:    "chat",
		Details: fmt.Sprintf("homeserver=%s auto_join=%t", b.cfg.Homeserver, b.cfg.AutoJoin),
	}
}
