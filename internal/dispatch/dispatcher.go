package dispatch

import (
	"context"
	"strings"

	"github.com/shtorm-im/shtorm/internal/bus"
	"github.com/shtorm-im/shtorm/internal/session"
	intsync "github.com/shtorm-im/shtorm/internal/sync"
	"github.com/shtorm-im/shtorm/internal/transport"
	"go.uber.org/zap"
)

// Dispatcher translates user intents into API calls and refreshes. There is
// no optimistic local append: a sent message becomes visible only once the
// post-send refresh returns it.
type Dispatcher struct {
	client   *transport.Client
	engine   *intsync.Engine
	sessions *session.Manager
	bus      *bus.Bus
	logger   *zap.Logger
}

// NewDispatcher creates a command dispatcher.
func NewDispatcher(client *transport.Client, engine *intsync.Engine, sessions *session.Manager, b *bus.Bus, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		client:   client,
		engine:   engine,
		sessions: sessions,
		bus:      b,
		logger:   logger,
	}
}

// SendMessage posts text to the active chat and, only on success, refreshes
// that chat's messages and the chat list. Without an active chat or an
// authenticated session it is a no-op.
func (d *Dispatcher) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	userID := d.sessions.UserID()
	chatID := d.engine.ActiveChat()
	if userID == 0 || chatID == "" {
		return nil
	}

	if err := d.client.SendMessage(ctx, userID, chatID, text); err != nil {
		d.logger.Warn("send failed", zap.String("chat_id", chatID), zap.Error(err))
		return err
	}

	d.engine.RefreshMessages(ctx, chatID)
	d.engine.RefreshChats(ctx)
	return nil
}

// CreateChatWithContact asks the server for a chat with the given contact,
// reloads the chat list, opens the returned chat and switches the visible
// page to chats.
func (d *Dispatcher) CreateChatWithContact(ctx context.Context, contactID int) error {
	userID := d.sessions.UserID()
	if userID == 0 {
		return nil
	}

	chatID, err := d.client.CreateChat(ctx, userID, contactID)
	if err != nil {
		d.logger.Warn("create chat failed", zap.Int("contact_id", contactID), zap.Error(err))
		return err
	}

	d.engine.RefreshChats(ctx)
	d.engine.SelectChat(ctx, chatID)
	d.bus.Publish(bus.Now(bus.KindPageSwitch, "chats"))
	return nil
}
