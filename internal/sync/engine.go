package sync

import (
	"context"
	"sync"
	"time"

	"github.com/shtorm-im/shtorm/internal/bus"
	"github.com/shtorm-im/shtorm/internal/session"
	"github.com/shtorm-im/shtorm/internal/transport"
	"go.uber.org/zap"
)

// DefaultInterval is the polling cadence when none is configured.
const DefaultInterval = 3 * time.Second

// Engine keeps the local chat, contact and message collections approximately
// current by polling the API. Each successful fetch replaces the prior
// collection wholesale; a failed fetch is logged and leaves the last known
// good state in place until the next tick.
//
// Every tick refreshes the chat list and, when a chat is open, its messages.
// Contacts are fetched once when polling starts and again only on an
// explicit reload.
type Engine struct {
	client   *transport.Client
	sessions *session.Manager
	bus      *bus.Bus
	logger   *zap.Logger
	interval time.Duration

	mu         sync.RWMutex
	chats      []transport.Chat
	contacts   []transport.Contact
	messages   map[string][]transport.Message
	activeChat string

	runMu  sync.Mutex
	cancel context.CancelFunc
}

// NewEngine creates a sync engine. A non-positive interval falls back to
// DefaultInterval.
func NewEngine(client *transport.Client, sessions *session.Manager, b *bus.Bus, logger *zap.Logger, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Engine{
		client:   client,
		sessions: sessions,
		bus:      b,
		logger:   logger,
		interval: interval,
		messages: make(map[string][]transport.Message),
	}
}

// Start begins the polling loop: one immediate chat and contact refresh,
// then a chat refresh (plus the active chat's messages) every interval.
// Calling Start while a loop is already running replaces it; the prior
// timer is cancelled so repeated session changes cannot stack tickers.
func (e *Engine) Start(ctx context.Context) {
	e.runMu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	ctx, e.cancel = context.WithCancel(ctx)
	e.runMu.Unlock()

	go e.loop(ctx)
}

// Stop halts the polling loop. No refresh is issued after Stop returns.
func (e *Engine) Stop() {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *Engine) loop(ctx context.Context) {
	e.RefreshChats(ctx)
	e.RefreshContacts(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.RefreshChats(ctx)
			if active := e.ActiveChat(); active != "" {
				e.RefreshMessages(ctx, active)
			}
		case <-ctx.Done():
			return
		}
	}
}

// SelectChat marks a chat as active and immediately refreshes its messages,
// independent of the timer.
func (e *Engine) SelectChat(ctx context.Context, chatID string) {
	e.mu.Lock()
	e.activeChat = chatID
	e.mu.Unlock()
	if chatID != "" {
		e.RefreshMessages(ctx, chatID)
	}
}

// RefreshChats replaces the chat collection with the server's current list.
func (e *Engine) RefreshChats(ctx context.Context) {
	userID := e.sessions.UserID()
	if userID == 0 {
		return
	}
	chats, err := e.client.Chats(ctx, userID)
	if err != nil {
		e.logger.Warn("chat refresh failed", zap.Error(err))
		return
	}
	e.mu.Lock()
	e.chats = chats
	e.pruneMessagesLocked()
	e.mu.Unlock()
	e.bus.Publish(bus.Now(bus.KindChatsUpdated, len(chats)))
}

// pruneMessagesLocked drops message collections of chats the server no longer
// lists, so the map does not grow for the process lifetime. The active chat
// is kept even when missing from the list: a refresh racing a just-created
// chat must not wipe the open thread.
func (e *Engine) pruneMessagesLocked() {
	keep := make(map[string]struct{}, len(e.chats)+1)
	for i := range e.chats {
		keep[e.chats[i].ID] = struct{}{}
	}
	if e.activeChat != "" {
		keep[e.activeChat] = struct{}{}
	}
	for id := range e.messages {
		if _, ok := keep[id]; !ok {
			delete(e.messages, id)
		}
	}
}

// RefreshContacts replaces the contact collection with the server's current list.
func (e *Engine) RefreshContacts(ctx context.Context) {
	userID := e.sessions.UserID()
	if userID == 0 {
		return
	}
	contacts, err := e.client.Contacts(ctx, userID)
	if err != nil {
		e.logger.Warn("contact refresh failed", zap.Error(err))
		return
	}
	e.mu.Lock()
	e.contacts = contacts
	e.mu.Unlock()
	e.bus.Publish(bus.Now(bus.KindContactsUpdated, len(contacts)))
}

// RefreshMessages replaces the message collection of a chat. A response that
// arrives after the active chat has changed is dropped, so a slow fetch for a
// previously open chat cannot overwrite fresher state.
func (e *Engine) RefreshMessages(ctx context.Context, chatID string) {
	userID := e.sessions.UserID()
	if userID == 0 {
		return
	}
	msgs, err := e.client.Messages(ctx, userID, chatID)
	if err != nil {
		e.logger.Warn("message refresh failed", zap.String("chat_id", chatID), zap.Error(err))
		return
	}

	e.mu.Lock()
	if e.activeChat != chatID {
		e.mu.Unlock()
		e.logger.Debug("dropping stale message refresh", zap.String("chat_id", chatID))
		return
	}
	e.messages[chatID] = msgs
	e.mu.Unlock()
	e.bus.Publish(bus.Now(bus.KindMessagesUpdated, chatID))
}

// Chats returns the current chat collection.
func (e *Engine) Chats() []transport.Chat {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.chats
}

// Contacts returns the current contact collection.
func (e *Engine) Contacts() []transport.Contact {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.contacts
}

// Messages returns the message collection of a chat.
func (e *Engine) Messages(chatID string) []transport.Message {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.messages[chatID]
}

// ActiveChat returns the id of the open chat, or empty when none is open.
func (e *Engine) ActiveChat() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.activeChat
}

// Chat returns the chat record for an id, or nil when the collection does
// not (yet) hold it.
func (e *Engine) Chat(chatID string) *transport.Chat {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for i := range e.chats {
		if e.chats[i].ID == chatID {
			c := e.chats[i]
			return &c
		}
	}
	return nil
}
