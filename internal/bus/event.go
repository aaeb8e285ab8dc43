package bus

import "time"

// Event kinds grouped by namespace. Subscribers filter on a kind prefix,
// e.g. "sync." receives every collection update.
const (
	KindStatusChanged   = "session.status_changed"
	KindChatsUpdated    = "sync.chats"
	KindContactsUpdated = "sync.contacts"
	KindMessagesUpdated = "sync.messages"
	KindPageSwitch      = "ui.page"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Now builds an event stamped with the current time.
func Now(kind string, payload any) Event {
	return Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
}
