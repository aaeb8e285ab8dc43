package transport

import "time"

// User is the authenticated user's profile as returned by the auth endpoint.
type User struct {
	ID     int    `json:"id"`
	Phone  string `json:"phone"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Status string `json:"status"`
}

// Chat is one entry of the chat list. Timestamp is a server-formatted
// display string, not an instant.
type Chat struct {
	ID          string
	Name        string
	Avatar      string
	LastMessage string
	Timestamp   string
	Unread      int
	Online      bool
}

// Message is one entry of a chat's message list.
type Message struct {
	ID        string
	Text      string
	FromMe    bool
	Timestamp time.Time
	Encrypted bool
}

// Contact mirrors a server-side user other than the session's own.
type Contact struct {
	ID     int
	Name   string
	Avatar string
	Status string
	Online bool
}
