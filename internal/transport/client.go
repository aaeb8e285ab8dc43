package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"
)

// Client talks to the two Shtorm API endpoints: one for authentication,
// one for chat operations. Chat operations carry the user id in an
// X-User-Id header.
type Client struct {
	authURL  string
	chatsURL string
	http     *http.Client
	logger   *zap.Logger
	pool     fastjson.ParserPool
}

// New creates a transport client for the given endpoint URLs.
func New(authURL, chatsURL string, logger *zap.Logger) *Client {
	return &Client{
		authURL:  authURL,
		chatsURL: chatsURL,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

// Login authenticates an existing user by phone. A non-success status maps
// to ErrNotRegistered so the caller can switch to the registration flow.
func (c *Client) Login(ctx context.Context, phone string) (*User, error) {
	body, status, err := c.do(ctx, http.MethodPost, c.authURL, 0, map[string]any{
		"action": "login",
		"phone":  phone,
	})
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return nil, ErrNotRegistered
	}
	return c.parseUser(body)
}

// Register creates a new account. A non-success status surfaces the
// server-provided error message as an APIError.
func (c *Client) Register(ctx context.Context, phone, name, avatar string) (*User, error) {
	body, status, err := c.do(ctx, http.MethodPost, c.authURL, 0, map[string]any{
		"action": "register",
		"phone":  phone,
		"name":   name,
		"avatar": avatar,
	})
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return nil, c.apiError(status, body, "registration failed")
	}
	return c.parseUser(body)
}

// Chats fetches the chat list for the given user.
func (c *Client) Chats(ctx context.Context, userID int) ([]Chat, error) {
	body, status, err := c.do(ctx, http.MethodGet, c.chatsURL+"?action=chats", userID, nil)
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return nil, c.apiError(status, body, "failed to fetch chats")
	}

	p := c.pool.Get()
	defer c.pool.Put(p)
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("parse chats response: %w", err)
	}

	var chats []Chat
	for _, cv := range v.GetArray("chats") {
		chats = append(chats, Chat{
			ID:          idString(cv.Get("id")),
			Name:        string(cv.GetStringBytes("name")),
			Avatar:      string(cv.GetStringBytes("avatar")),
			LastMessage: string(cv.GetStringBytes("lastMessage")),
			Timestamp:   string(cv.GetStringBytes("timestamp")),
			Unread:      cv.GetInt("unread"),
			Online:      cv.GetBool("online"),
		})
	}
	return chats, nil
}

// Contacts fetches every known contact for the given user.
func (c *Client) Contacts(ctx context.Context, userID int) ([]Contact, error) {
	body, status, err := c.do(ctx, http.MethodGet, c.chatsURL+"?action=contacts", userID, nil)
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return nil, c.apiError(status, body, "failed to fetch contacts")
	}

	p := c.pool.Get()
	defer c.pool.Put(p)
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("parse contacts response: %w", err)
	}

	var contacts []Contact
	for _, cv := range v.GetArray("contacts") {
		contacts = append(contacts, Contact{
			ID:     cv.GetInt("id"),
			Name:   string(cv.GetStringBytes("name")),
			Avatar: string(cv.GetStringBytes("avatar")),
			Status: string(cv.GetStringBytes("status")),
			Online: cv.GetBool("online"),
		})
	}
	return contacts, nil
}

// Messages fetches the full message list of a chat, oldest first.
func (c *Client) Messages(ctx context.Context, userID int, chatID string) ([]Message, error) {
	u := c.chatsURL + "?action=messages&chat_id=" + url.QueryEscape(chatID)
	body, status, err := c.do(ctx, http.MethodGet, u, userID, nil)
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return nil, c.apiError(status, body, "failed to fetch messages")
	}

	p := c.pool.Get()
	defer c.pool.Put(p)
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("parse messages response: %w", err)
	}

	var msgs []Message
	for _, mv := range v.GetArray("messages") {
		msgs = append(msgs, Message{
			ID:        idString(mv.Get("id")),
			Text:      string(mv.GetStringBytes("text")),
			FromMe:    string(mv.GetStringBytes("sender")) == "user",
			Timestamp: parseInstant(string(mv.GetStringBytes("timestamp"))),
			Encrypted: mv.GetBool("encrypted"),
		})
	}
	return msgs, nil
}

// CreateChat asks the server for a direct chat with the given contact and
// returns the chat id (existing or newly created).
func (c *Client) CreateChat(ctx context.Context, userID, contactID int) (string, error) {
	body, status, err := c.do(ctx, http.MethodPost, c.chatsURL, userID, map[string]any{
		"action":  "create_chat",
		"user_id": contactID,
	})
	if err != nil {
		return "", err
	}
	if status/100 != 2 {
		return "", c.apiError(status, body, "failed to create chat")
	}

	p := c.pool.Get()
	defer c.pool.Put(p)
	v, err := p.ParseBytes(body)
	if err != nil {
		return "", fmt.Errorf("parse create_chat response: %w", err)
	}
	id := idString(v.Get("chat_id"))
	if id == "" {
		return "", fmt.Errorf("create_chat response missing chat_id")
	}
	return id, nil
}

// SendMessage posts a message to a chat. Acknowledgement only; the message
// itself arrives via the next refresh.
func (c *Client) SendMessage(ctx context.Context, userID int, chatID, text string) error {
	payload := map[string]any{
		"action": "send_message",
		"text":   text,
	}
	// Chat ids are numeric server-side; keep them numbers on the wire.
	if n, err := strconv.Atoi(chatID); err == nil {
		payload["chat_id"] = n
	} else {
		payload["chat_id"] = chatID
	}

	body, status, err := c.do(ctx, http.MethodPost, c.chatsURL, userID, payload)
	if err != nil {
		return err
	}
	if status/100 != 2 {
		return c.apiError(status, body, "failed to send message")
	}
	return nil
}

// do issues a request and returns the raw response body and status code.
// A userID greater than zero is carried in the X-User-Id header.
func (c *Client) do(ctx context.Context, method, rawURL string, userID int, payload map[string]any) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID > 0 {
		req.Header.Set("X-User-Id", strconv.Itoa(userID))
	}
	reqID := uuid.New().String()
	req.Header.Set("X-Request-Id", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request %s: %w", reqID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response %s: %w", reqID, err)
	}

	if c.logger != nil {
		c.logger.Debug("api call",
			zap.String("request_id", reqID),
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
		)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) parseUser(body []byte) (*User, error) {
	p := c.pool.Get()
	defer c.pool.Put(p)
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("parse user response: %w", err)
	}
	uv := v.Get("user")
	if uv == nil {
		return nil, fmt.Errorf("auth response missing user")
	}
	return &User{
		ID:     uv.GetInt("id"),
		Phone:  string(uv.GetStringBytes("phone")),
		Name:   string(uv.GetStringBytes("name")),
		Avatar: string(uv.GetStringBytes("avatar")),
		Status: string(uv.GetStringBytes("status")),
	}, nil
}

// apiError extracts the server's "error" field, falling back to a generic
// message when the body carries none.
func (c *Client) apiError(status int, body []byte, fallback string) error {
	msg := fastjson.GetString(body, "error")
	if msg == "" {
		msg = fallback
	}
	return &APIError{StatusCode: status, Message: msg}
}

// idString normalizes an id that may arrive as a JSON number or string.
func idString(v *fastjson.Value) string {
	if v == nil {
		return ""
	}
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		return strconv.Itoa(v.GetInt())
	default:
		return ""
	}
}

// instantLayouts covers the serialized timestamps the API emits. The server
// formats naive local datetimes without a zone offset.
var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// parseInstant parses a serialized timestamp, returning the zero time for
// anything unparseable rather than failing the whole refresh.
func parseInstant(s string) time.Time {
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
