package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shtorm-im/shtorm/internal/bus"
	"github.com/shtorm-im/shtorm/internal/session"
	"github.com/shtorm-im/shtorm/internal/status"
	"github.com/shtorm-im/shtorm/internal/store"
	intsync "github.com/shtorm-im/shtorm/internal/sync"
	"github.com/shtorm-im/shtorm/internal/transport"
	"go.uber.org/zap"
)

// chatServer is a minimal in-memory rendition of the chats endpoint.
type chatServer struct {
	mu       sync.Mutex
	messages map[string][]string // chat id -> texts
	failSend bool
	sends    int
	fetches  int
}

func (s *chatServer) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Method == http.MethodPost {
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		_ = json.Unmarshal(body, &req)
		switch req["action"] {
		case "send_message":
			s.sends++
			if s.failSend {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			chatID := strconv.Itoa(int(req["chat_id"].(float64)))
			s.messages[chatID] = append(s.messages[chatID], req["text"].(string))
			_, _ = w.Write([]byte(`{"message":{"id":"new"}}`))
		case "create_chat":
			_, _ = w.Write([]byte(`{"chat_id":99}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
		return
	}

	switch r.URL.Query().Get("action") {
	case "chats":
		_, _ = w.Write([]byte(`{"chats":[{"id":99,"name":"Lena","avatar":"👩","lastMessage":"","timestamp":"","unread":0,"online":false}]}`))
	case "messages":
		s.fetches++
		chatID := r.URL.Query().Get("chat_id")
		out := []map[string]any{}
		for i, text := range s.messages[chatID] {
			out = append(out, map[string]any{
				"id": strconv.Itoa(i + 1), "text": text, "sender": "user",
				"timestamp": "2026-08-30T10:00:00", "encrypted": true,
			})
		}
		payload, _ := json.Marshal(map[string]any{"messages": out})
		_, _ = w.Write(payload)
	case "contacts":
		_, _ = w.Write([]byte(`{"contacts":[]}`))
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func newDispatcher(t *testing.T, srv *chatServer, authenticated bool) (*Dispatcher, *intsync.Engine, *bus.Bus) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(srv.handler))
	t.Cleanup(ts.Close)

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if authenticated {
		_ = st.Set("user_id", "42")
		_ = st.Set("user_data", `{"id":42,"name":"Ann"}`)
	}

	b := bus.New()
	client := transport.New(ts.URL, ts.URL, zap.NewNop())
	mgr := session.NewManager(st, client, status.NewMachine(b), zap.NewNop())
	mgr.Restore()
	engine := intsync.NewEngine(client, mgr, b, zap.NewNop(), time.Hour)
	return NewDispatcher(client, engine, mgr, b, zap.NewNop()), engine, b
}

func TestSendMessageRefreshesAfterSuccess(t *testing.T) {
	srv := &chatServer{messages: map[string][]string{}}
	d, engine, _ := newDispatcher(t, srv, true)

	engine.SelectChat(context.Background(), "7")
	if len(engine.Messages("7")) != 0 {
		t.Fatal("chat 7 should start empty")
	}

	if err := d.SendMessage(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}

	msgs := engine.Messages("7")
	if len(msgs) != 1 || msgs[0].Text != "hello" {
		t.Fatalf("messages = %v, want the sent message via refresh", msgs)
	}
}

func TestSendMessageFailureLeavesStateUntouched(t *testing.T) {
	srv := &chatServer{messages: map[string][]string{}, failSend: true}
	d, engine, _ := newDispatcher(t, srv, true)

	engine.SelectChat(context.Background(), "7")
	fetchesBefore := srv.fetches

	err := d.SendMessage(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected send error")
	}
	if len(engine.Messages("7")) != 0 {
		t.Error("message appeared despite failed send")
	}
	if srv.fetches != fetchesBefore {
		t.Error("refresh triggered despite failed send")
	}
}

func TestSendMessageNoActiveChatIsNoop(t *testing.T) {
	srv := &chatServer{messages: map[string][]string{}}
	d, _, _ := newDispatcher(t, srv, true)

	if err := d.SendMessage(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	if srv.sends != 0 {
		t.Errorf("sends = %d, want 0 without an active chat", srv.sends)
	}
}

func TestSendMessageUnauthenticatedIsNoop(t *testing.T) {
	srv := &chatServer{messages: map[string][]string{}}
	d, _, _ := newDispatcher(t, srv, false)

	if err := d.SendMessage(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	if srv.sends != 0 {
		t.Errorf("sends = %d, want 0 without a session", srv.sends)
	}
}

func TestSendMessageEmptyTextIsNoop(t *testing.T) {
	srv := &chatServer{messages: map[string][]string{}}
	d, engine, _ := newDispatcher(t, srv, true)
	engine.SelectChat(context.Background(), "7")

	if err := d.SendMessage(context.Background(), "   "); err != nil {
		t.Fatal(err)
	}
	if srv.sends != 0 {
		t.Errorf("sends = %d, want 0 for blank text", srv.sends)
	}
}

func TestCreateChatWithContact(t *testing.T) {
	srv := &chatServer{messages: map[string][]string{}}
	d, engine, b := newDispatcher(t, srv, true)

	pageCh, unsub := b.Subscribe("ui.", 10)
	defer unsub()

	if err := d.CreateChatWithContact(context.Background(), 5); err != nil {
		t.Fatal(err)
	}

	if engine.ActiveChat() != "99" {
		t.Errorf("active chat = %q, want 99", engine.ActiveChat())
	}
	if len(engine.Chats()) != 1 {
		t.Errorf("chats = %d, want reloaded list", len(engine.Chats()))
	}

	select {
	case evt := <-pageCh:
		if evt.Kind != bus.KindPageSwitch || evt.Payload != "chats" {
			t.Errorf("event = %q/%v, want page switch to chats", evt.Kind, evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no page switch event published")
	}
}
