package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shtorm-im/shtorm/internal/bus"
	"github.com/shtorm-im/shtorm/internal/dispatch"
	"github.com/shtorm-im/shtorm/internal/lock"
	"github.com/shtorm-im/shtorm/internal/session"
	"github.com/shtorm-im/shtorm/internal/status"
	"github.com/shtorm-im/shtorm/internal/store"
	intsync "github.com/shtorm-im/shtorm/internal/sync"
	"github.com/shtorm-im/shtorm/internal/transport"
	"go.uber.org/zap"
)

// TestClientLifecycle wires the full component graph by hand against a fake
// backend: register, restart with restored credentials, sync, send.
func TestClientLifecycle(t *testing.T) {
	fake := &fakeBackend{}
	backend := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer backend.Close()

	sessionDir := t.TempDir()

	lk, err := lock.Acquire(sessionDir)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = lk.Release() }()

	st, err := store.Open(filepath.Join(sessionDir, "shtorm.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.Migrate(); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = st.Close() }()

	logger := zap.NewNop()
	client := transport.New(backend.URL, backend.URL, logger)

	// First run: fresh session, register an account.
	b := bus.New()
	mgr := session.NewManager(st, client, status.NewMachine(b), logger)
	mgr.Restore()
	if mgr.Authenticated() {
		t.Fatal("fresh session must not be authenticated")
	}
	if err := mgr.Register(context.Background(), "+7 900 000-00-01", "Ann", "😎"); err != nil {
		t.Fatal(err)
	}

	// Second run: credentials restore without touching the network.
	b2 := bus.New()
	mgr2 := session.NewManager(st, client, status.NewMachine(b2), logger)
	mgr2.Restore()
	if !mgr2.Authenticated() {
		t.Fatal("persisted credentials must restore")
	}
	if mgr2.UserID() != 42 {
		t.Fatalf("restored user id = %d, want 42", mgr2.UserID())
	}

	engine := intsync.NewEngine(client, mgr2, b2, logger, time.Hour)
	dispatcher := dispatch.NewDispatcher(client, engine, mgr2, b2, logger)

	events, unsub := b2.Subscribe("sync.", 16)
	defer unsub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.Start(ctx)

	waitKind(t, events, bus.KindChatsUpdated)
	if len(engine.Chats()) != 1 {
		t.Fatalf("chats = %d, want 1", len(engine.Chats()))
	}

	engine.SelectChat(ctx, "7")
	if err := dispatcher.SendMessage(ctx, "privet"); err != nil {
		t.Fatal(err)
	}
	msgs := engine.Messages("7")
	if len(msgs) != 1 || msgs[0].Text != "privet" {
		t.Fatalf("messages after send = %+v", msgs)
	}

	engine.Stop()
}

func waitKind(t *testing.T, events <-chan bus.Event, kind string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Kind == kind {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", kind)
		}
	}
}

// fakeBackend is an in-memory rendition of both cloud endpoints.
type fakeBackend struct {
	mu        sync.Mutex
	sentTexts []string
}

func (f *fakeBackend) handler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Method == http.MethodPost {
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		_ = json.Unmarshal(body, &req)
		switch req["action"] {
		case "register":
			_, _ = w.Write([]byte(`{"user":{"id":42,"phone":"+7 900 000-00-01","name":"Ann","avatar":"😎","status":"online"}}`))
		case "send_message":
			f.sentTexts = append(f.sentTexts, req["text"].(string))
			_, _ = w.Write([]byte(`{"message":{"id":"m1"}}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
		return
	}

	switch r.URL.Query().Get("action") {
	case "chats":
		_, _ = w.Write([]byte(`{"chats":[{"id":7,"name":"Lena","avatar":"👩","lastMessage":"","timestamp":"10:00","unread":0,"online":true}]}`))
	case "contacts":
		_, _ = w.Write([]byte(`{"contacts":[]}`))
	case "messages":
		out := []map[string]any{}
		for i, text := range f.sentTexts {
			out = append(out, map[string]any{
				"id": i + 1, "text": text, "sender": "user",
				"timestamp": "2026-08-30T10:00:00", "encrypted": true,
			})
		}
		payload, _ := json.Marshal(map[string]any{"messages": out})
		_, _ = w.Write(payload)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}
