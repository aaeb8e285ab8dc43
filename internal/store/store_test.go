package store

import (
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetAbsent(t *testing.T) {
	s := testStore(t)

	v, ok, err := s.Get("user_id")
	if err != nil {
		t.Fatal(err)
	}
	if ok || v != "" {
		t.Errorf("Get(absent) = (%q, %v), want (\"\", false)", v, ok)
	}
}

func TestSetGet(t *testing.T) {
	s := testStore(t)

	if err := s.Set("user_id", "42"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Get("user_id")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || v != "42" {
		t.Errorf("Get(user_id) = (%q, %v), want (\"42\", true)", v, ok)
	}
}

func TestSetOverwrites(t *testing.T) {
	s := testStore(t)

	if err := s.Set("user_data", `{"name":"Ann"}`); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("user_data", `{"name":"Bob"}`); err != nil {
		t.Fatal(err)
	}
	v, _, err := s.Get("user_data")
	if err != nil {
		t.Fatal(err)
	}
	if v != `{"name":"Bob"}` {
		t.Errorf("value = %q, want replaced value", v)
	}
}

func TestDelete(t *testing.T) {
	s := testStore(t)

	if err := s.Set("user_id", "42"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("user_id"); err != nil {
		t.Fatal(err)
	}
	_, ok, err := s.Get("user_id")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("key still present after Delete")
	}

	// Deleting an absent key is fine.
	if err := s.Delete("user_id"); err != nil {
		t.Errorf("Delete(absent) error = %v", err)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	s := testStore(t)

	result, err := s.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() reported changes")
	}
}
