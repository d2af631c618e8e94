package hub

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dcosson/wshd/internal/config"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("WSHD_HOME", dir)
	os.MkdirAll(dir, 0o700)
	return New(&config.Config{})
}

func TestCreateListKill(t *testing.T) {
	h := newTestHub(t)

	s, err := h.CreateSession("a", "/bin/sh", []string{"-i"}, nil, 40, 10)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	defer s.Close()

	names := h.List()
	if len(names) != 1 || names[0] != "a" {
		t.Fatalf("List() = %v, want [a]", names)
	}

	got, ok := h.Get("a")
	if !ok || got != s {
		t.Fatalf("Get(a) = (%v, %v), want the created session", got, ok)
	}

	if err := h.Kill("a"); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if _, ok := h.Get("a"); ok {
		t.Fatal("Get(a) after Kill still found a session")
	}
}

func TestCreateSession_NameInUse(t *testing.T) {
	h := newTestHub(t)
	s, err := h.CreateSession("dup", "/bin/sh", []string{"-i"}, nil, 40, 10)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	defer s.Close()

	if _, err := h.CreateSession("dup", "/bin/sh", []string{"-i"}, nil, 40, 10); err == nil {
		t.Fatal("expected an error creating a duplicate name")
	}
}

func TestKill_NotFound(t *testing.T) {
	h := newTestHub(t)
	if err := h.Kill("nope"); err == nil {
		t.Fatal("expected an error killing an unregistered session")
	}
}

func TestRename(t *testing.T) {
	h := newTestHub(t)
	s, err := h.CreateSession("old", "/bin/sh", []string{"-i"}, nil, 40, 10)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	defer s.Close()

	if err := h.Rename("old", "new"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, ok := h.Get("old"); ok {
		t.Fatal("Get(old) after Rename still found a session")
	}
	got, ok := h.Get("new")
	if !ok || got != s {
		t.Fatalf("Get(new) after Rename = (%v, %v), want the renamed session", got, ok)
	}
}

func TestRename_NotFound(t *testing.T) {
	h := newTestHub(t)
	if err := h.Rename("nope", "whatever"); err == nil {
		t.Fatal("expected an error renaming an unregistered session")
	}
}

func TestRename_NameInUse(t *testing.T) {
	h := newTestHub(t)
	a, err := h.CreateSession("a", "/bin/sh", []string{"-i"}, nil, 40, 10)
	if err != nil {
		t.Fatalf("CreateSession a: %v", err)
	}
	defer a.Close()
	b, err := h.CreateSession("b", "/bin/sh", []string{"-i"}, nil, 40, 10)
	if err != nil {
		t.Fatalf("CreateSession b: %v", err)
	}
	defer b.Close()

	if err := h.Rename("a", "b"); err == nil {
		t.Fatal("expected an error renaming onto an existing name")
	}
}

func TestKill_PublishesSessionDestroyed(t *testing.T) {
	h := newTestHub(t)
	s, err := h.CreateSession("a", "/bin/sh", []string{"-i"}, nil, 40, 10)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	defer s.Close()

	sub := h.Subscribe(8)
	defer h.Unsubscribe(sub)

	if err := h.Kill("a"); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		e, ok := sub.Next(ctx)
		if !ok {
			t.Fatal("timed out waiting for session_destroyed")
		}
		if string(e.Kind) == "session_destroyed" {
			return
		}
	}
}
