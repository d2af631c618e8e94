package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dcosson/wshd/internal/compositor"
	"github.com/dcosson/wshd/internal/screen"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(Spec{
		Name:       "t",
		Command:    "/bin/sh",
		Args:       []string{"-i"},
		Cols:       40,
		Rows:       10,
		IdleWindow: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunCommand_AwaitsQuiescence(t *testing.T) {
	s := newTestSession(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, timedOut, err := s.RunCommand(ctx, []byte("echo hello\n"), 0); err != nil || timedOut {
		t.Fatalf("RunCommand: timedOut=%v err=%v", timedOut, err)
	}

	lines := s.Screen()
	found := false
	for _, l := range lines {
		if strings.Contains(l.Plain(), "hello") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a screen line containing %q", "hello")
	}
}

func TestResize_ChangesDims(t *testing.T) {
	s := newTestSession(t)
	if err := s.Resize(100, 30); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	cols, rows := s.Dims()
	if cols != 100 || rows != 30 {
		t.Fatalf("Dims() = (%d,%d), want (100,30)", cols, rows)
	}
}

func TestAddPanel_ReducesUsableRows(t *testing.T) {
	s := newTestSession(t)
	before := s.Screen()
	if _, err := s.AddPanel(compositor.EdgeBottom, 2, nil, screen.ModeNormal); err != nil {
		t.Fatalf("AddPanel: %v", err)
	}
	after := s.Screen()
	if len(after) != len(before) {
		t.Fatalf("len(Screen()) after adding a panel = %d, want unchanged total %d (panel rows replace PTY rows)", len(after), len(before))
	}
	if v := s.ScreenInfo(); v.Rows != 8 {
		t.Fatalf("usable rows after adding a 2-row panel to a 10-row session = %d, want 8", v.Rows)
	}
}

func TestSubscribe_ReceivesQuiescentEvent(t *testing.T) {
	s := newTestSession(t)
	sub := s.Subscribe(8)
	defer s.Unsubscribe(sub)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Input([]byte("\n")); err != nil {
		t.Fatalf("Input: %v", err)
	}

	sawQuiescent := false
	for i := 0; i < 20; i++ {
		e, ok := sub.Next(ctx)
		if !ok {
			break
		}
		if e.Kind == "quiescent" {
			sawQuiescent = true
			break
		}
	}
	if !sawQuiescent {
		t.Fatal("expected a quiescent event")
	}
}
