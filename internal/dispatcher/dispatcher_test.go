package dispatcher

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/dcosson/wshd/internal/config"
	"github.com/dcosson/wshd/internal/hub"
	"github.com/dcosson/wshd/internal/session"
)

func newTestHub(t *testing.T) *hub.Hub {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("WSHD_HOME", dir)
	os.MkdirAll(dir, 0o700)
	return hub.New(&config.Config{})
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestControl_CreateListGetKillRename(t *testing.T) {
	c := &Control{Hub: newTestHub(t)}

	res, err := c.Dispatch("create_session", mustJSON(t, map[string]any{
		"name": "a", "command": "/bin/sh", "args": []string{"-i"}, "cols": 40, "rows": 10,
	}))
	if err != nil {
		t.Fatalf("create_session: %v", err)
	}
	m := res.(map[string]any)
	if m["name"] != "a" {
		t.Fatalf("create_session result name = %v, want a", m["name"])
	}

	if _, err := c.Dispatch("create_session", mustJSON(t, map[string]any{
		"name": "a", "command": "/bin/sh",
	})); err == nil {
		t.Fatal("expected name_in_use error creating a duplicate")
	} else if de, ok := err.(*Error); !ok || de.Code != "name_in_use" {
		t.Fatalf("create_session dup error = %#v, want code name_in_use", err)
	}

	listRes, err := c.Dispatch("list_sessions", mustJSON(t, struct{}{}))
	if err != nil {
		t.Fatalf("list_sessions: %v", err)
	}
	list := listRes.([]map[string]any)
	if len(list) != 1 || list[0]["name"] != "a" {
		t.Fatalf("list_sessions = %v, want one session named a", list)
	}

	getRes, err := c.Dispatch("get_session", mustJSON(t, map[string]any{"name": "a"}))
	if err != nil {
		t.Fatalf("get_session: %v", err)
	}
	if getRes.(map[string]any)["status"] == nil {
		t.Fatal("get_session result missing status")
	}

	if _, err := c.Dispatch("get_session", mustJSON(t, map[string]any{"name": "nope"})); err == nil {
		t.Fatal("expected not_found getting an unregistered session")
	} else if de, ok := err.(*Error); !ok || de.Code != "not_found" {
		t.Fatalf("get_session missing error = %#v, want code not_found", err)
	}

	if _, err := c.Dispatch("rename_session", mustJSON(t, map[string]any{"name": "a", "new_name": "b"})); err != nil {
		t.Fatalf("rename_session: %v", err)
	}
	if _, ok := c.Hub.Get("b"); !ok {
		t.Fatal("expected session b after rename")
	}

	if _, err := c.Dispatch("kill_session", mustJSON(t, map[string]any{"name": "b"})); err != nil {
		t.Fatalf("kill_session: %v", err)
	}
	if _, err := c.Dispatch("kill_session", mustJSON(t, map[string]any{"name": "b"})); err == nil {
		t.Fatal("expected not_found killing an already-killed session")
	}
}

func newTestSessionDispatch(t *testing.T) *Session {
	t.Helper()
	s, err := session.New(session.Spec{
		Name: "t", Command: "/bin/sh", Args: []string{"-i"},
		Cols: 40, Rows: 10, IdleWindow: 30 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return &Session{S: s}
}

func TestSession_SendInputAndGetScreen(t *testing.T) {
	ctx := context.Background()
	sd := newTestSessionDispatch(t)

	if _, err := sd.Dispatch(ctx, "send_input", mustJSON(t, map[string]any{"data": "echo hi\n"})); err != nil {
		t.Fatalf("send_input: %v", err)
	}

	res, err := sd.Dispatch(ctx, "get_screen", mustJSON(t, struct{}{}))
	if err != nil {
		t.Fatalf("get_screen: %v", err)
	}
	m := res.(map[string]any)
	if _, ok := m["lines"]; !ok {
		t.Fatal("get_screen result missing lines")
	}
	if _, ok := m["cols"]; !ok {
		t.Fatal("get_screen result missing cols")
	}
}

func TestSession_RunCommandAndAwaitQuiesce(t *testing.T) {
	ctx := context.Background()
	sd := newTestSessionDispatch(t)

	res, err := sd.Dispatch(ctx, "run_command", mustJSON(t, map[string]any{
		"input": "echo hello\n", "max_wait_ms": 5000,
	}))
	if err != nil {
		t.Fatalf("run_command: %v", err)
	}
	m := res.(map[string]any)
	if m["timed_out"] != false {
		t.Fatalf("run_command timed_out = %v, want false", m["timed_out"])
	}
	gen1 := m["generation"]

	res2, err := sd.Dispatch(ctx, "get_screen", mustJSON(t, struct{}{}))
	if err != nil {
		t.Fatalf("get_screen: %v", err)
	}
	_ = res2
	_ = gen1

	aq, err := sd.Dispatch(ctx, "await_quiesce", mustJSON(t, map[string]any{"max_wait_ms": 2000}))
	if err != nil {
		t.Fatalf("await_quiesce: %v", err)
	}
	if aq.(map[string]any)["timed_out"] != false {
		t.Fatalf("await_quiesce timed_out = %v, want false", aq.(map[string]any)["timed_out"])
	}
}

func TestSession_Resize(t *testing.T) {
	ctx := context.Background()
	sd := newTestSessionDispatch(t)

	if _, err := sd.Dispatch(ctx, "resize", mustJSON(t, map[string]any{"cols": 100, "rows": 30})); err != nil {
		t.Fatalf("resize: %v", err)
	}
	cols, rows := sd.S.Dims()
	if cols != 100 || rows != 30 {
		t.Fatalf("Dims() after resize = (%d,%d), want (100,30)", cols, rows)
	}
}

func TestSession_OverlayCreateUpdateListRemove(t *testing.T) {
	ctx := context.Background()
	sd := newTestSessionDispatch(t)

	created, err := sd.Dispatch(ctx, "overlay", mustJSON(t, map[string]any{
		"action": "create", "x": 1, "y": 1, "width": 10, "height": 2, "focusable": true,
	}))
	if err != nil {
		t.Fatalf("overlay create: %v", err)
	}
	id := created.(map[string]any)["id"].(string)
	if id == "" {
		t.Fatal("overlay create returned empty id")
	}

	if _, err := sd.Dispatch(ctx, "overlay", mustJSON(t, map[string]any{
		"action": "update", "id": id,
		"span": map[string]any{"name": "s1", "row": 0, "col": 0, "text": "hi"},
	})); err != nil {
		t.Fatalf("overlay update: %v", err)
	}

	listed, err := sd.Dispatch(ctx, "overlay", mustJSON(t, map[string]any{"action": "list"}))
	if err != nil {
		t.Fatalf("overlay list: %v", err)
	}
	if len(listed.([]map[string]any)) != 1 {
		t.Fatalf("overlay list = %v, want one overlay", listed)
	}

	if _, err := sd.Dispatch(ctx, "overlay", mustJSON(t, map[string]any{
		"action": "remove", "id": id,
	})); err != nil {
		t.Fatalf("overlay remove: %v", err)
	}

	listed2, err := sd.Dispatch(ctx, "overlay", mustJSON(t, map[string]any{"action": "list"}))
	if err != nil {
		t.Fatalf("overlay list after remove: %v", err)
	}
	if len(listed2.([]map[string]any)) != 0 {
		t.Fatalf("overlay list after remove = %v, want none", listed2)
	}
}

func TestSession_InputModeCaptureFocused(t *testing.T) {
	ctx := context.Background()
	sd := newTestSessionDispatch(t)

	created, err := sd.Dispatch(ctx, "overlay", mustJSON(t, map[string]any{
		"action": "create", "x": 0, "y": 0, "width": 5, "height": 1, "focusable": true,
	}))
	if err != nil {
		t.Fatalf("overlay create: %v", err)
	}
	id := created.(map[string]any)["id"].(string)

	res, err := sd.Dispatch(ctx, "input_mode", mustJSON(t, map[string]any{
		"mode": "capture_focused", "focus": id,
	}))
	if err != nil {
		t.Fatalf("input_mode: %v", err)
	}
	m := res.(map[string]any)
	if m["mode"] != "capture_focused" {
		t.Fatalf("input_mode result mode = %v, want capture_focused", m["mode"])
	}
	if m["focus"] != id {
		t.Fatalf("input_mode result focus = %v, want %v", m["focus"], id)
	}
}

func TestSession_ScreenMode(t *testing.T) {
	ctx := context.Background()
	sd := newTestSessionDispatch(t)

	res, err := sd.Dispatch(ctx, "screen_mode", mustJSON(t, map[string]any{"action": "enter_alt"}))
	if err != nil {
		t.Fatalf("screen_mode enter_alt: %v", err)
	}
	if res.(map[string]any)["mode"] != "alt" {
		t.Fatalf("screen_mode result = %v, want alt", res)
	}

	res2, err := sd.Dispatch(ctx, "screen_mode", mustJSON(t, map[string]any{"action": "exit_alt"}))
	if err != nil {
		t.Fatalf("screen_mode exit_alt: %v", err)
	}
	if res2.(map[string]any)["mode"] != "normal" {
		t.Fatalf("screen_mode result = %v, want normal", res2)
	}
}
