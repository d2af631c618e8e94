// Package dispatcher maps the wire protocol's method names (spec.md §6) to
// hub and session-actor operations.
package dispatcher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/google/uuid"

	"github.com/dcosson/wshd/internal/cell"
	"github.com/dcosson/wshd/internal/compositor"
	"github.com/dcosson/wshd/internal/hub"
	"github.com/dcosson/wshd/internal/screen"
	"github.com/dcosson/wshd/internal/session"
)

// Control dispatches hub-scoped methods, issued over the control socket.
type Control struct {
	Hub *hub.Hub
}

// Dispatch runs method with the given raw params and returns a JSON-
// marshalable result or an error.
func (c *Control) Dispatch(method string, params json.RawMessage) (any, error) {
	switch method {
	case "create_session":
		var p struct {
			Name    string            `json:"name"`
			Command string            `json:"command"`
			Args    []string          `json:"args"`
			Env     map[string]string `json:"env"`
			Cols    int               `json:"cols"`
			Rows    int               `json:"rows"`
			Tags    []string          `json:"tags"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		args := p.Args
		if len(args) == 0 && p.Command != "" {
			// A caller that passed a single shell-style command string
			// (rather than argv) gets it split the same way a shell would
			// (spec.md §6 create_session "command?"; spec.md §4.5 default
			// command handling).
			if fields, err := shlex.Split(p.Command); err == nil && len(fields) > 1 {
				p.Command, args = fields[0], fields[1:]
			}
		}
		s, err := c.Hub.CreateSession(p.Name, p.Command, args, p.Env, p.Cols, p.Rows)
		if err != nil {
			code := "spawn_failed"
			if errors.Is(err, hub.ErrNameInUse) {
				code = "name_in_use"
			}
			return nil, &Error{Code: code, Message: err.Error()}
		}
		cols, rows := s.Dims()
		return map[string]any{"name": s.Name, "cols": cols, "rows": rows}, nil

	case "list_sessions":
		names := c.Hub.List()
		out := make([]map[string]any, 0, len(names))
		for _, name := range names {
			s, ok := c.Hub.Get(name)
			if !ok {
				continue
			}
			out = append(out, sessionSummary(name, s))
		}
		return out, nil

	case "get_session":
		var p struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		s, ok := c.Hub.Get(p.Name)
		if !ok {
			return nil, notFoundErr(p.Name)
		}
		return sessionSummary(p.Name, s), nil

	case "kill_session":
		var p struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		if err := c.Hub.Kill(p.Name); err != nil {
			return nil, notFoundErr(p.Name)
		}
		return map[string]any{}, nil

	case "rename_session":
		var p struct {
			Name    string `json:"name"`
			NewName string `json:"new_name"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		if err := c.Hub.Rename(p.Name, p.NewName); err != nil {
			code := "not_found"
			if errors.Is(err, hub.ErrNameInUse) {
				code = "name_in_use"
			}
			return nil, &Error{Code: code, Message: err.Error()}
		}
		return map[string]any{}, nil

	default:
		return nil, fmt.Errorf("unknown method %q", method)
	}
}

func notFoundErr(name string) error {
	return &Error{Code: "not_found", Message: fmt.Sprintf("no such session %q", name)}
}

// Error is a typed, API-contract error (spec.md §7 "stable code, human
// message"); transports serialize it as {code, message}.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func sessionSummary(name string, s *session.Session) map[string]any {
	cols, rows := s.Dims()
	exited, _ := s.Exited()
	return map[string]any{
		"name":   name,
		"cols":   cols,
		"rows":   rows,
		"idle":   session.FormatIdleDuration(s.IdleDuration()),
		"status": sessionStatus(s, exited),
	}
}

func sessionStatus(s *session.Session, exited bool) string {
	if exited {
		return "exited"
	}
	if s.IdleDuration() >= s.IdleWindow() {
		return "quiescent"
	}
	return "running"
}

// Session dispatches session-scoped methods, issued over a session socket
// after attach (spec.md §6 method table, session-scoped rows).
type Session struct {
	S *session.Session
}

// Dispatch runs method against the attached session.
func (d *Session) Dispatch(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "send_input":
		var p struct {
			Data     string `json:"data"`
			Encoding string `json:"encoding"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		data, err := decodeInput(p.Data, p.Encoding)
		if err != nil {
			return nil, err
		}
		if err := d.S.Input(data); err != nil {
			return nil, err
		}
		return map[string]any{"bytes": len(data)}, nil

	case "run_command":
		var p struct {
			Input     string `json:"input"`
			Encoding  string `json:"encoding"`
			TimeoutMS int    `json:"timeout_ms"`
			MaxWaitMS int    `json:"max_wait_ms"`
			Format    string `json:"format"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		data, err := decodeInput(p.Input, p.Encoding)
		if err != nil {
			return nil, err
		}
		runCtx, cancel := withMaxWait(ctx, p.MaxWaitMS)
		defer cancel()
		generation, timedOut, err := d.S.RunCommand(runCtx, data, msToDuration(p.TimeoutMS))
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"screen":     screenResult(d.S.ScreenInfo(), p.Format),
			"generation": generation,
			"timed_out":  timedOut,
		}, nil

	case "await_quiesce":
		var p struct {
			TimeoutMS int `json:"timeout_ms"`
			MaxWaitMS int `json:"max_wait_ms"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		waitCtx, cancel := withMaxWait(ctx, p.MaxWaitMS)
		defer cancel()
		generation, timedOut, err := d.S.AwaitQuiesce(waitCtx, msToDuration(p.TimeoutMS))
		if err != nil {
			return nil, err
		}
		return map[string]any{"generation": generation, "timed_out": timedOut}, nil

	case "resize":
		var p struct {
			Cols int `json:"cols"`
			Rows int `json:"rows"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		if err := d.S.Resize(p.Cols, p.Rows); err != nil {
			return nil, &Error{Code: "panels_exceed_rows", Message: err.Error()}
		}
		return map[string]any{}, nil

	case "get_screen":
		var p struct {
			Format string `json:"format"`
		}
		json.Unmarshal(params, &p)
		return screenResult(d.S.ScreenInfo(), p.Format), nil

	case "get_scrollback":
		var p struct {
			Offset int    `json:"offset"`
			Limit  int    `json:"limit"`
			Format string `json:"format"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		lines := d.S.Scrollback(p.Offset, p.Limit)
		return map[string]any{
			"lines":            linesResult(lines, p.Format),
			"first_line_index": d.S.ScreenInfo().FirstLineIndex,
			"total":            len(lines),
		}, nil

	case "overlay":
		return dispatchElement(d.S, params, true)

	case "panel":
		return dispatchElement(d.S, params, false)

	case "input_mode":
		return dispatchInputMode(d.S, params)

	case "screen_mode":
		var p struct {
			Action string `json:"action"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		switch p.Action {
		case "enter_alt":
			d.S.SetScreenMode(true)
		case "exit_alt":
			d.S.SetScreenMode(false)
		}
		mode := "normal"
		if d.S.ScreenInfo().AlternateActive {
			mode = "alt"
		}
		return map[string]any{"mode": mode}, nil

	case "subscribe":
		// Wire framing (which events a connection receives, in which
		// format) is handled by the transport layer that owns the
		// connection's outbox; nothing session-side to do here beyond
		// acknowledging the request.
		return map[string]any{}, nil

	default:
		return nil, fmt.Errorf("unknown method %q", method)
	}
}

func withMaxWait(ctx context.Context, maxWaitMS int) (context.Context, context.CancelFunc) {
	if maxWaitMS <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(maxWaitMS)*time.Millisecond)
}

func msToDuration(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

func decodeInput(data, encoding string) ([]byte, error) {
	if encoding == "base64" {
		return base64.StdEncoding.DecodeString(data)
	}
	return []byte(data), nil
}

func screenResult(v session.ScreenView, format string) map[string]any {
	return map[string]any{
		"cols":             v.Cols,
		"rows":             v.Rows,
		"cursor":           map[string]any{"row": v.CursorRow, "col": v.CursorCol, "visible": v.CursorVisible},
		"lines":            linesResult(v.Lines, format),
		"first_line_index": v.FirstLineIndex,
		"alternate_active": v.AlternateActive,
	}
}

// linesResult renders lines as plain strings ("plain", the default) or as
// styled spans grouped by run of identical style ("styled"), per the
// `format` param on get_screen/get_scrollback (spec.md §6).
func linesResult(lines []cell.Line, format string) any {
	if format != "styled" {
		out := make([]string, len(lines))
		for i, l := range lines {
			out[i] = l.Plain()
		}
		return out
	}
	out := make([]any, len(lines))
	for i, l := range lines {
		out[i] = styledRuns(l)
	}
	return out
}

type styledRun struct {
	Text  string     `json:"text"`
	Style cell.Style `json:"style"`
}

func styledRuns(l cell.Line) []styledRun {
	var runs []styledRun
	for _, c := range l.Cells {
		if c.IsWideTail() {
			continue
		}
		if len(runs) > 0 && runs[len(runs)-1].Style == c.Style {
			runs[len(runs)-1].Text += c.Grapheme
			continue
		}
		runs = append(runs, styledRun{Text: c.Grapheme, Style: c.Style})
	}
	return runs
}

// parseColor turns an overlay/panel wire protocol background string into a
// cell.Color: "#rrggbb" for truecolor, a bare 0-255 integer for a 256-palette
// index, falling back to the implicit default for anything else.
func parseColor(s string) cell.Color {
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		var r, g, b uint8
		if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err == nil {
			return cell.TrueColor(r, g, b)
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= 255 {
		return cell.Indexed256(uint8(n))
	}
	return cell.Default
}

func dispatchElement(s *session.Session, params json.RawMessage, overlay bool) (any, error) {
	var p struct {
		Action     string  `json:"action"`
		ID         string  `json:"id"`
		X          int     `json:"x"`
		Y          int     `json:"y"`
		Width      int     `json:"width"`
		Height     int     `json:"height"`
		Edge       string  `json:"edge"`
		Focusable  bool    `json:"focusable"`
		Background *string `json:"background"`
		Span       *struct {
			Name string `json:"name"`
			Row  int    `json:"row"`
			Col  int    `json:"col"`
			Text string `json:"text"`
		} `json:"span"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	notFoundCode := "overlay_not_found"
	if !overlay {
		notFoundCode = "panel_not_found"
	}

	switch p.Action {
	case "create":
		var bg *cell.Color
		if p.Background != nil {
			c := parseColor(*p.Background)
			bg = &c
		}
		if overlay {
			id := s.AddOverlay(p.X, p.Y, p.Width, p.Height, bg, p.Focusable, screen.ModeNormal)
			return map[string]any{"id": id.String()}, nil
		}
		edge := compositor.EdgeTop
		if p.Edge == "bottom" {
			edge = compositor.EdgeBottom
		}
		id, err := s.AddPanel(edge, p.Height, bg, screen.ModeNormal)
		if err != nil {
			return nil, &Error{Code: "panels_exceed_rows", Message: err.Error()}
		}
		return map[string]any{"id": id.String()}, nil

	case "update":
		id, err := uuid.Parse(p.ID)
		if err != nil || p.Span == nil {
			return nil, &Error{Code: notFoundCode, Message: "invalid or missing span"}
		}
		if err := s.UpdateSpan(id, compositor.Span{
			Name: p.Span.Name, Row: p.Span.Row, Col: p.Span.Col, Text: p.Span.Text, Style: cell.DefaultStyle,
		}); err != nil {
			return nil, &Error{Code: notFoundCode, Message: err.Error()}
		}
		return map[string]any{}, nil

	case "remove":
		id, err := uuid.Parse(p.ID)
		if err != nil {
			return nil, &Error{Code: notFoundCode, Message: "invalid id"}
		}
		if overlay {
			if err := s.RemoveOverlay(id); err != nil {
				return nil, &Error{Code: notFoundCode, Message: err.Error()}
			}
		} else {
			if err := s.RemovePanel(id); err != nil {
				return nil, &Error{Code: notFoundCode, Message: err.Error()}
			}
		}
		return map[string]any{}, nil

	case "list", "":
		if overlay {
			out := make([]map[string]any, 0)
			for _, o := range s.ListOverlays() {
				out = append(out, map[string]any{
					"id": o.ID.String(), "x": o.X, "y": o.Y, "width": o.Width, "height": o.Height,
					"focusable": o.Focusable,
				})
			}
			return out, nil
		}
		out := make([]map[string]any, 0)
		for _, pnl := range s.ListPanels() {
			edge := "top"
			if pnl.Position == compositor.EdgeBottom {
				edge = "bottom"
			}
			out = append(out, map[string]any{
				"id": pnl.ID.String(), "edge": edge, "height": pnl.Height, "focusable": pnl.Focusable,
			})
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown %s action %q", map[bool]string{true: "overlay", false: "panel"}[overlay], p.Action)
	}
}

func dispatchInputMode(s *session.Session, params json.RawMessage) (any, error) {
	var p struct {
		Mode    string `json:"mode"`
		Focus   string `json:"focus"`
		Unfocus bool   `json:"unfocus"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	if p.Unfocus {
		mode, _, _ := s.CaptureInfo()
		if err := s.SetCapture(mode, uuid.Nil); err != nil {
			return nil, err
		}
	}

	if p.Mode != "" {
		mode := compositor.CapturePassthrough
		switch p.Mode {
		case "capture":
			mode = compositor.CaptureAll
		case "capture_focused":
			mode = compositor.CaptureFocused
		}
		focusID := uuid.Nil
		if p.Focus != "" {
			id, err := uuid.Parse(p.Focus)
			if err != nil {
				return nil, &Error{Code: "focus_not_focusable", Message: "invalid focus id"}
			}
			focusID = id
			mode = compositor.CaptureFocused
		}
		if err := s.SetCapture(mode, focusID); err != nil {
			return nil, &Error{Code: "focus_not_focusable", Message: err.Error()}
		}
	} else if p.Focus != "" {
		id, err := uuid.Parse(p.Focus)
		if err != nil {
			return nil, &Error{Code: "focus_not_focusable", Message: "invalid focus id"}
		}
		if err := s.SetCapture(compositor.CaptureFocused, id); err != nil {
			return nil, err
		}
	}

	mode, focusID, hasFocus := s.CaptureInfo()
	result := map[string]any{"mode": captureModeName(mode)}
	if hasFocus {
		result["focus"] = focusID.String()
	} else {
		result["focus"] = nil
	}
	return result, nil
}

func captureModeName(m compositor.CaptureMode) string {
	switch m {
	case compositor.CaptureAll:
		return "capture"
	case compositor.CaptureFocused:
		return "capture_focused"
	default:
		return "passthrough"
	}
}
