// Package eventbus defines the event envelope and the bounded, coalescing
// fan-out bus used to stream session and hub events to attached clients
// (spec.md §5 "Event stream").
package eventbus

// Kind names an event's type, matching spec.md §5's event list.
type Kind string

const (
	KindScreenDelta        Kind = "screen_delta"
	KindQuiescent          Kind = "quiescent"
	KindSessionCreated     Kind = "session_created"
	KindSessionDestroyed   Kind = "session_destroyed"
	KindSessionRenamed     Kind = "session_renamed"
	KindCapturedInput      Kind = "captured_input"
	KindInputModeChanged   Kind = "input_mode_changed"
	KindScreenModeChanged  Kind = "screen_mode_changed"
	KindTitleChanged       Kind = "title_changed"
	KindClipboard          Kind = "clipboard"
	KindLag                Kind = "lag"
)

// Event is the envelope delivered to subscribers. Session names the session
// the event concerns; it is empty for session_renamed, whose old and new
// names travel in the payload. Generation is the session's mutation
// counter at the time of publish, 0 for hub-scoped events.
type Event struct {
	Kind       Kind
	Session    string
	Generation uint64
	Payload    any
}

// ScreenDeltaPayload carries the indices of the rows that changed, so a
// subscriber can coalesce consecutive deltas by taking the union of their
// rows (spec.md §5 "Delta coalescing").
type ScreenDeltaPayload struct {
	Rows []int
}

// LagPayload reports how many events were dropped from a subscriber's
// outbox because it could not keep up (spec.md §5 "lag{dropped}").
type LagPayload struct {
	Dropped int
}

// CapturedInputPayload carries client keystrokes diverted away from the PTY
// by the compositor's input-capture mode (spec.md §4.3).
type CapturedInputPayload struct {
	Data []byte
}

// SessionRenamedPayload carries the old and new session names.
type SessionRenamedPayload struct {
	OldName string
	NewName string
}

// TitleChangedPayload carries a window-title update from OSC 0/2.
type TitleChangedPayload struct {
	Title string
}

// ClipboardPayload carries an OSC 52 clipboard write for a client to relay
// to the user's real local terminal (spec.md §6 "OSC 52").
type ClipboardPayload struct {
	Selection string
	Data      []byte
}

// SessionDestroyedPayload carries the reaped child's exit status: its exit
// code, or the signal number that terminated it (spec.md §6
// "session_destroyed{name, exit_code?}"; §8 scenario 5 "exit_code:15 or
// signal").
type SessionDestroyedPayload struct {
	ExitCode int
}
