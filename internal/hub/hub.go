// Package hub implements the daemon's session registry (spec.md §4.4 "Hub
// operations"): creating, listing, finding, renaming, and killing named
// sessions, and fanning out session lifecycle events (session_created/
// destroyed/renamed) independent of any one session's own event bus.
package hub

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/dcosson/wshd/internal/config"
	"github.com/dcosson/wshd/internal/eventbus"
	"github.com/dcosson/wshd/internal/session"
	"github.com/dcosson/wshd/internal/socketdir"
)

// ErrNameInUse is returned by CreateSession/Rename when the requested name
// is already claimed by a live session (spec.md §6 "name_in_use").
var ErrNameInUse = errors.New("hub: session name already in use")

// ErrNotFound is returned by Kill/Rename/Get-adjacent operations when the
// named session isn't registered (spec.md §6 "not_found").
var ErrNotFound = errors.New("hub: no such session")

// Hub owns every live named session in this daemon process.
type Hub struct {
	cfg *config.Config

	mu       sync.Mutex
	sessions map[string]*session.Session

	bus *eventbus.Bus
}

// New returns an empty hub using cfg for session defaults.
func New(cfg *config.Config) *Hub {
	return &Hub{cfg: cfg, sessions: make(map[string]*session.Session), bus: eventbus.New()}
}

// Subscribe returns a subscriber for hub-wide events (session_created,
// session_destroyed, session_renamed).
func (h *Hub) Subscribe(capacity int) *eventbus.Subscriber { return h.bus.Subscribe(capacity) }

// Unsubscribe detaches a hub-event subscriber.
func (h *Hub) Unsubscribe(s *eventbus.Subscriber) { h.bus.Unsubscribe(s) }

// CreateSession claims name (failing if already in use, in-process or via a
// live socket from another daemon instance), launches the command, and
// registers the resulting session actor. The per-directory NameLock
// (spec.md's stale-name race) guards the claim-then-listen window.
func (h *Hub) CreateSession(name, command string, args []string, env map[string]string, cols, rows int) (*session.Session, error) {
	lock, err := socketdir.AcquireNameLock()
	if err != nil {
		return nil, fmt.Errorf("acquire name lock: %w", err)
	}
	defer lock.Release()

	h.mu.Lock()
	_, inProcess := h.sessions[name]
	h.mu.Unlock()
	if inProcess {
		return nil, fmt.Errorf("session %q: %w", name, ErrNameInUse)
	}
	if err := checkStaleSocket(name); err != nil {
		return nil, err
	}

	if command == "" {
		command = h.cfg.Shell()
	}
	if cols <= 0 {
		cols = h.cfg.Cols()
	}
	if rows <= 0 {
		rows = h.cfg.Rows()
	}

	s, err := session.New(session.Spec{
		Name: name, Command: command, Args: args, Env: env,
		Cols: cols, Rows: rows,
		ScrollbackLines: h.cfg.ScrollbackLines,
		IdleWindow:      h.cfg.IdleWindow(),
		OutboxCapacity:  h.cfg.OutboxCapacity,
	})
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.sessions[name] = s
	h.mu.Unlock()

	h.bus.Publish(eventbus.Event{Kind: eventbus.KindSessionCreated, Session: name})
	go h.watchExit(name, s)
	return s, nil
}

// checkStaleSocket dials the session's socket (if a file exists) to tell a
// live daemon-owned session apart from one left behind by a crashed
// process; a stale socket is removed so the name can be reclaimed.
func checkStaleSocket(name string) error {
	path := socketdir.Path(socketdir.TypeSession, name)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	conn, err := net.DialTimeout("unix", path, 500*time.Millisecond)
	if err == nil {
		conn.Close()
		return fmt.Errorf("session %q: %w", name, ErrNameInUse)
	}
	os.Remove(path)
	return nil
}

// watchExit removes a session from the registry once its child process has
// been reaped, then publishes session_destroyed with its exit status
// (spec.md §4.5 "emits session_destroyed after reap"; §6 "exit_code?").
// This is the single place session_destroyed is published on the hub bus,
// whether the child exited on its own or was killed via Kill.
func (h *Hub) watchExit(name string, s *session.Session) {
	for {
		if exited, err := s.Exited(); exited {
			h.mu.Lock()
			delete(h.sessions, name)
			h.mu.Unlock()
			h.bus.Publish(eventbus.Event{
				Kind: eventbus.KindSessionDestroyed, Session: name,
				Payload: eventbus.SessionDestroyedPayload{ExitCode: session.ExitCode(err)},
			})
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// Get returns the named session, or ok=false.
func (h *Hub) Get(name string) (*session.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[name]
	return s, ok
}

// List returns the names of all currently registered sessions.
func (h *Hub) List() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.sessions))
	for name := range h.sessions {
		names = append(names, name)
	}
	return names
}

// Kill terminates the named session (SIGHUP, grace period, then SIGKILL;
// spec.md §4.5), blocking until the child is reaped, then removes it from
// the registry. session_destroyed is published by watchExit, not here, so
// there is exactly one publish per session regardless of how it ended.
func (h *Hub) Kill(name string) error {
	h.mu.Lock()
	s, ok := h.sessions[name]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %q: %w", name, ErrNotFound)
	}
	err := s.Close() // blocks until reaped: SIGHUP, grace period, then SIGKILL
	h.mu.Lock()
	delete(h.sessions, name)
	h.mu.Unlock()
	return err
}

// Rename moves a session from oldName to newName in the registry.
func (h *Hub) Rename(oldName, newName string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[oldName]
	if !ok {
		return fmt.Errorf("session %q: %w", oldName, ErrNotFound)
	}
	if _, exists := h.sessions[newName]; exists {
		return fmt.Errorf("session %q: %w", newName, ErrNameInUse)
	}
	delete(h.sessions, oldName)
	h.sessions[newName] = s
	s.SetName(newName)
	h.bus.Publish(eventbus.Event{
		Kind: eventbus.KindSessionRenamed,
		Payload: eventbus.SessionRenamedPayload{OldName: oldName, NewName: newName},
	})
	return nil
}
