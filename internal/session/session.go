// Package session implements the session actor (spec.md §3 "Session", §4.4
// "Session operations"): one goroutine per running PTY that serializes PTY
// output, client input, and control operations (resize, panels, overlays)
// against a single vtparser.Parser + screen.Engine + compositor.Compositor
// triple, and fans out screen/lifecycle events to subscribers.
package session

import (
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/dcosson/wshd/internal/compositor"
	"github.com/dcosson/wshd/internal/eventbus"
	"github.com/dcosson/wshd/internal/screen"
	"github.com/dcosson/wshd/internal/vtparser"
)

// killGrace is how long Close waits after SIGHUP before escalating to
// SIGKILL (spec.md §4.5 "kill_session... sends SIGHUP, waits up to 500 ms,
// then SIGKILL").
const killGrace = 500 * time.Millisecond

// Spec describes how to launch a new session (spec.md §4.4 "create_session").
type Spec struct {
	Name    string
	Command string
	Args    []string
	Env     map[string]string
	Cols    int
	Rows    int
	// ScrollbackLines overrides the configured default scrollback capacity
	// (0 keeps the configured default).
	ScrollbackLines int
	IdleWindow      time.Duration
	OutboxCapacity  int
}

// Session is one running PTY plus its screen/compositor state. All mutable
// fields are touched only from the actor goroutine (run); exported methods
// cross that boundary via submit/submitAsync.
type Session struct {
	Name    string
	Command string
	Args    []string

	ptm *os.File
	cmd *exec.Cmd

	parser     *vtparser.Parser
	engine     *screen.Engine
	compositor *compositor.Compositor
	bus        *eventbus.Bus

	cols, totalRows int // totalRows includes panel-reserved rows

	generation uint64
	startTime  time.Time
	lastOutput time.Time
	idleWindow time.Duration

	quiesceWaiters []chan struct{}
	idleTimer      *time.Timer

	exited    bool
	exitErr   error
	exitNotify []chan struct{}

	ops      chan func()
	closed   chan struct{}
	waitDone chan struct{} // closed once reapChild's cmd.Wait() has returned
	once     sync.Once
}

// New launches spec's command in a fresh PTY and starts the session's actor
// goroutine and PTY-read pump. The caller must call Close when done.
func New(spec Spec) (*Session, error) {
	if spec.Cols <= 0 {
		spec.Cols = 80
	}
	if spec.Rows <= 0 {
		spec.Rows = 24
	}
	if spec.IdleWindow <= 0 {
		spec.IdleWindow = 300 * time.Millisecond
	}

	s := &Session{
		Name:       spec.Name,
		Command:    spec.Command,
		Args:       spec.Args,
		compositor: compositor.New(),
		bus:        eventbus.New(),
		cols:       spec.Cols,
		totalRows:  spec.Rows,
		startTime:  time.Now(),
		lastOutput: time.Now(),
		idleWindow: spec.IdleWindow,
		ops:        make(chan func(), 64),
		closed:     make(chan struct{}),
		waitDone:   make(chan struct{}),
	}
	s.engine = screen.New(spec.Cols, s.compositor.UsableRows(spec.Rows), spec.ScrollbackLines)
	s.engine.PTYResponse = func(b []byte) { s.writeRaw(b) }
	s.engine.OnTitle = func(title string) {
		s.bus.Publish(eventbus.Event{
			Kind: eventbus.KindTitleChanged, Session: s.Name, Generation: s.generation,
			Payload: eventbus.TitleChangedPayload{Title: title},
		})
	}
	s.engine.OnClipboard = func(selection string, payload []byte) {
		s.bus.Publish(eventbus.Event{
			Kind: eventbus.KindClipboard, Session: s.Name, Generation: s.generation,
			Payload: eventbus.ClipboardPayload{Selection: selection, Data: payload},
		})
	}
	s.parser = vtparser.New(s.engine)

	ptm, cmd, err := startPTY(spec.Command, spec.Args, spec.Cols, s.compositor.UsableRows(spec.Rows), spec.Env)
	if err != nil {
		return nil, err
	}
	s.ptm = ptm
	s.cmd = cmd

	go s.run()
	go s.pumpPTY()
	go s.reapChild()
	return s, nil
}

// submit runs fn on the actor goroutine and waits for it to finish.
func (s *Session) submit(fn func()) {
	done := make(chan struct{})
	select {
	case s.ops <- func() { fn(); close(done) }:
	case <-s.closed:
		return
	}
	select {
	case <-done:
	case <-s.closed:
	}
}

// submitAsync enqueues fn without waiting for it to run (used by timer
// callbacks such as the idle timer and the quiescence-waiter check).
func (s *Session) submitAsync(fn func()) {
	select {
	case s.ops <- fn:
	case <-s.closed:
	}
}

func (s *Session) run() {
	for {
		select {
		case fn := <-s.ops:
			fn()
		case <-s.closed:
			return
		}
	}
}

func (s *Session) pumpPTY() {
	buf := make([]byte, 4096)
	for {
		n, err := s.ptm.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.submit(func() { s.applyOutput(chunk) })
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) reapChild() {
	err := s.cmd.Wait()
	s.submit(func() { s.onChildExit(err) })
	close(s.waitDone)
}

func (s *Session) writeRaw(b []byte) {
	if len(b) == 0 {
		return
	}
	writePTYTimeout(s.ptm, b, 3*time.Second)
}

// Generation returns the session's current mutation counter (spec.md's
// resolved Open Question: any screen-affecting mutation, including
// compositor changes, bumps it).
func (s *Session) Generation() uint64 {
	var g uint64
	s.submit(func() { g = s.generation })
	return g
}

func (s *Session) bumpGeneration() {
	s.generation++
}

// IdleWindow reports the session's configured quiescence idle window.
func (s *Session) IdleWindow() time.Duration { return s.idleWindow }

// IdleDuration reports how long the PTY has produced no output.
func (s *Session) IdleDuration() time.Duration {
	var d time.Duration
	s.submit(func() { d = time.Since(s.lastOutput) })
	return d
}

// Dims returns the session's (cols, totalRows) — totalRows includes any
// panel-reserved rows, matching what a client's terminal should be sized to.
func (s *Session) Dims() (cols, totalRows int) {
	s.submit(func() { cols, totalRows = s.cols, s.totalRows })
	return
}

// SetName updates the session's name (rename_session); subsequent events
// published on its bus carry the new name.
func (s *Session) SetName(name string) {
	s.submit(func() { s.Name = name })
}

// Exited reports whether the child process has exited, and its error if so.
func (s *Session) Exited() (bool, error) {
	var exited bool
	var err error
	s.submit(func() { exited, err = s.exited, s.exitErr })
	return exited, err
}

// Close terminates the child process, if still running, and stops the
// actor goroutine once it's reaped (spec.md §4.5 "kill_session(name): sends
// SIGHUP, waits up to 500 ms, then SIGKILL"). Safe to call more than once.
func (s *Session) Close() error {
	s.once.Do(func() {
		if s.cmd != nil && s.cmd.Process != nil {
			s.cmd.Process.Signal(syscall.SIGHUP)
			select {
			case <-s.waitDone:
			case <-time.After(killGrace):
				s.cmd.Process.Kill()
				<-s.waitDone
			}
		}
		close(s.closed)
	})
	return nil
}
