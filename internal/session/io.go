package session

import (
	"time"

	"github.com/dcosson/wshd/internal/eventbus"
)

// applyOutput feeds PTY bytes through the parser, publishes a coalesced
// screen-delta event if anything changed, and resets the idle timer. Runs
// only on the actor goroutine.
func (s *Session) applyOutput(data []byte) {
	s.parser.Feed(data)
	s.lastOutput = time.Now()
	if s.engine.Mutated() {
		s.bumpGeneration()
		if rows := s.engine.TakeDirty(); len(rows) > 0 {
			s.bus.Publish(eventbus.Event{
				Kind:       eventbus.KindScreenDelta,
				Session:    s.Name,
				Generation: s.generation,
				Payload:    eventbus.ScreenDeltaPayload{Rows: rows},
			})
		}
	}
	s.armIdleTimer()
}

// armIdleTimer (re)schedules the quiescence check for idleWindow from now.
func (s *Session) armIdleTimer() {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleTimer = time.AfterFunc(s.idleWindow, func() {
		s.submitAsync(s.fireQuiescent)
	})
}

// fireQuiescent runs on the actor goroutine when idleWindow has elapsed
// with no further PTY output: it publishes the quiescent event and wakes
// every await_quiesce waiter (spec.md §4.4).
func (s *Session) fireQuiescent() {
	if time.Since(s.lastOutput) < s.idleWindow {
		return // output arrived after the timer fired but before this ran
	}
	s.bus.Publish(eventbus.Event{Kind: eventbus.KindQuiescent, Session: s.Name, Generation: s.generation})
	for _, ch := range s.quiesceWaiters {
		close(ch)
	}
	s.quiesceWaiters = nil
}

// onChildExit records the child's exit and publishes session_destroyed so
// attached clients learn the PTY is gone (the hub removes the name-map
// entry separately once it observes Exited()).
func (s *Session) onChildExit(err error) {
	if s.exited {
		return
	}
	s.exited = true
	s.exitErr = err
	s.bus.Publish(eventbus.Event{
		Kind: eventbus.KindSessionDestroyed, Session: s.Name, Generation: s.generation,
		Payload: eventbus.SessionDestroyedPayload{ExitCode: ExitCode(err)},
	})
	for _, ch := range s.exitNotify {
		close(ch)
	}
	s.exitNotify = nil
	for _, ch := range s.quiesceWaiters {
		close(ch) // an exited child can never produce more output: unblock waiters
	}
	s.quiesceWaiters = nil
}
