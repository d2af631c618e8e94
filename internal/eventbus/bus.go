package eventbus

import (
	"context"
	"sync"
)

// DefaultOutboxCapacity is the default bound on a subscriber's pending-event
// queue before events start being dropped (spec.md §5 "bounded outboxes").
const DefaultOutboxCapacity = 256

// Bus fans events out to subscribers, each with its own bounded, coalescing
// outbox so one slow client can't block another or the publisher.
type Bus struct {
	mu   sync.Mutex
	subs map[int]*Subscriber
	next int
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[int]*Subscriber)}
}

// Subscribe registers a new subscriber with the given outbox capacity (0
// uses DefaultOutboxCapacity) and returns it. Callers must Unsubscribe when
// done.
func (b *Bus) Subscribe(capacity int) *Subscriber {
	if capacity <= 0 {
		capacity = DefaultOutboxCapacity
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &Subscriber{id: b.next, cap: capacity, signal: make(chan struct{}, 1)}
	b.subs[s.id] = s
	b.next++
	return s
}

// Unsubscribe removes a subscriber; its outbox is discarded.
func (b *Bus) Unsubscribe(s *Subscriber) {
	b.mu.Lock()
	delete(b.subs, s.id)
	b.mu.Unlock()
	s.close()
}

// Publish delivers e to every current subscriber's outbox.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	subs := make([]*Subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()
	for _, s := range subs {
		s.push(e)
	}
}

// Subscriber is one consumer's bounded, coalescing event queue.
type Subscriber struct {
	id     int
	mu     sync.Mutex
	queue  []Event
	cap    int
	dropped int
	signal chan struct{}
	closed bool
}

func (s *Subscriber) push(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if e.Kind == KindScreenDelta && len(s.queue) > 0 {
		last := &s.queue[len(s.queue)-1]
		if last.Kind == KindScreenDelta && last.Session == e.Session {
			last.Generation = e.Generation
			last.Payload = mergeScreenDelta(last.Payload, e.Payload)
			s.wake()
			return
		}
	}
	if len(s.queue) >= s.cap {
		if i := s.victimIndex(); i >= 0 {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			s.dropped++
		}
		// else: every queued event is lifecycle/quiescence and must be
		// retained (spec.md §4.4); let the queue grow by one rather than
		// drop one of them.
	}
	s.queue = append(s.queue, e)
	s.wake()
}

// victimIndex returns the index of the oldest droppable event in the
// queue — the first one that isn't lifecycle or quiescence — or -1 if every
// queued event must be retained (spec.md §4.4 "lifecycle and quiescence
// events are retained... the oldest non-lifecycle event is dropped").
func (s *Subscriber) victimIndex() int {
	for i, e := range s.queue {
		if !isRetainedKind(e.Kind) {
			return i
		}
	}
	return -1
}

func isRetainedKind(k Kind) bool {
	switch k {
	case KindSessionCreated, KindSessionDestroyed, KindSessionRenamed, KindQuiescent:
		return true
	default:
		return false
	}
}

func mergeScreenDelta(prev, next any) any {
	p, ok1 := prev.(ScreenDeltaPayload)
	n, ok2 := next.(ScreenDeltaPayload)
	if !ok1 || !ok2 {
		return next
	}
	seen := make(map[int]struct{}, len(p.Rows)+len(n.Rows))
	rows := make([]int, 0, len(p.Rows)+len(n.Rows))
	for _, r := range p.Rows {
		if _, ok := seen[r]; !ok {
			seen[r] = struct{}{}
			rows = append(rows, r)
		}
	}
	for _, r := range n.Rows {
		if _, ok := seen[r]; !ok {
			seen[r] = struct{}{}
			rows = append(rows, r)
		}
	}
	return ScreenDeltaPayload{Rows: rows}
}

func (s *Subscriber) wake() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Subscriber) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wake()
}

// Next blocks until an event is available, the context is canceled, or the
// subscriber is unsubscribed (returns false). A pending lag counter is
// surfaced as a synthetic KindLag event before any queued event it preceded.
func (s *Subscriber) Next(ctx context.Context) (Event, bool) {
	for {
		if e, ok := s.tryPop(); ok {
			return e, true
		}
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return Event{}, false
		}
		select {
		case <-s.signal:
		case <-ctx.Done():
			return Event{}, false
		}
	}
}

func (s *Subscriber) tryPop() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropped > 0 {
		d := s.dropped
		s.dropped = 0
		return Event{Kind: KindLag, Payload: LagPayload{Dropped: d}}, true
	}
	if len(s.queue) == 0 {
		return Event{}, false
	}
	e := s.queue[0]
	s.queue = s.queue[1:]
	return e, true
}
