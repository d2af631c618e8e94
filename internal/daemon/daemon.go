// Package daemon wires the hub and per-session actors to Unix domain
// sockets: one control socket for hub operations, and one socket per live
// session opened the moment it's created and removed when it exits (spec.md
// §5 "Transport").
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/dcosson/wshd/internal/config"
	"github.com/dcosson/wshd/internal/dispatcher"
	"github.com/dcosson/wshd/internal/eventbus"
	"github.com/dcosson/wshd/internal/hub"
	"github.com/dcosson/wshd/internal/socketdir"
	"github.com/dcosson/wshd/internal/transport"
	"github.com/dcosson/wshd/internal/wlog"
)

// Daemon owns the control listener and every session listener derived from
// sessions created through it.
type Daemon struct {
	Hub *hub.Hub
	log *slog.Logger

	controlLn net.Listener

	mu        sync.Mutex
	sessionLn map[string]net.Listener
}

// New creates a daemon bound to the control socket, removing a stale one
// left behind by a crashed process (spec.md's dial-then-remove pattern).
func New(cfg *config.Config, log *slog.Logger) (*Daemon, error) {
	if log == nil {
		log = wlog.Default
	}
	if err := os.MkdirAll(socketdir.Dir(), 0o700); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	path := socketdir.Path(socketdir.TypeControl, "hub")
	if err := removeIfStale(path); err != nil {
		return nil, err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen control socket: %w", err)
	}
	d := &Daemon{
		Hub:       hub.New(cfg),
		log:       log,
		controlLn: ln,
		sessionLn: make(map[string]net.Listener),
	}
	return d, nil
}

func removeIfStale(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	conn, err := net.DialTimeout("unix", path, 500*time.Millisecond)
	if err == nil {
		conn.Close()
		return fmt.Errorf("a daemon is already listening on %s", path)
	}
	return os.Remove(path)
}

// Serve accepts control connections until ctx is canceled, then tears down
// every listener and socket file.
func (d *Daemon) Serve(ctx context.Context) error {
	go d.acceptLoop(d.controlLn, d.handleControl)
	hubSub := d.Hub.Subscribe(64)
	go d.watchHubEvents(ctx, hubSub)

	<-ctx.Done()
	d.Hub.Unsubscribe(hubSub)
	d.controlLn.Close()
	os.Remove(socketdir.Path(socketdir.TypeControl, "hub"))

	d.mu.Lock()
	for name, ln := range d.sessionLn {
		ln.Close()
		os.Remove(socketdir.Path(socketdir.TypeSession, name))
	}
	d.mu.Unlock()
	return nil
}

func (d *Daemon) acceptLoop(ln net.Listener, handle func(net.Conn)) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go handle(conn)
	}
}

func (d *Daemon) handleControl(conn net.Conn) {
	defer conn.Close()
	tc := transport.NewConn(conn)
	ctrl := &dispatcher.Control{Hub: d.Hub}
	for {
		req, err := tc.ReadRequest()
		if err != nil {
			return
		}
		result, err := ctrl.Dispatch(req.Method, req.Params)
		if err == nil && req.Method == "create_session" {
			var p struct {
				Name string `json:"name"`
			}
			json.Unmarshal(req.Params, &p)
			if lnErr := d.listenSession(p.Name); lnErr != nil {
				d.log.Error("listen session socket", "session", p.Name, "err", lnErr)
			}
		}
		respond(tc, req.ID, result, err)
	}
}

// listenSession opens the Unix socket a client dials to attach to name.
func (d *Daemon) listenSession(name string) error {
	path := socketdir.Path(socketdir.TypeSession, name)
	if err := removeIfStale(path); err != nil {
		return err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.sessionLn[name] = ln
	d.mu.Unlock()
	go d.acceptLoop(ln, func(conn net.Conn) { d.handleSession(name, conn) })
	return nil
}

func (d *Daemon) handleSession(name string, conn net.Conn) {
	defer conn.Close()
	s, ok := d.Hub.Get(name)
	if !ok {
		return
	}
	tc := transport.NewConn(conn)
	sd := &dispatcher.Session{S: s}

	sub := s.Subscribe(0)
	defer s.Unsubscribe(sub)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go streamEvents(ctx, tc, sub)

	for {
		req, err := tc.ReadRequest()
		if err != nil {
			return
		}
		result, dispatchErr := sd.Dispatch(ctx, req.Method, req.Params)
		respond(tc, req.ID, result, dispatchErr)
	}
}

func streamEvents(ctx context.Context, tc *transport.Conn, sub *eventbus.Subscriber) {
	for {
		e, ok := sub.Next(ctx)
		if !ok {
			return
		}
		payload, _ := json.Marshal(e.Payload)
		if err := tc.WriteEvent(transport.EventFrame{
			Kind: string(e.Kind), Session: e.Session, Generation: e.Generation, Payload: payload,
		}); err != nil {
			return
		}
	}
}

// watchHubEvents closes and removes a session's socket once it's destroyed.
func (d *Daemon) watchHubEvents(ctx context.Context, sub *eventbus.Subscriber) {
	for {
		e, ok := sub.Next(ctx)
		if !ok {
			return
		}
		if e.Kind != eventbus.KindSessionDestroyed {
			continue
		}
		d.mu.Lock()
		ln, exists := d.sessionLn[e.Session]
		if exists {
			delete(d.sessionLn, e.Session)
		}
		d.mu.Unlock()
		if exists {
			ln.Close()
			os.Remove(socketdir.Path(socketdir.TypeSession, e.Session))
		}
	}
}

func respond(tc *transport.Conn, id uint64, result any, err error) {
	resp := transport.Response{ID: id}
	if err != nil {
		code := "error"
		if de, ok := err.(*dispatcher.Error); ok {
			code = de.Code
		}
		resp.Error = &transport.ErrorObject{Code: code, Message: err.Error()}
	} else if result != nil {
		data, merr := json.Marshal(result)
		if merr != nil {
			resp.Error = &transport.ErrorObject{Code: "error", Message: merr.Error()}
		} else {
			resp.Result = data
		}
	}
	tc.WriteResponse(resp)
}
