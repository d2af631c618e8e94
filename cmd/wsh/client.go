package main

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/dcosson/wshd/internal/transport"
)

// client is a synchronous call()-capable wrapper over one transport.Conn,
// demultiplexing responses by request ID while forwarding event frames to
// Events for the caller to consume separately.
type client struct {
	conn   net.Conn
	tc     *transport.Conn
	Events chan transport.EventFrame

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan transport.Response
}

func dial(path string) (*client, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}
	c := &client{
		conn:    conn,
		tc:      transport.NewConn(conn),
		Events:  make(chan transport.EventFrame, 64),
		pending: make(map[uint64]chan transport.Response),
	}
	go c.readLoop()
	return c, nil
}

func (c *client) readLoop() {
	defer close(c.Events)
	for {
		line, err := c.tc.ReadLine()
		if err != nil {
			return
		}
		var probe struct {
			ID uint64 `json:"id"`
		}
		if json.Unmarshal(line, &probe) == nil && probe.ID != 0 {
			var resp transport.Response
			if json.Unmarshal(line, &resp) != nil {
				continue
			}
			c.mu.Lock()
			ch, ok := c.pending[resp.ID]
			if ok {
				delete(c.pending, resp.ID)
			}
			c.mu.Unlock()
			if ok {
				ch <- resp
			}
			continue
		}
		var ev transport.EventFrame
		if json.Unmarshal(line, &ev) == nil {
			select {
			case c.Events <- ev:
			default:
			}
		}
	}
}

// call sends method/params and blocks for the matching response.
func (c *client) call(method string, params any) (json.RawMessage, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	ch := make(chan transport.Response, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.tc.WriteRequest(transport.Request{ID: id, Method: method, Params: data}); err != nil {
		return nil, err
	}
	resp := <-ch
	if resp.Error != nil {
		return nil, fmt.Errorf("%s: %s", resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

func (c *client) Close() error {
	return c.conn.Close()
}
