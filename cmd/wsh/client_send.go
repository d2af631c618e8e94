package main

import (
	"encoding/json"

	"github.com/dcosson/wshd/internal/transport"
)

// send writes a request without waiting for its response, for input
// forwarding where keystroke latency matters more than the ack.
func (c *client) send(method string, params any) error {
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return c.tc.WriteRequest(transport.Request{ID: 0, Method: method, Params: data})
}
