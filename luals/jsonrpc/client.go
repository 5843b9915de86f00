package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// Client sends messages to the other end of a connection being served by [Serve].
type Client struct {
	server *server
}

func newClient(server *server) *Client {
	return &Client{server: server}
}

// Notify sends a notification.
func (c *Client) Notify(method string, params any) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("sending %q notification: marshalling parameters to JSON: %s", method, err)
	}
	rawParams := json.RawMessage(data)
	notif := &notification{
		JSONRPC: validJSONRPC,
		Method:  method,
		Params:  &rawParams,
	}
	if err := c.server.write(notif); err != nil {
		return fmt.Errorf("sending %q notification: %s", method, err)
	}
	return nil
}
