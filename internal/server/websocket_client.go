package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketClient carries requests and responses as WebSocket text messages.
type WebSocketClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex // gorilla/websocket allows one concurrent writer
}

// NewWebSocketClient creates a new WebSocketClient from a WebSocket connection.
func NewWebSocketClient(conn *websocket.Conn) *WebSocketClient {
	return &WebSocketClient{conn: conn}
}

// ReadRequest reads the next non-blank message and decodes it as a request.
func (c *WebSocketClient) ReadRequest() (*Request, error) {
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		message = bytes.TrimSpace(message)
		if len(message) == 0 {
			continue
		}

		var req Request
		dec := json.NewDecoder(bytes.NewReader(message))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		return &req, nil
	}
}

// WriteResponse sends resp as one JSON text message.
func (c *WebSocketClient) WriteResponse(resp *Response) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(resp)
}

// Close closes the WebSocket connection.
func (c *WebSocketClient) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote address as a string.
func (c *WebSocketClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
