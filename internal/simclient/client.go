// Package simclient drives a quest server over WebSocket the way a game simulator does.
package simclient

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/paniker63/the-tale/internal/server"
	"github.com/paniker63/the-tale/internal/world"
)

// DefaultTimeout bounds the wait for each response.
const DefaultTimeout = 5 * time.Second

// Client is one simulator connection.
type Client struct {
	Name    string
	Timeout time.Duration

	conn *websocket.Conn
	mu   sync.Mutex // One request in flight at a time
}

// Dial connects to the server's WebSocket endpoint, e.g. ws://localhost:4000/ws.
func Dial(name, url string, header http.Header) (*Client, error) {
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return &Client{Name: name, Timeout: DefaultTimeout, conn: conn}, nil
}

// Do sends req and waits for the response. A response carrying an error is returned
// as a *ResponseError.
func (c *Client) Do(req server.Request) (*server.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", req.Op, err)
	}
	c.conn.SetReadDeadline(time.Now().Add(c.Timeout))

	var resp server.Response
	if err := c.conn.ReadJSON(&resp); err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", req.Op, err)
	}
	if resp.Error != "" {
		return &resp, &ResponseError{Op: req.Op, Message: resp.Error}
	}
	return &resp, nil
}

// ResponseError is an error reported by the server.
type ResponseError struct {
	Op      string
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Generate asks for a new quest for the hero.
func (c *Client) Generate(heroID, seed int64, facts world.HeroFacts, kind string) (*server.Response, error) {
	return c.Do(server.Request{Op: server.OpGenerate, HeroID: heroID, Seed: seed, Facts: facts, Kind: kind})
}

// Show returns the hero's stored quest.
func (c *Client) Show(heroID int64) (*server.Response, error) {
	return c.Do(server.Request{Op: server.OpShow, HeroID: heroID})
}

// Step executes the hero's current quest command.
func (c *Client) Step(heroID int64) (*server.Response, error) {
	return c.Do(server.Request{Op: server.OpStep, HeroID: heroID})
}

// Abandon drops the hero's quest.
func (c *Client) Abandon(heroID int64) (*server.Response, error) {
	return c.Do(server.Request{Op: server.OpAbandon, HeroID: heroID})
}

// Play steps the hero's quest until it is done and returns the narrated steps.
// maxSteps guards against a quest that never ends.
func (c *Client) Play(heroID int64, maxSteps int) ([]string, error) {
	var lines []string
	for i := 0; i < maxSteps; i++ {
		resp, err := c.Step(heroID)
		if err != nil {
			return lines, err
		}
		lines = append(lines, resp.Step)
		if resp.Done {
			return lines, nil
		}
	}
	return lines, fmt.Errorf("quest of hero %d not done after %d steps", heroID, maxSteps)
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
