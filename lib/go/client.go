// Package luaclient provides a client library for the luacell server.
package luaclient

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/luacell/luacell/value"
)

// Connection represents a connection to a luacell server. Each
// connection owns one evaluation session on the server; session state
// persists until the connection closes.
type Connection struct {
	conn      *websocket.Conn
	connected bool
	nextID    int64
	onClose   func()
	mu        sync.RWMutex
	sendMu    sync.Mutex
}

// Result mirrors the server's evaluation result.
type Result struct {
	Errors []ErrorEntry `json:"errors,omitempty"`
	Output *value.Value `json:"output,omitempty"`
}

// ErrorEntry is one evaluation error attributed to a source line.
type ErrorEntry struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// message is the protocol envelope.
type message struct {
	Type string          `json:"type"`
	ID   json.RawMessage `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wireError is the payload of an error response.
type wireError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// NewConnection creates a new luacell server connection.
func NewConnection() *Connection {
	return &Connection{}
}

// Connect establishes a connection to the server.
// url is the WebSocket endpoint, e.g. ws://127.0.0.1:8080/ws.
func (c *Connection) Connect(url string) error {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	return nil
}

// Disconnect closes the connection. The server destroys the session.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}

	c.connected = false
	if c.onClose != nil {
		c.onClose()
	}

	return c.conn.Close()
}

// IsConnected returns the connection state.
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// OnClose registers a callback for connection close.
func (c *Connection) OnClose(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClose = fn
}

// RunCode evaluates code in the connection's session scope. Statement
// errors ride inside the result; the error return reports transport or
// protocol failures.
func (c *Connection) RunCode(code string) (*Result, error) {
	resp, err := c.send("runCode", map[string]string{"code": code})
	if err != nil {
		return nil, err
	}
	return decodeResult(resp)
}

// CallCode evaluates code as a function body with the given inputs.
// Build inputs with value.Pack. When isolated is true the session scope
// stays hidden from the call.
func (c *Connection) CallCode(code string, inputs map[string]*value.Value, isolated bool) (*Result, error) {
	resp, err := c.send("callCode", map[string]any{
		"code":     code,
		"inputs":   inputs,
		"isolated": isolated,
	})
	if err != nil {
		return nil, err
	}
	return decodeResult(resp)
}

// CodeDependencies reports the identifiers code references, excluding
// built-ins, in first-seen order.
func (c *Connection) CodeDependencies(code string) ([]string, error) {
	resp, err := c.send("codeDependencies", map[string]string{"code": code})
	if err != nil {
		return nil, err
	}
	if resp.Type != "deps" {
		return nil, fmt.Errorf("unexpected response type %q", resp.Type)
	}

	var payload struct {
		Names []string `json:"names"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return nil, fmt.Errorf("decoding deps response: %w", err)
	}
	return payload.Names, nil
}

// Ping checks the connection is alive.
func (c *Connection) Ping() error {
	resp, err := c.send("ping", nil)
	if err != nil {
		return err
	}
	if resp.Type != "pong" {
		return fmt.Errorf("unexpected response type %q", resp.Type)
	}
	return nil
}

// send writes one request and reads its response. Requests are
// serialized: the server answers in order, one response per request.
func (c *Connection) send(typ string, payload any) (*message, error) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.IsConnected() {
		return nil, fmt.Errorf("not connected")
	}

	c.nextID++
	msg := message{
		Type: typ,
		ID:   json.RawMessage(strconv.FormatInt(c.nextID, 10)),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Data = data
	}

	if err := c.conn.WriteJSON(&msg); err != nil {
		return nil, err
	}

	var resp message
	if err := c.conn.ReadJSON(&resp); err != nil {
		return nil, err
	}
	if string(resp.ID) != string(msg.ID) {
		return nil, fmt.Errorf("response id %s does not match request id %s", resp.ID, msg.ID)
	}
	if resp.Type == "error" {
		var e wireError
		if err := json.Unmarshal(resp.Data, &e); err != nil {
			return nil, fmt.Errorf("malformed error response")
		}
		return nil, fmt.Errorf("%s: %s", e.Code, e.Description)
	}

	return &resp, nil
}

func decodeResult(resp *message) (*Result, error) {
	if resp.Type != "result" {
		return nil, fmt.Errorf("unexpected response type %q", resp.Type)
	}
	var result Result
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return &result, nil
}
