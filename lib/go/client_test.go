package luaclient

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/luacell/luacell/internal/config"
	"github.com/luacell/luacell/internal/server"
	"github.com/luacell/luacell/value"
)

// startServer runs a server on an ephemeral port and returns its
// WebSocket URL.
func startServer(t *testing.T) string {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.Port = 0
	s := server.New(cfg)
	if err := s.StartHTTP(); err != nil {
		t.Fatalf("starting server: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return "ws://" + cfg.Addr() + "/ws"
}

func connect(t *testing.T, url string) *Connection {
	t.Helper()
	c := NewConnection()
	if err := c.Connect(url); err != nil {
		t.Fatalf("connecting to %s: %v", url, err)
	}
	t.Cleanup(func() { c.Disconnect() })
	return c
}

// TestRunCode verifies evaluation with session state across requests.
func TestRunCode(t *testing.T) {
	url := startServer(t)
	c := connect(t, url)

	result, err := c.RunCode("x = 40\nx + 2")
	if err != nil {
		t.Fatalf("RunCode: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("errors = %v, want none", result.Errors)
	}
	if result.Output == nil || result.Output.Content != "42" {
		t.Fatalf("output = %+v, want content 42", result.Output)
	}

	result, err = c.RunCode("x")
	if err != nil {
		t.Fatalf("RunCode: %v", err)
	}
	if result.Output == nil || result.Output.Content != "40" {
		t.Fatalf("session output = %+v, want content 40", result.Output)
	}
}

// TestRunCodeErrors verifies statement errors ride inside the result.
func TestRunCodeErrors(t *testing.T) {
	url := startServer(t)
	c := connect(t, url)

	result, err := c.RunCode("boom()\n2")
	if err != nil {
		t.Fatalf("RunCode: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want one entry", result.Errors)
	}
	if result.Errors[0].Line != 1 {
		t.Errorf("error line = %d, want 1", result.Errors[0].Line)
	}
	if result.Output == nil || result.Output.Content != "2" {
		t.Fatalf("output = %+v, want content 2", result.Output)
	}
}

// TestCallCode verifies packed inputs reach the call scope.
func TestCallCode(t *testing.T) {
	url := startServer(t)
	c := connect(t, url)

	x, err := value.Pack(int64(6), nil)
	if err != nil {
		t.Fatalf("packing x: %v", err)
	}
	y, err := value.Pack(int64(7), nil)
	if err != nil {
		t.Fatalf("packing y: %v", err)
	}

	result, err := c.CallCode("x * y", map[string]*value.Value{"x": x, "y": y}, false)
	if err != nil {
		t.Fatalf("CallCode: %v", err)
	}
	if result.Output == nil || result.Output.Content != "42" {
		t.Fatalf("output = %+v, want content 42", result.Output)
	}
}

// TestCallCodeBadInput verifies protocol errors surface as Go errors.
func TestCallCodeBadInput(t *testing.T) {
	url := startServer(t)
	c := connect(t, url)

	bad := &value.Value{Type: value.TagInt, Format: value.FormatText, Content: "abc"}
	_, err := c.CallCode("x", map[string]*value.Value{"x": bad}, false)
	if err == nil {
		t.Fatal("expected error for malformed input")
	}
	if !strings.Contains(err.Error(), "unpack_error") {
		t.Errorf("error = %v, want unpack_error code", err)
	}
}

// TestCodeDependencies verifies the name listing round trip.
func TestCodeDependencies(t *testing.T) {
	url := startServer(t)
	c := connect(t, url)

	names, err := c.CodeDependencies("f(x) + 1")
	if err != nil {
		t.Fatalf("CodeDependencies: %v", err)
	}
	if len(names) != 2 || names[0] != "f" || names[1] != "x" {
		t.Errorf("names = %v, want [f x]", names)
	}
}

// TestPing verifies the liveness round trip.
func TestPing(t *testing.T) {
	url := startServer(t)
	c := connect(t, url)

	if err := c.Ping(); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

// TestDisconnectedSend verifies sends fail after disconnect.
func TestDisconnectedSend(t *testing.T) {
	url := startServer(t)
	c := connect(t, url)

	if err := c.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if _, err := c.RunCode("1"); err == nil {
		t.Error("expected error after disconnect")
	}
}

// TestOnClose verifies the close callback fires once.
func TestOnClose(t *testing.T) {
	url := startServer(t)
	c := connect(t, url)

	calls := 0
	c.OnClose(func() { calls++ })

	c.Disconnect()
	c.Disconnect()
	if calls != 1 {
		t.Errorf("close callbacks = %d, want 1", calls)
	}
}
