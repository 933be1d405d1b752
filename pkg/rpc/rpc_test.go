package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

type echoRequest struct {
	Text string `json:"text"`
}

type echoResponse struct {
	Text string `json:"text"`
}

func startServer(t *testing.T) (*Server, string) {
	t.Helper()
	s := NewServer()
	s.Register("Test.Echo", func(ctx context.Context, req json.RawMessage) (any, error) {
		var in echoRequest
		if err := json.Unmarshal(req, &in); err != nil {
			return nil, err
		}
		return &echoResponse{Text: in.Text}, nil
	})
	s.Register("Test.Fail", func(ctx context.Context, req json.RawMessage) (any, error) {
		return nil, errors.New("handler exploded")
	})

	ready := make(chan struct{})
	go func() {
		close(ready)
		s.Serve("127.0.0.1:0")
	}()
	<-ready

	// Wait for the listener to come up.
	deadline := time.Now().Add(2 * time.Second)
	for s.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("server did not start listening")
		}
		time.Sleep(time.Millisecond)
	}
	t.Cleanup(s.Stop)
	return s, s.Addr().String()
}

// TestCallRoundTrip verifies a request reaches its handler and the
// response decodes.
func TestCallRoundTrip(t *testing.T) {
	_, addr := startServer(t)

	c, err := Dial(addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()

	var resp echoResponse
	if err := c.Call(context.Background(), "Test.Echo", &echoRequest{Text: "ping"}, &resp); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if resp.Text != "ping" {
		t.Errorf("expected ping, got %q", resp.Text)
	}
}

// TestCallHandlerError verifies handler errors surface to the caller.
func TestCallHandlerError(t *testing.T) {
	_, addr := startServer(t)

	c, err := Dial(addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()

	err = c.Call(context.Background(), "Test.Fail", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "handler exploded") {
		t.Errorf("expected handler error, got %v", err)
	}
}

// TestCallUnknownMethod verifies the server rejects unregistered methods.
func TestCallUnknownMethod(t *testing.T) {
	_, addr := startServer(t)

	c, err := Dial(addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()

	err = c.Call(context.Background(), "No.Such", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown method") {
		t.Errorf("expected unknown method error, got %v", err)
	}
}

// TestSequentialCallsShareConnection verifies several calls work over one
// connection.
func TestSequentialCallsShareConnection(t *testing.T) {
	_, addr := startServer(t)

	c, err := Dial(addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()

	for i := 0; i < 10; i++ {
		var resp echoResponse
		if err := c.Call(context.Background(), "Test.Echo", &echoRequest{Text: "n"}, &resp); err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}
}

// TestMethodCount verifies registration bookkeeping.
func TestMethodCount(t *testing.T) {
	s := NewServer()
	if got := s.MethodCount(); got != 0 {
		t.Fatalf("expected 0 methods, got %d", got)
	}
	s.Register("A.B", func(ctx context.Context, req json.RawMessage) (any, error) { return nil, nil })
	if got := s.MethodCount(); got != 1 {
		t.Errorf("expected 1 method, got %d", got)
	}
}
