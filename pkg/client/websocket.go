package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/helium-dev/helium/pkg/protocol"
)

// WSTransport multiplexes calls over a single WebSocket connection.
// It is safe for concurrent use.
type WSTransport struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan *protocol.Response
	err     error

	done   chan struct{}
	logger *slog.Logger
}

// DialWebSocket connects to a helium WebSocket endpoint.
func DialWebSocket(ctx context.Context, url string, header http.Header) (*WSTransport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewWSTransport(conn), nil
}

// NewWSTransport takes ownership of conn and starts reading responses.
func NewWSTransport(conn *websocket.Conn) *WSTransport {
	t := &WSTransport{
		conn:    conn,
		pending: make(map[string]chan *protocol.Response),
		done:    make(chan struct{}),
		logger:  slog.Default().With("component", "client"),
	}
	go t.readLoop()
	return t
}

// RoundTrip implements Transport.
func (t *WSTransport) RoundTrip(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	data, err := protocol.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	ch := make(chan *protocol.Response, 1)
	t.mu.Lock()
	if t.err != nil {
		err := t.err
		t.mu.Unlock()
		return nil, err
	}
	if _, exists := t.pending[req.CorrelationID]; exists {
		t.mu.Unlock()
		return nil, fmt.Errorf("correlation id %q already in flight", req.CorrelationID)
	}
	t.pending[req.CorrelationID] = ch
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.pending, req.CorrelationID)
		t.mu.Unlock()
	}()

	t.writeMu.Lock()
	deadline, _ := ctx.Deadline()
	t.conn.SetWriteDeadline(deadline)
	err = t.conn.WriteMessage(websocket.TextMessage, data)
	t.writeMu.Unlock()
	if err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
		return nil, t.closeErr()
	}
}

// Close closes the connection. Pending calls fail with ErrTransportClosed.
func (t *WSTransport) Close() error {
	t.mu.Lock()
	if t.err == nil {
		t.err = ErrTransportClosed
	}
	t.mu.Unlock()

	t.writeMu.Lock()
	t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	t.writeMu.Unlock()
	return t.conn.Close()
}

// Done is closed once the connection stops delivering responses.
func (t *WSTransport) Done() <-chan struct{} {
	return t.done
}

func (t *WSTransport) closeErr() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		return ErrTransportClosed
	}
	return t.err
}

func (t *WSTransport) readLoop() {
	defer close(t.done)
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			if t.err == nil {
				t.err = fmt.Errorf("connection lost: %w", err)
			}
			t.mu.Unlock()
			return
		}

		resp, err := protocol.DecodeResponse(data)
		if err != nil {
			t.logger.Warn("discarding malformed response", "error", err)
			continue
		}

		t.mu.Lock()
		ch, ok := t.pending[resp.CorrelationID]
		if ok {
			delete(t.pending, resp.CorrelationID)
		}
		t.mu.Unlock()

		if !ok {
			t.logger.Debug("discarding response without waiting call", "correlation_id", resp.CorrelationID)
			continue
		}
		ch <- resp
	}
}
