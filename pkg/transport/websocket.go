package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/helium-dev/helium/pkg/procedure"
	"github.com/helium-dev/helium/pkg/protocol"
)

// ServeWebSocket upgrades the connection and serves calls until it closes.
// Each text or binary message carries one request envelope.
func (d *Dispatcher) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	info := procedure.CallInfo{
		Transport:  "websocket",
		RemoteAddr: r.RemoteAddr,
		Header:     r.Header.Clone(),
	}
	d.serveConn(r.Context(), conn, info)
}

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

func (c *wsConn) write(resp *protocol.Response) error {
	data, err := protocol.EncodeResponse(resp)
	if err != nil {
		data, err = protocol.EncodeResponse(protocol.Failure(resp.CorrelationID,
			protocol.KindHandlerError, "response could not be encoded"))
		if err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.conn.Close()
}

// serveConn reads requests until the connection fails or parent is
// cancelled. In-flight handlers see their context cancelled when the
// connection goes away; they are not waited for.
func (d *Dispatcher) serveConn(parent context.Context, conn *websocket.Conn, info procedure.CallInfo) {
	ctx, cancel := context.WithCancel(parent)
	wc := &wsConn{conn: conn, writeTimeout: d.writeTimeout}
	defer func() {
		cancel()
		wc.close()
	}()
	go func() {
		<-ctx.Done()
		wc.close()
	}()

	conn.SetReadLimit(d.maxMessageSize)
	sem := make(chan struct{}, d.maxInFlight)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				d.logger.Warn("websocket read error", "error", err, "remote_addr", info.RemoteAddr)
			}
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		req, err := protocol.DecodeRequest(data)
		if err != nil {
			if werr := wc.write(decodeFailure(req, err)); werr != nil {
				return
			}
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		go func(req *protocol.Request) {
			defer func() { <-sem }()
			resp := d.Dispatch(procedure.WithCallInfo(ctx, info), req)
			if err := wc.write(resp); err != nil {
				d.logger.Debug("websocket write failed",
					"procedure", req.Name,
					"correlation_id", req.CorrelationID,
					"error", err)
			}
		}(req)
	}
}
