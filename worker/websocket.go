package worker

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coder/websocket"

	"github.com/cwbudde/echolab/worker/wire"
)

// WebSocket is a Transport that sends each wire payload as one binary
// WebSocket message.
type WebSocket struct {
	*client
}

var _ Transport = (*WebSocket)(nil)

// DialWebSocket connects to a WebSocketHandler at url (ws:// or wss://).
func DialWebSocket(ctx context.Context, url string) (*WebSocket, error) {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("worker: dial %s: %w", url, err)
	}
	c.SetReadLimit(wire.MaxFrameSize)
	return &WebSocket{client: newClient(&wsConn{c: c})}, nil
}

type wsConn struct {
	c *websocket.Conn
}

func (w *wsConn) send(ctx context.Context, payload []byte) error {
	return w.c.Write(ctx, websocket.MessageBinary, payload)
}

func (w *wsConn) recv(ctx context.Context) ([]byte, error) {
	return readBinary(ctx, w.c)
}

func (w *wsConn) close() error {
	// The handshake fails harmlessly when the server already went away.
	_ = w.c.Close(websocket.StatusNormalClosure, "client closed")
	return nil
}

func readBinary(ctx context.Context, c *websocket.Conn) ([]byte, error) {
	typ, data, err := c.Read(ctx)
	if err != nil {
		return nil, err
	}
	if typ != websocket.MessageBinary {
		return nil, fmt.Errorf("worker: unexpected %v message", typ)
	}
	return data, nil
}

// WebSocketHandler serves the wire protocol over WebSocket. Each connection
// gets its own engine, created from opts, for its whole lifetime.
func WebSocketHandler(opts ...Option) http.Handler {
	o := applyOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: o.origins})
		if err != nil {
			o.logger.Warn("websocket accept failed", "err", err)
			return
		}
		c.SetReadLimit(wire.MaxFrameSize)

		h := newHandler(o.newEngine(), o)
		defer h.close()

		ctx := r.Context()
		err = serve(ctx, h,
			func() ([]byte, error) { return readBinary(ctx, c) },
			func(p []byte) error { return c.Write(ctx, websocket.MessageBinary, p) },
		)
		switch status := websocket.CloseStatus(err); {
		case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
			c.Close(websocket.StatusNormalClosure, "")
		case err != nil && ctx.Err() == nil:
			o.logger.Warn("websocket worker stopped", "err", err)
			c.Close(websocket.StatusInternalError, "worker error")
		default:
			c.CloseNow()
		}
	})
}
