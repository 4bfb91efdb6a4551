package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skobkin/dripmon/internal/connectors"
)

const (
	maxMessageSize = 4096
	closeWait      = time.Second
)

// WebSocketTransport reads status frames from a sensor's websocket endpoint.
type WebSocketTransport struct {
	url    string
	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWebSocketTransport(url string) *WebSocketTransport {
	return &WebSocketTransport{
		url: url,
		// The connect deadline comes from the caller's context.
		dialer: &websocket.Dialer{Proxy: http.ProxyFromEnvironment},
	}
}

func (t *WebSocketTransport) Name() string {
	return "websocket"
}

func (t *WebSocketTransport) StatusTarget() string {
	return t.url
}

func (t *WebSocketTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.conn != nil
}

func (t *WebSocketTransport) Connect(ctx context.Context) error {
	logger := connectorLogger("websocket", "target", t.url)

	t.mu.Lock()
	if t.conn != nil {
		t.mu.Unlock()
		logger.Debug("connect skipped: already connected")

		return nil
	}
	t.mu.Unlock()

	logger.Info("connecting")
	dialer, watch := t.watchedDialer()
	conn, resp, err := dialer.DialContext(ctx, t.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err == nil && !watch.release() {
		// The context fired after the handshake and already closed the socket.
		_ = conn.Close()
		err = ctx.Err()
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			logger.Warn("connect aborted", "error", ctxErr)

			return ctxErr
		}
		logger.Warn("connect failed", "error", err)

		return handshakeError(err, resp)
	}
	conn.SetReadLimit(maxMessageSize)

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	logger.Info("connected", "remote", conn.RemoteAddr().String())

	return nil
}

// dialWatch closes the dialed socket when the connect context ends before
// the handshake is released.
type dialWatch struct {
	mu   sync.Mutex
	stop func() bool
}

func (w *dialWatch) release() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop == nil {
		return true
	}

	return w.stop()
}

func (t *WebSocketTransport) watchedDialer() (*websocket.Dialer, *dialWatch) {
	watch := &dialWatch{}
	dialer := *t.dialer
	dialer.NetDialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		var d net.Dialer
		c, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		watch.mu.Lock()
		watch.stop = context.AfterFunc(ctx, func() { _ = c.Close() })
		watch.mu.Unlock()

		return c, nil
	}

	return &dialer, watch
}

func (t *WebSocketTransport) Close() error {
	logger := connectorLogger("websocket", "target", t.url)

	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn == nil {
		logger.Debug("close skipped: not connected")

		return nil
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait)); err != nil {
		logger.Debug("send close frame failed", "error", err)
	}
	if err := conn.Close(); err != nil {
		logger.Warn("close failed", "error", err)

		return err
	}
	logger.Info("closed")

	return nil
}

func (t *WebSocketTransport) ReadFrame(ctx context.Context) (Frame, error) {
	logger := connectorLogger("websocket")
	conn, err := t.currentConn()
	if err != nil {
		return Frame{}, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	} else {
		_ = conn.SetReadDeadline(time.Time{})
	}

	msgType, payload, err := conn.ReadMessage()
	if err != nil {
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) {
			logger.Debug("peer closed connection", "code", closeErr.Code, "reason", closeErr.Text)

			return Frame{}, &CloseError{Code: closeErr.Code, Reason: closeErr.Text}
		}
		logger.Debug("read frame failed", "error", err)

		return Frame{}, fmt.Errorf("read websocket message: %w", err)
	}
	logger.Debug("read frame", "len", len(payload), "binary", msgType == websocket.BinaryMessage)

	return Frame{Payload: payload, Binary: msgType == websocket.BinaryMessage}, nil
}

func (t *WebSocketTransport) currentConn() (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil, ErrNotConnected
	}

	return t.conn, nil
}

func handshakeError(err error, resp *http.Response) error {
	switch {
	case errors.Is(err, websocket.ErrBadHandshake):
		reason := "handshake rejected"
		if resp != nil {
			reason = "unexpected HTTP status " + resp.Status
		}

		return &connectors.ConnectError{
			Kind:   connectors.ConnectErrorClosedDuringHandshake,
			Code:   connectors.CloseAbnormalClosure,
			Reason: reason,
			Err:    err,
		}
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return &connectors.ConnectError{
			Kind:   connectors.ConnectErrorClosedDuringHandshake,
			Code:   connectors.CloseAbnormalClosure,
			Reason: "connection closed before handshake completed",
			Err:    err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &connectors.ConnectError{Kind: connectors.ConnectErrorTimeout, Err: err}
	}

	return &connectors.ConnectError{
		Kind:   connectors.ConnectErrorTransport,
		Detail: err.Error(),
		Err:    err,
	}
}
