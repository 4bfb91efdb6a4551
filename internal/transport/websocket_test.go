package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skobkin/dripmon/internal/connectors"
)

func newSensorServer(t *testing.T, handle func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		handle(conn)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestWebSocketTransportReadsTextAndBinaryFrames(t *testing.T) {
	srv := newSensorServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte("25 drops/min"))
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0x01})
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		time.Sleep(50 * time.Millisecond)
	})

	tr := NewWebSocketTransport(wsURL(srv))
	require.NoError(t, tr.Connect(context.Background()))
	defer func() { _ = tr.Close() }()
	assert.True(t, tr.Connected())

	frame, err := tr.ReadFrame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "25 drops/min", frame.Text())

	frame, err = tr.ReadFrame(context.Background())
	require.NoError(t, err)
	assert.True(t, frame.Binary)
	assert.Equal(t, "", frame.Text())

	_, err = tr.ReadFrame(context.Background())
	require.Error(t, err)
	assert.True(t, IsNormalClosure(err))
	var closeErr *CloseError
	require.True(t, errors.As(err, &closeErr))
	assert.Equal(t, "bye", closeErr.Reason)
}

func TestWebSocketTransportBadHandshake(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	err := NewWebSocketTransport(wsURL(srv)).Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, connectors.ErrClosedDuringHandshake))

	var ce *connectors.ConnectError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, connectors.CloseAbnormalClosure, ce.Code)
	assert.Contains(t, ce.Reason, "404")
}

func TestWebSocketTransportPeerHangsUpDuringHandshake(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			buf := make([]byte, 512)
			_, _ = c.Read(buf)
			_ = c.Close()
		}
	}()

	err = NewWebSocketTransport("ws://" + ln.Addr().String() + "/ws").Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, connectors.ErrClosedDuringHandshake), "got %v", err)
}

func TestWebSocketTransportRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	err = NewWebSocketTransport("ws://" + addr + "/ws").Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, connectors.ErrTransport), "got %v", err)
}

func TestWebSocketTransportCloseIsIdempotent(t *testing.T) {
	tr := NewWebSocketTransport("ws://127.0.0.1:1/ws")
	assert.NoError(t, tr.Close())
	assert.NoError(t, tr.Close())

	_, err := tr.ReadFrame(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}
