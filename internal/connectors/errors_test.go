package connectors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("connect: %w", &ConnectError{Kind: ConnectErrorTimeout, Detail: "5s"})

	assert.True(t, errors.Is(err, ErrConnectTimeout))
	assert.False(t, errors.Is(err, ErrTransport))
	assert.False(t, errors.Is(err, ErrClosedDuringHandshake))

	var ce *ConnectError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, ConnectErrorTimeout, ce.Kind)
}

func TestConnectErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  *ConnectError
		want string
	}{
		{name: "timeout", err: &ConnectError{Kind: ConnectErrorTimeout}, want: "connection timeout"},
		{name: "timeout with detail", err: &ConnectError{Kind: ConnectErrorTimeout, Detail: "5s"}, want: "connection timeout after 5s"},
		{name: "transport", err: &ConnectError{Kind: ConnectErrorTransport, Detail: "connection refused"}, want: "transport error: connection refused"},
		{name: "transport empty", err: &ConnectError{Kind: ConnectErrorTransport}, want: "transport error: connection failed"},
		{
			name: "closed during handshake",
			err:  &ConnectError{Kind: ConnectErrorClosedDuringHandshake, Code: CloseAbnormalClosure, Reason: "unexpected HTTP status 404 Not Found"},
			want: "connection closed during handshake (code 1006): unexpected HTTP status 404 Not Found",
		},
		{
			name: "closed without reason",
			err:  &ConnectError{Kind: ConnectErrorClosedDuringHandshake, Code: 1002},
			want: "connection closed during handshake (code 1002): unknown reason",
		},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.err.Error(), tc.name)
	}
}

func TestConnectErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &ConnectError{Kind: ConnectErrorTransport, Detail: cause.Error(), Err: cause}

	assert.True(t, errors.Is(err, cause))
}

func TestConnectionStateLive(t *testing.T) {
	assert.True(t, ConnectionStateConnecting.Live())
	assert.True(t, ConnectionStateConnected.Live())
	assert.False(t, ConnectionStateFailed.Live())
	assert.False(t, ConnectionStateDisconnected.Live())
	assert.Equal(t, "disconnected", ConnectionState("").String())
}
