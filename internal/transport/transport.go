package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/skobkin/dripmon/internal/connectors"
)

// Frame is one inbound message as delivered by a transport.
type Frame struct {
	Payload []byte
	Binary  bool
}

// Text returns the frame as UTF-8 text, or "" for binary or malformed frames.
func (f Frame) Text() string {
	if f.Binary || !utf8.Valid(f.Payload) {
		return ""
	}

	return string(f.Payload)
}

// Transport is a receive-only connection to a drip sensor.
type Transport interface {
	Name() string
	Connect(ctx context.Context) error
	Close() error
	ReadFrame(ctx context.Context) (Frame, error)
}

type StatusTargetResolver interface {
	StatusTarget() string
}

var ErrNotConnected = errors.New("transport is not connected")

// CloseError reports how the peer ended an established connection.
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("connection closed (code %d)", e.Code)
	}

	return fmt.Sprintf("connection closed (code %d): %s", e.Code, e.Reason)
}

// IsNormalClosure reports whether err is an orderly close by the peer.
func IsNormalClosure(err error) bool {
	var closeErr *CloseError
	if !errors.As(err, &closeErr) {
		return false
	}

	return closeErr.Code == connectors.CloseNormalClosure || closeErr.Code == connectors.CloseGoingAway
}

// connectorLogger tags transport logs with the connector name plus attrs
// such as the target URL or serial port.
func connectorLogger(connector string, attrs ...any) *slog.Logger {
	return slog.With(append([]any{"component", "transport", "connector", connector}, attrs...)...)
}
