package connectors

import (
	"fmt"
	"strings"
)

type ConnectErrorKind string

const (
	ConnectErrorTimeout               ConnectErrorKind = "timeout"
	ConnectErrorTransport             ConnectErrorKind = "transport_error"
	ConnectErrorClosedDuringHandshake ConnectErrorKind = "closed_during_handshake"
)

// Close codes as defined by RFC 6455.
const (
	CloseNormalClosure   = 1000
	CloseGoingAway       = 1001
	CloseAbnormalClosure = 1006
)

// Sentinels for errors.Is checks against the connect failure taxonomy.
var (
	ErrConnectTimeout        = &ConnectError{Kind: ConnectErrorTimeout}
	ErrTransport             = &ConnectError{Kind: ConnectErrorTransport}
	ErrClosedDuringHandshake = &ConnectError{Kind: ConnectErrorClosedDuringHandshake}
)

// ConnectError is the terminal result of a failed connect attempt.
type ConnectError struct {
	Kind   ConnectErrorKind
	Detail string
	Code   int
	Reason string
	Err    error
}

func (e *ConnectError) Error() string {
	switch e.Kind {
	case ConnectErrorTimeout:
		if e.Detail != "" {
			return "connection timeout after " + e.Detail
		}
		return "connection timeout"
	case ConnectErrorClosedDuringHandshake:
		reason := strings.TrimSpace(e.Reason)
		if reason == "" {
			reason = "unknown reason"
		}
		return fmt.Sprintf("connection closed during handshake (code %d): %s", e.Code, reason)
	default:
		detail := strings.TrimSpace(e.Detail)
		if detail == "" {
			detail = "connection failed"
		}
		return "transport error: " + detail
	}
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Is matches any ConnectError of the same kind.
func (e *ConnectError) Is(target error) bool {
	t, ok := target.(*ConnectError)
	if !ok {
		return false
	}

	return t.Kind == e.Kind
}
