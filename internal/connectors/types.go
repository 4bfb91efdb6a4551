package connectors

// ConnectionState describes the connection manager lifecycle state.
type ConnectionState string

const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
	ConnectionStateFailed       ConnectionState = "failed"
)

func (s ConnectionState) String() string {
	if s == "" {
		return string(ConnectionStateDisconnected)
	}

	return string(s)
}

// Live reports whether a socket handle exists in this state.
func (s ConnectionState) Live() bool {
	return s == ConnectionStateConnecting || s == ConnectionStateConnected
}
