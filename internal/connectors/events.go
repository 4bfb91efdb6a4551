package connectors

import "time"

// ConnectionStatus is a bus event snapshot of the connection manager state.
type ConnectionStatus struct {
	State         ConnectionState
	Err           string
	TransportName string
	Target        string
	Timestamp     time.Time
}

// RawFrame carries an inbound frame for debug/log views.
type RawFrame struct {
	Text string
	Len  int
	At   time.Time
}
