// Package conn owns the single socket to a drip sensor and its lifecycle.
package conn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/skobkin/dripmon/internal/bus"
	"github.com/skobkin/dripmon/internal/connectors"
	"github.com/skobkin/dripmon/internal/domain"
	"github.com/skobkin/dripmon/internal/transport"
)

const DefaultConnectTimeout = 5 * time.Second

var (
	ErrConnectCanceled  = errors.New("connect canceled")
	ErrAlreadyConnected = errors.New("connection already open")
)

// TransportFactory builds a fresh transport for one connect attempt.
type TransportFactory func(endpoint domain.DeviceEndpoint) (transport.Transport, error)

// MessageHandler receives the text of one inbound frame.
type MessageHandler func(text string)

// Manager owns at most one live transport. Message handlers run on the
// manager's read loop goroutine, one frame at a time, in arrival order.
type Manager struct {
	logger       *slog.Logger
	bus          bus.MessageBus
	newTransport TransportFactory

	mu         sync.Mutex
	state      connectors.ConnectionState
	endpoint   domain.DeviceEndpoint
	target     string
	trName     string
	transport  transport.Transport
	cancel     context.CancelFunc
	gen        uint64
	handlers   []MessageHandler
	readerDone chan struct{}
	pending    []connectors.ConnectionStatus

	// emitMu keeps bus publishes in transition order.
	emitMu sync.Mutex
}

func NewManager(logger *slog.Logger, b bus.MessageBus, factory TransportFactory) *Manager {
	if logger == nil {
		logger = slog.Default().With("component", "conn")
	}

	return &Manager{
		logger:       logger,
		bus:          b,
		newTransport: factory,
		state:        connectors.ConnectionStateDisconnected,
	}
}

func (m *Manager) Status() connectors.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Endpoint returns the endpoint of the current or most recent attempt.
func (m *Manager) Endpoint() domain.DeviceEndpoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.endpoint
}

// TransportName returns the name of the current or last transport.
func (m *Manager) TransportName() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.trName
}

// Target returns the status target of the current or last transport.
func (m *Manager) Target() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.target
}

// OnMessage registers h for frames of the current or next connection.
// Handlers are dropped on every teardown and must be registered again
// before the next Connect. A handler must not call Close synchronously.
func (m *Manager) OnMessage(h MessageHandler) {
	if h == nil {
		return
	}
	m.mu.Lock()
	m.handlers = append(m.handlers, h)
	m.mu.Unlock()
}

// Connect opens a transport to endpoint and waits for the handshake. The
// attempt is aborted when timeout elapses first. It never retries.
func (m *Manager) Connect(ctx context.Context, endpoint domain.DeviceEndpoint, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	logger := m.logger.With("target", endpoint.Address())

	m.mu.Lock()
	if m.state.Live() {
		m.mu.Unlock()

		return ErrAlreadyConnected
	}
	m.mu.Unlock()

	tr, err := m.newTransport(endpoint)
	if err != nil {
		cerr := &connectors.ConnectError{Kind: connectors.ConnectErrorTransport, Detail: err.Error(), Err: err}
		m.mu.Lock()
		m.endpoint = endpoint
		m.trName = ""
		m.target = endpoint.Address()
		m.handlers = nil
		m.transitionLocked(connectors.ConnectionStateFailed, cerr)
		m.mu.Unlock()
		m.flushStatus()

		return cerr
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	m.mu.Lock()
	if m.state.Live() {
		m.mu.Unlock()

		return ErrAlreadyConnected
	}
	m.gen++
	gen := m.gen
	m.cancel = cancel
	m.transport = tr
	m.endpoint = endpoint
	m.trName = tr.Name()
	m.target = endpoint.Address()
	if resolver, ok := tr.(transport.StatusTargetResolver); ok {
		m.target = resolver.StatusTarget()
	}
	m.transitionLocked(connectors.ConnectionStateConnecting, nil)
	m.mu.Unlock()
	m.flushStatus()

	logger.Info("connecting", "transport", tr.Name(), "timeout", timeout)
	started := time.Now()
	err = tr.Connect(attemptCtx)
	attemptErr := attemptCtx.Err()

	m.mu.Lock()
	if m.gen != gen {
		// Close ran while the handshake was in flight.
		m.mu.Unlock()
		_ = tr.Close()
		logger.Info("connect canceled")

		return ErrConnectCanceled
	}
	m.cancel = nil

	if err == nil && attemptErr != nil {
		// Handshake finished just as the attempt expired.
		err = attemptErr
	}
	if err != nil {
		m.transport = nil
		m.handlers = nil
		var result error
		if errors.Is(attemptErr, context.Canceled) {
			result = fmt.Errorf("%w: %w", ErrConnectCanceled, ctx.Err())
			m.transitionLocked(connectors.ConnectionStateDisconnected, nil)
		} else {
			result = classifyConnectError(err, attemptErr, timeout)
			m.transitionLocked(connectors.ConnectionStateFailed, result)
		}
		m.mu.Unlock()
		_ = tr.Close()
		m.flushStatus()
		logger.Warn("connect failed", "error", result, "elapsed", time.Since(started))

		return result
	}

	done := make(chan struct{})
	m.readerDone = done
	m.transitionLocked(connectors.ConnectionStateConnected, nil)
	m.mu.Unlock()
	m.flushStatus()
	logger.Info("connected", "elapsed", time.Since(started))

	go m.readLoop(gen, tr, done)

	return nil
}

// Close tears the connection down. It is a no-op when already disconnected.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.state == connectors.ConnectionStateDisconnected {
		m.mu.Unlock()

		return nil
	}
	m.gen++
	cancel := m.cancel
	tr := m.transport
	done := m.readerDone
	m.cancel = nil
	m.transport = nil
	m.readerDone = nil
	m.handlers = nil
	m.transitionLocked(connectors.ConnectionStateDisconnected, nil)
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var err error
	if tr != nil {
		if err = tr.Close(); err != nil {
			m.logger.Warn("close transport", "error", err)
			err = fmt.Errorf("close transport: %w", err)
		}
	}
	if done != nil {
		<-done
	}
	m.flushStatus()
	m.logger.Info("connection closed")

	return err
}

func (m *Manager) readLoop(gen uint64, tr transport.Transport, done chan struct{}) {
	defer close(done)

	for {
		frame, err := tr.ReadFrame(context.Background())
		if err != nil {
			m.handleReadFault(gen, tr, err)

			return
		}

		m.mu.Lock()
		if m.gen != gen {
			m.mu.Unlock()

			return
		}
		handlers := slices.Clone(m.handlers)
		m.mu.Unlock()

		text := frame.Text()
		for _, h := range handlers {
			h(text)
		}
	}
}

func (m *Manager) handleReadFault(gen uint64, tr transport.Transport, err error) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()

		return
	}
	m.gen++
	m.transport = nil
	m.readerDone = nil
	m.handlers = nil
	if transport.IsNormalClosure(err) {
		m.logger.Info("peer closed connection", "reason", err)
		m.transitionLocked(connectors.ConnectionStateDisconnected, nil)
	} else {
		m.logger.Warn("connection lost", "error", err)
		m.transitionLocked(connectors.ConnectionStateFailed, err)
	}
	m.mu.Unlock()

	_ = tr.Close()
	m.flushStatus()
}

func (m *Manager) transitionLocked(state connectors.ConnectionState, err error) {
	m.state = state
	status := connectors.ConnectionStatus{
		State:         state,
		TransportName: m.trName,
		Target:        m.target,
		Timestamp:     time.Now(),
	}
	if err != nil {
		status.Err = err.Error()
	}
	m.pending = append(m.pending, status)
}

func (m *Manager) flushStatus() {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	for {
		m.mu.Lock()
		if len(m.pending) == 0 {
			m.mu.Unlock()

			return
		}
		next := m.pending[0]
		m.pending = m.pending[1:]
		m.mu.Unlock()

		if m.bus != nil {
			m.bus.Publish(connectors.TopicConnStatus, next)
		}
	}
}

func classifyConnectError(err, attemptErr error, timeout time.Duration) error {
	if errors.Is(attemptErr, context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &connectors.ConnectError{Kind: connectors.ConnectErrorTimeout, Detail: timeout.String(), Err: err}
	}
	var cerr *connectors.ConnectError
	if errors.As(err, &cerr) {
		if cerr.Kind == connectors.ConnectErrorTimeout && cerr.Detail == "" {
			cerr.Detail = timeout.String()
		}

		return cerr
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &connectors.ConnectError{Kind: connectors.ConnectErrorTimeout, Detail: timeout.String(), Err: err}
	}

	return &connectors.ConnectError{Kind: connectors.ConnectErrorTransport, Detail: err.Error(), Err: err}
}
