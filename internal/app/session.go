package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/skobkin/dripmon/internal/alert"
	"github.com/skobkin/dripmon/internal/bus"
	"github.com/skobkin/dripmon/internal/conn"
	"github.com/skobkin/dripmon/internal/connectors"
	"github.com/skobkin/dripmon/internal/domain"
	"github.com/skobkin/dripmon/internal/drip"
	"github.com/skobkin/dripmon/internal/notifications"
)

var ErrSessionClosed = errors.New("session is closed")

// ConnectFailure is the human-readable result of a failed connect.
type ConnectFailure struct {
	Device domain.Device
	Err    error
}

func (e *ConnectFailure) Error() string {
	return fmt.Sprintf("Failed to connect to %s: %v", e.Device.DisplayName(), e.Err)
}

func (e *ConnectFailure) Unwrap() error {
	return e.Err
}

// SessionInfo is published on connectors.TopicSessionInfo after a connect succeeds.
type SessionInfo struct {
	Device    domain.Device
	Transport string
	Target    string
	At        time.Time
}

// Snapshot is what presentation needs to render the monitor.
type Snapshot struct {
	Connection  connectors.ConnectionState
	Device      domain.Device
	HasDevice   bool
	Status      domain.DripStatus
	HasStatus   bool
	Raw         string
	Alerting    bool
	LastRate    int
	HasLastRate bool
	UpdatedAt   time.Time
}

type SessionDeps struct {
	Bus            bus.MessageBus
	Transports     conn.TransportFactory
	Cue            alert.Cue
	Notifier       notifications.Sender
	Journal        *Journal
	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

// Session owns one monitoring session: the connection manager, the alert
// driver and the optional journal, wired through the bus.
type Session struct {
	logger  *slog.Logger
	bus     bus.MessageBus
	manager *conn.Manager
	driver  *alert.Driver
	journal *Journal
	timeout time.Duration

	mu     sync.RWMutex
	snap   Snapshot
	closed bool
}

func NewSession(deps SessionDeps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "app.session")
	}
	timeout := deps.ConnectTimeout
	if timeout <= 0 {
		timeout = conn.DefaultConnectTimeout
	}

	opts := []alert.Option{
		alert.WithBus(deps.Bus),
		alert.WithLogger(logger.With("component", "alert")),
	}
	if deps.Notifier != nil {
		opts = append(opts, alert.WithNotifier(deps.Notifier))
	}

	return &Session{
		logger:  logger,
		bus:     deps.Bus,
		manager: conn.NewManager(logger.With("component", "conn"), deps.Bus, deps.Transports),
		driver:  alert.NewDriver(deps.Cue, opts...),
		journal: deps.Journal,
		timeout: timeout,
		snap:    Snapshot{Connection: connectors.ConnectionStateDisconnected},
	}
}

// Connect drops any previous connection and connects to device. Failures
// are returned as *ConnectFailure, except cancellation.
func (s *Session) Connect(ctx context.Context, device domain.Device) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrSessionClosed
	}

	if err := s.manager.Close(); err != nil {
		s.logger.Warn("close previous connection", "error", err)
	}
	s.mu.Lock()
	s.snap = Snapshot{Device: device, HasDevice: true}
	s.mu.Unlock()
	s.driver.SetDevice(device.DisplayName())
	if tr, ok := s.driver.Observe(domain.UnknownStatus()); ok {
		s.journal.RecordAlert(tr)
	}

	s.manager.OnMessage(s.frameHandler(device))
	s.logger.Info("connecting to device", "device", device.DisplayName(), "endpoint", device.Endpoint.Address())
	if err := s.manager.Connect(ctx, device.Endpoint, s.timeout); err != nil {
		if errors.Is(err, conn.ErrConnectCanceled) {
			return err
		}
		failure := &ConnectFailure{Device: device, Err: err}
		s.logger.Warn("connect failed", "error", failure)

		return failure
	}

	if s.bus != nil {
		s.bus.Publish(connectors.TopicSessionInfo, SessionInfo{
			Device:    device,
			Transport: s.manager.TransportName(),
			Target:    s.manager.Target(),
			At:        time.Now(),
		})
	}

	return nil
}

// Disconnect closes the connection but keeps the session usable.
func (s *Session) Disconnect() error {
	return s.manager.Close()
}

func (s *Session) frameHandler(device domain.Device) conn.MessageHandler {
	name := device.DisplayName()

	return func(text string) {
		now := time.Now()
		if s.bus != nil {
			s.bus.Publish(connectors.TopicRawFrameIn, connectors.RawFrame{Text: text, Len: len(text), At: now})
		}

		status := drip.Classify(text)
		reading := domain.DripReading{Device: name, Raw: text, Status: status, At: now}

		s.mu.Lock()
		s.snap.Status = status
		s.snap.HasStatus = true
		s.snap.Raw = text
		s.snap.UpdatedAt = now
		if status.Kind == domain.DripNormal && status.HasRate {
			s.snap.LastRate = status.Rate
			s.snap.HasLastRate = true
		}
		s.mu.Unlock()

		s.logger.Debug("drip status", "device", name, "status", status.String())
		if s.bus != nil {
			s.bus.Publish(connectors.TopicDripStatus, reading)
		}

		tr, changed := s.driver.Observe(status)
		s.journal.RecordReading(reading)
		if changed {
			s.journal.RecordAlert(tr)
		}
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()

	snap.Connection = s.manager.Status()
	snap.Alerting = s.driver.Alerting()

	return snap
}

// DeviceName returns the display name of the current or last device.
func (s *Session) DeviceName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.snap.HasDevice {
		return ""
	}

	return s.snap.Device.DisplayName()
}

// Close tears down the connection, releases the alarm cue and flushes the
// journal. Later calls are no-ops.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var errs []error
	if err := s.manager.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.driver.Close(); err != nil {
		errs = append(errs, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), journalFlushWait)
	defer cancel()
	if err := s.journal.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush journal: %w", err))
	}

	return errors.Join(errs...)
}
