package alert

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/skobkin/dripmon/internal/bus"
	"github.com/skobkin/dripmon/internal/connectors"
	"github.com/skobkin/dripmon/internal/domain"
	"github.com/skobkin/dripmon/internal/notifications"
)

type State string

const (
	StateIdle     State = "idle"
	StateAlerting State = "alerting"
)

// Transition is published on connectors.TopicAlertState.
type Transition struct {
	From   State
	To     State
	Status domain.DripStatus
	Device string
	At     time.Time
}

func (t Transition) Alerting() bool {
	return t.To == StateAlerting
}

type Option func(*Driver)

func WithBus(b bus.MessageBus) Option {
	return func(d *Driver) { d.bus = b }
}

// WithNotifier raises a desktop notification on every transition.
func WithNotifier(sender notifications.Sender) Option {
	return func(d *Driver) { d.sender = sender }
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Driver keeps the alarm cue in step with the alert state derived from
// drip statuses. Observe is expected to be called from a single goroutine.
type Driver struct {
	cue    Cue
	bus    bus.MessageBus
	sender notifications.Sender
	logger *slog.Logger

	mu     sync.Mutex
	state  State
	device string
	closed bool
}

// NewDriver takes ownership of an already acquired cue. It is released by Close.
func NewDriver(cue Cue, opts ...Option) *Driver {
	if cue == nil {
		cue = SilentCue{}
	}
	d := &Driver{
		cue:    cue,
		logger: slog.Default().With("component", "alert"),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// SetDevice names the monitored device in published transitions.
func (d *Driver) SetDevice(name string) {
	d.mu.Lock()
	d.device = strings.TrimSpace(name)
	d.mu.Unlock()
}

func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state
}

func (d *Driver) Alerting() bool {
	return d.State() == StateAlerting
}

// Observe applies status and reports the transition taken, if any. Self
// transitions have no side effects.
func (d *Driver) Observe(status domain.DripStatus) (Transition, bool) {
	next := StateIdle
	if status.Alerting() {
		next = StateAlerting
	}

	d.mu.Lock()
	if d.closed || d.state == next {
		d.mu.Unlock()

		return Transition{}, false
	}
	tr := Transition{
		From:   d.state,
		To:     next,
		Status: status,
		Device: d.device,
		At:     time.Now(),
	}
	d.state = next

	var err error
	if next == StateAlerting {
		err = d.cue.Loop()
	} else {
		err = d.cue.Stop()
	}
	d.mu.Unlock()

	logger := d.logger.With("from", tr.From, "to", tr.To, "status", status.String())
	if err != nil {
		logger.Warn("alarm cue failed", "error", err)
	}
	logger.Info("alert state changed")

	if d.bus != nil {
		d.bus.Publish(connectors.TopicAlertState, tr)
	}
	d.notify(tr)

	return tr, true
}

// Close silences the alarm and releases the cue. Later calls are no-ops.
func (d *Driver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()

		return nil
	}
	d.closed = true
	alerting := d.state == StateAlerting
	d.state = StateIdle
	d.mu.Unlock()

	var errs []error
	if alerting {
		if err := d.cue.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop cue: %w", err))
		}
	}
	if err := d.cue.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close cue: %w", err))
	}

	return errors.Join(errs...)
}

func (d *Driver) notify(tr Transition) {
	if d.sender == nil {
		return
	}

	device := tr.Device
	if device == "" {
		device = "drip monitor"
	}
	content := device
	if tr.To == StateIdle {
		content = fmt.Sprintf("%s: alarm cleared (%s)", device, tr.Status.String())
	}
	d.sender.Send(notifications.Payload{
		Title:   tr.Status.Title(),
		Content: content,
		Urgent:  tr.Alerting(),
	})
}
