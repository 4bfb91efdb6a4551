package ui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skobkin/dripmon/internal/app"
	"github.com/skobkin/dripmon/internal/bus"
	"github.com/skobkin/dripmon/internal/connectors"
	"github.com/skobkin/dripmon/internal/domain"
)

type fakeSession struct {
	mu         sync.Mutex
	snap       app.Snapshot
	connectErr error
	connects   int
}

func (f *fakeSession) Snapshot() app.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.snap
}

func (f *fakeSession) Connect(context.Context, domain.Device) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++

	return f.connectErr
}

func (f *fakeSession) set(snap app.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = snap
}

func testDevice() domain.Device {
	return domain.Device{ID: 2, Name: "Testing", Endpoint: domain.DeviceEndpoint{Host: "127.0.0.1", Port: 8000}}
}

func update(t *testing.T, m MonitorModel, msg tea.Msg) (MonitorModel, tea.Cmd) {
	t.Helper()

	next, cmd := m.Update(msg)
	model, ok := next.(MonitorModel)
	require.True(t, ok)

	return model, cmd
}

func TestMonitorRendersSnapshotOnEvent(t *testing.T) {
	session := &fakeSession{snap: app.Snapshot{Connection: connectors.ConnectionStateConnected}}
	events := make(bus.Subscription, 1)
	m := NewMonitorModel(context.Background(), session, testDevice(), events)

	view := m.View()
	assert.Contains(t, view, "Connected to Testing")
	assert.Contains(t, view, "UNKNOWN STATUS")
	assert.Contains(t, view, Instructions)

	session.set(app.Snapshot{
		Connection: connectors.ConnectionStateConnected,
		Status:     domain.NormalStatusWithRate(25),
		HasStatus:  true,
		Raw:        "Normal drip rate: 25 drops/min",
		UpdatedAt:  time.Now(),
	})
	m, cmd := update(t, m, eventMsg{payload: domain.DripReading{Status: domain.NormalStatusWithRate(25)}})
	require.NotNil(t, cmd)

	view = m.View()
	assert.Contains(t, view, "NORMAL DRIP")
	assert.Contains(t, view, "Current Rate: 25 drops/min")
	assert.Contains(t, view, IconNormal)
}

func TestMonitorWaitsForNextEvent(t *testing.T) {
	session := &fakeSession{}
	events := make(bus.Subscription, 1)
	m := NewMonitorModel(context.Background(), session, testDevice(), events)

	events <- connectors.ConnectionStatus{State: connectors.ConnectionStateConnected}
	msg := waitForEvent(m.events)()
	got, ok := msg.(eventMsg)
	require.True(t, ok)
	assert.IsType(t, connectors.ConnectionStatus{}, got.payload)

	close(events)
	assert.Equal(t, eventsClosedMsg{}, waitForEvent(m.events)())
}

func TestMonitorShowsConnectionError(t *testing.T) {
	session := &fakeSession{snap: app.Snapshot{Connection: connectors.ConnectionStateFailed}}
	m := NewMonitorModel(context.Background(), session, testDevice(), nil)

	m, _ = update(t, m, eventMsg{payload: connectors.ConnectionStatus{
		State: connectors.ConnectionStateFailed,
		Err:   "connection closed",
	}})

	view := m.View()
	assert.Contains(t, view, "Connection failed")
	assert.Contains(t, view, "connection closed")
}

func TestMonitorAlertingStatus(t *testing.T) {
	session := &fakeSession{snap: app.Snapshot{
		Connection: connectors.ConnectionStateConnected,
		Status:     domain.BlockedStatus(),
		HasStatus:  true,
		Alerting:   true,
	}}
	m := NewMonitorModel(context.Background(), session, testDevice(), nil)

	view := m.View()
	assert.Contains(t, view, IconBlocked)
	assert.Contains(t, view, "DRIP BLOCKED")
	assert.NotContains(t, view, "Current Rate")
}

func TestMonitorQuit(t *testing.T) {
	m := NewMonitorModel(context.Background(), &fakeSession{}, testDevice(), nil)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestMonitorReconnectOnlyWhenDown(t *testing.T) {
	session := &fakeSession{snap: app.Snapshot{Connection: connectors.ConnectionStateConnected}}
	m := NewMonitorModel(context.Background(), session, testDevice(), nil)
	reconnect := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}

	_, cmd := update(t, m, reconnect)
	assert.Nil(t, cmd)

	session.set(app.Snapshot{Connection: connectors.ConnectionStateFailed})
	session.connectErr = errors.New("Failed to connect to Testing: connection timeout")
	m, _ = update(t, m, eventMsg{payload: connectors.ConnectionStatus{State: connectors.ConnectionStateFailed}})

	m, cmd = update(t, m, reconnect)
	require.NotNil(t, cmd)
	assert.True(t, m.reconnecting)
	assert.Contains(t, m.View(), "Connecting to Testing...")

	// a second press while the attempt is running is ignored
	_, again := update(t, m, reconnect)
	assert.Nil(t, again)

	msg := cmd()
	m, _ = update(t, m, msg)
	assert.False(t, m.reconnecting)
	assert.Equal(t, 1, session.connects)
	assert.Contains(t, m.View(), "Failed to connect to Testing: connection timeout")
}
