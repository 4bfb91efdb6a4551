package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/skobkin/dripmon/internal/app"
	"github.com/skobkin/dripmon/internal/bus"
	"github.com/skobkin/dripmon/internal/connectors"
	"github.com/skobkin/dripmon/internal/domain"
)

// SessionView is the part of app.Session the monitor reads from and drives.
type SessionView interface {
	Snapshot() app.Snapshot
	Connect(ctx context.Context, device domain.Device) error
}

// MonitorKeys are the key bindings of the monitor view.
type MonitorKeys struct {
	Quit      key.Binding
	Reconnect key.Binding
}

var DefaultMonitorKeys = MonitorKeys{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Reconnect: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reconnect"),
	),
}

type eventMsg struct {
	payload any
}

type eventsClosedMsg struct{}

type reconnectDoneMsg struct {
	err error
}

// MonitorModel is the Bubble Tea model of the bedside monitor view. It
// re-reads the session snapshot on every bus event it receives.
type MonitorModel struct {
	ctx     context.Context
	session SessionView
	device  domain.Device
	events  bus.Subscription

	snap         app.Snapshot
	lastErr      string
	reconnecting bool
	width        int
	quitting     bool

	keys    MonitorKeys
	help    help.Model
	spinner spinner.Model
}

// NewMonitorModel builds the monitor for device. events should carry the
// conn.status, drip.status and alert.state topics.
func NewMonitorModel(ctx context.Context, session SessionView, device domain.Device, events bus.Subscription) MonitorModel {
	if ctx == nil {
		ctx = context.Background()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"◐", "◓", "◑", "◒"},
		FPS:    time.Second / 10,
	}
	sp.Style = lipgloss.NewStyle().Foreground(ColorSecondary)

	return MonitorModel{
		ctx:     ctx,
		session: session,
		device:  device,
		events:  events,
		snap:    session.Snapshot(),
		keys:    DefaultMonitorKeys,
		help:    help.New(),
		spinner: sp,
	}
}

func (m MonitorModel) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), m.spinner.Tick)
}

func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true

			return m, tea.Quit
		case key.Matches(msg, m.keys.Reconnect):
			if m.reconnecting || m.snap.Connection.Live() {
				return m, nil
			}
			m.reconnecting = true
			m.lastErr = ""

			return m, m.reconnectCmd()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case eventMsg:
		if status, ok := msg.payload.(connectors.ConnectionStatus); ok {
			switch {
			case status.Err != "":
				m.lastErr = status.Err
			case status.State == connectors.ConnectionStateConnected:
				m.lastErr = ""
			}
		}
		m.snap = m.session.Snapshot()

		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		m.snap = m.session.Snapshot()

	case reconnectDoneMsg:
		m.reconnecting = false
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		}
		m.snap = m.session.Snapshot()
	}

	return m, nil
}

func (m MonitorModel) View() string {
	if m.quitting {
		return ""
	}

	return m.render()
}

func (m MonitorModel) render() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("IV Drip Monitor"))
	b.WriteString("\n\n")

	deviceName := m.device.DisplayName()
	conn := RenderConnection(m.snap.Connection, deviceName)
	if m.reconnecting || m.snap.Connection == connectors.ConnectionStateConnecting {
		conn = m.spinner.View() + " " + ConnectionLabel(connectors.ConnectionStateConnecting) + " to " + deviceName + "..."
	}
	b.WriteString(conn)
	b.WriteString("\n")
	if m.lastErr != "" {
		b.WriteString(errorStyle.Render(m.lastErr))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	status := domain.UnknownStatus()
	if m.snap.HasStatus {
		status = m.snap.Status
	}
	var panel strings.Builder
	panel.WriteString(RenderStatus(status))
	if line := RateLine(status); line != "" {
		panel.WriteString("\n\n")
		panel.WriteString(line)
	} else if status.Kind == domain.DripNormal && m.snap.HasLastRate {
		panel.WriteString("\n\n")
		panel.WriteString(mutedStyle.Render(RateLine(domain.NormalStatusWithRate(m.snap.LastRate)) + " (last reported)"))
	}
	if m.snap.Raw != "" {
		panel.WriteString("\n\n")
		panel.WriteString(mutedStyle.Render(m.snap.Raw))
	}
	if !m.snap.UpdatedAt.IsZero() {
		panel.WriteString("\n")
		panel.WriteString(mutedStyle.Render("Updated " + m.snap.UpdatedAt.Format("15:04:05")))
	}
	b.WriteString(panelStyle.BorderForeground(StatusColor(status)).Render(panel.String()))
	b.WriteString("\n\n")

	style := instructionsStyle
	if m.width > 0 {
		style = style.Width(m.width)
	}
	b.WriteString(style.Render(Instructions))
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.Reconnect, m.keys.Quit}))
	b.WriteString("\n")

	return b.String()
}

func (m MonitorModel) reconnectCmd() tea.Cmd {
	ctx := m.ctx
	session := m.session
	device := m.device

	return func() tea.Msg {
		return reconnectDoneMsg{err: session.Connect(ctx, device)}
	}
}

func waitForEvent(events bus.Subscription) tea.Cmd {
	if events == nil {
		return nil
	}

	return func() tea.Msg {
		payload, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}

		return eventMsg{payload: payload}
	}
}
