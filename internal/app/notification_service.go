package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/skobkin/dripmon/internal/bus"
	"github.com/skobkin/dripmon/internal/config"
	"github.com/skobkin/dripmon/internal/connectors"
	"github.com/skobkin/dripmon/internal/notifications"
)

// NotificationService turns connection state changes into desktop
// notifications. Drip alarms are announced by the alert driver.
type NotificationService struct {
	bus           bus.MessageBus
	currentConfig func() config.AppConfig
	sender        notifications.Sender
	logger        *slog.Logger

	mu   sync.Mutex
	last connectors.ConnectionState
}

func NewNotificationService(
	messageBus bus.MessageBus,
	currentConfig func() config.AppConfig,
	sender notifications.Sender,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default().With("component", "app.notifications")
	}

	return &NotificationService{
		bus:           messageBus,
		currentConfig: currentConfig,
		sender:        sender,
		logger:        logger,
	}
}

// Start consumes conn.status events until ctx is done.
func (s *NotificationService) Start(ctx context.Context) {
	if s == nil || s.bus == nil || s.sender == nil {
		return
	}

	events := s.bus.Subscribe(connectors.TopicConnStatus)
	go func() {
		defer bus.UnsubscribeDrained(s.bus, events, connectors.TopicConnStatus)

		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-events:
				if !ok {
					return
				}
				if status, ok := raw.(connectors.ConnectionStatus); ok {
					s.observe(status)
				}
			}
		}
	}()
}

func (s *NotificationService) observe(status connectors.ConnectionStatus) {
	if !s.changed(status.State) {
		return
	}
	payload, ok := connectionNotice(status)
	if !ok || !s.enabled() {
		return
	}

	s.logger.Debug("sending notification", "title", payload.Title, "state", status.State)
	s.sender.Send(payload)
}

// changed records state and reports whether it differs from the previous one.
func (s *NotificationService) changed(state connectors.ConnectionState) bool {
	if state == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == state {
		return false
	}
	s.last = state

	return true
}

func (s *NotificationService) enabled() bool {
	if s.currentConfig == nil {
		return config.Default().Alert.Notify
	}

	return s.currentConfig().Alert.Notify
}

// connectionNotice formats the notification for a settled connection state.
// Connecting is transient and produces none.
func connectionNotice(status connectors.ConnectionStatus) (notifications.Payload, bool) {
	if status.State == connectors.ConnectionStateConnecting {
		return notifications.Payload{}, false
	}

	var transport string
	switch name := strings.TrimSpace(status.TransportName); strings.ToLower(name) {
	case "":
		transport = "Unknown"
	case "websocket":
		transport = "WebSocket"
	case "serial":
		transport = "Serial"
	default:
		transport = name
	}

	content := strings.TrimSpace(status.Target)
	if content == "" {
		content = "No connection details"
	}
	if errText := strings.TrimSpace(status.Err); errText != "" && status.State != connectors.ConnectionStateConnected {
		content += " (error: " + errText + ")"
	}

	return notifications.Payload{
		Title:   fmt.Sprintf("%s - %s", transport, status.State),
		Content: content,
	}, true
}
