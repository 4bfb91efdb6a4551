package notifications

import (
	"log/slog"
	"strings"

	"github.com/gen2brain/beeep"
)

type notifyFunc func(title, message string, icon any) error

// DesktopSender delivers notifications through the desktop notification
// daemon. Urgent payloads go through beeep.Alert, which adds a system sound.
type DesktopSender struct {
	notify notifyFunc
	alert  notifyFunc
	logger *slog.Logger
}

func NewDesktopSender(appName string, logger *slog.Logger) *DesktopSender {
	if logger == nil {
		logger = slog.Default().With("component", "notifications")
	}
	if name := strings.TrimSpace(appName); name != "" {
		beeep.AppName = name
	}

	return &DesktopSender{notify: beeep.Notify, alert: beeep.Alert, logger: logger}
}

func (s *DesktopSender) Send(payload Payload) {
	if s == nil {
		return
	}

	title := strings.TrimSpace(payload.Title)
	content := strings.TrimSpace(payload.Content)
	if title == "" && content == "" {
		return
	}

	send := s.notify
	if payload.Urgent && s.alert != nil {
		send = s.alert
	}
	if send == nil {
		return
	}
	if err := send(title, content, ""); err != nil {
		s.logger.Warn("desktop notification failed", "title", title, "urgent", payload.Urgent, "error", err)
	}
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Send(Payload) {}
