package notifications

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordedCall struct {
	title   string
	content string
}

func recorder(calls *[]recordedCall, err error) notifyFunc {
	return func(title, message string, _ any) error {
		*calls = append(*calls, recordedCall{title: title, content: message})

		return err
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDesktopSenderSkipsEmptyPayload(t *testing.T) {
	var calls []recordedCall
	s := &DesktopSender{notify: recorder(&calls, nil), alert: recorder(&calls, nil), logger: quietLogger()}

	s.Send(Payload{Title: "  ", Content: "\n", Urgent: true})
	assert.Empty(t, calls)
}

func TestDesktopSenderTrimsAndSwallowsErrors(t *testing.T) {
	var calls []recordedCall
	s := &DesktopSender{notify: recorder(&calls, errors.New("no notification daemon")), logger: quietLogger()}

	s.Send(Payload{Title: " WebSocket - connected ", Content: " ws://192.168.194.50:8000/ws "})
	assert.Equal(t, []recordedCall{{title: "WebSocket - connected", content: "ws://192.168.194.50:8000/ws"}}, calls)
}

func TestDesktopSenderUrgentUsesAlert(t *testing.T) {
	var plain, urgent []recordedCall
	s := &DesktopSender{notify: recorder(&plain, nil), alert: recorder(&urgent, nil), logger: quietLogger()}

	s.Send(Payload{Title: "DRIP STOPPED", Content: "Testing", Urgent: true})
	s.Send(Payload{Title: "NORMAL DRIP", Content: "Testing: alarm cleared"})

	assert.Equal(t, []recordedCall{{title: "DRIP STOPPED", content: "Testing"}}, urgent)
	assert.Equal(t, []recordedCall{{title: "NORMAL DRIP", content: "Testing: alarm cleared"}}, plain)
}

func TestDesktopSenderUrgentFallsBackToNotify(t *testing.T) {
	var calls []recordedCall
	s := &DesktopSender{notify: recorder(&calls, nil), logger: quietLogger()}

	s.Send(Payload{Title: "DRIP BLOCKED", Urgent: true})
	assert.Len(t, calls, 1)
}

func TestNilDesktopSenderIsNoop(t *testing.T) {
	var s *DesktopSender
	assert.NotPanics(t, func() { s.Send(Payload{Title: "x"}) })
	assert.NotPanics(t, func() { Discard{}.Send(Payload{Title: "x"}) })
}
