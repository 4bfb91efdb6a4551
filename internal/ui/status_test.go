package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skobkin/dripmon/internal/connectors"
	"github.com/skobkin/dripmon/internal/domain"
)

func TestStatusIcon(t *testing.T) {
	tests := []struct {
		status domain.DripStatus
		want   string
	}{
		{domain.StoppedStatus(), IconStopped},
		{domain.BlockedStatus(), IconBlocked},
		{domain.NormalStatus(), IconNormal},
		{domain.NormalStatusWithRate(25), IconNormal},
		{domain.UnknownStatus(), IconUnknown},
		{domain.DripStatus{}, IconUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusIcon(tt.status))
		})
	}
}

func TestRateLine(t *testing.T) {
	assert.Equal(t, "Current Rate: 25 drops/min", RateLine(domain.NormalStatusWithRate(25)))
	assert.Empty(t, RateLine(domain.NormalStatus()))
	assert.Empty(t, RateLine(domain.DripStatus{Kind: domain.DripBlocked, Rate: 40, HasRate: true}))
}

func TestStatusColor(t *testing.T) {
	assert.Equal(t, ColorError, StatusColor(domain.StoppedStatus()))
	assert.Equal(t, ColorError, StatusColor(domain.BlockedStatus()))
	assert.Equal(t, ColorSuccess, StatusColor(domain.NormalStatus()))
	assert.Equal(t, ColorWarning, StatusColor(domain.UnknownStatus()))
}

func TestRenderStatusContainsTitle(t *testing.T) {
	got := RenderStatus(domain.StoppedStatus())
	assert.Contains(t, got, IconStopped)
	assert.Contains(t, got, "DRIP STOPPED")

	got = RenderStatus(domain.UnknownStatus())
	assert.Contains(t, got, "UNKNOWN STATUS")
}

func TestRenderConnection(t *testing.T) {
	assert.Contains(t, RenderConnection(connectors.ConnectionStateConnected, "Testing"), "Connected to Testing")
	assert.Contains(t, RenderConnection(connectors.ConnectionStateConnecting, "Testing"), "Connecting to Testing...")
	assert.Contains(t, RenderConnection(connectors.ConnectionStateFailed, "Testing"), "Connection failed")
	assert.Contains(t, RenderConnection("", ""), "Disconnected")
}
