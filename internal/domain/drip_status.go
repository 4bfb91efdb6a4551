package domain

import (
	"fmt"
	"time"
)

type DripKind string

const (
	DripUnknown DripKind = "unknown"
	DripNormal  DripKind = "normal"
	DripBlocked DripKind = "blocked"
	DripStopped DripKind = "stopped"
)

// DripStatus is the clinical state carried by one inbound status message.
// Rate is meaningful only for DripNormal and only when HasRate is set.
type DripStatus struct {
	Kind    DripKind
	Rate    int
	HasRate bool
}

func StoppedStatus() DripStatus {
	return DripStatus{Kind: DripStopped}
}

func BlockedStatus() DripStatus {
	return DripStatus{Kind: DripBlocked}
}

func NormalStatus() DripStatus {
	return DripStatus{Kind: DripNormal}
}

func NormalStatusWithRate(rate int) DripStatus {
	return DripStatus{Kind: DripNormal, Rate: rate, HasRate: true}
}

func UnknownStatus() DripStatus {
	return DripStatus{Kind: DripUnknown}
}

// Alerting reports the derived alert state: true only for stopped and blocked drips.
func (s DripStatus) Alerting() bool {
	return s.Kind == DripStopped || s.Kind == DripBlocked
}

func (s DripStatus) Title() string {
	switch s.Kind {
	case DripStopped:
		return "DRIP STOPPED"
	case DripBlocked:
		return "DRIP BLOCKED"
	case DripNormal:
		return "NORMAL DRIP"
	default:
		return "UNKNOWN STATUS"
	}
}

func (s DripStatus) String() string {
	kind := s.Kind
	if kind == "" {
		kind = DripUnknown
	}
	if kind == DripNormal && s.HasRate {
		return fmt.Sprintf("%s (%d drops/min)", kind, s.Rate)
	}

	return string(kind)
}

// DripReading is a classified status message as observed by a session.
type DripReading struct {
	Device string
	Raw    string
	Status DripStatus
	At     time.Time
}
