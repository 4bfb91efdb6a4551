// Package drip turns the free-text status messages of a drip sensor into
// clinical states.
package drip

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/skobkin/dripmon/internal/domain"
)

// Marker phrases are matched case-sensitively, exactly as the sensor sends them.
const (
	MarkerDripStopped   = "Drip stopped"
	MarkerChamberFilled = "chamber filled"
	MarkerDripTooFast   = "Drip too fast"
	RateUnit            = "drops/min"
)

var rateExpr = regexp.MustCompile(`(\d+) ` + regexp.QuoteMeta(RateUnit))

// Classify maps one status message to a DripStatus. Stopped markers win over
// the blocked marker; anything else is a normal drip with an optional rate.
// Blank frames carry no information and classify as unknown.
func Classify(raw string) domain.DripStatus {
	if strings.TrimSpace(raw) == "" {
		return domain.UnknownStatus()
	}
	if strings.Contains(raw, MarkerDripStopped) || strings.Contains(raw, MarkerChamberFilled) {
		return domain.StoppedStatus()
	}
	if strings.Contains(raw, MarkerDripTooFast) {
		return domain.BlockedStatus()
	}

	if rate, ok := ExtractRate(raw); ok {
		return domain.NormalStatusWithRate(rate)
	}

	return domain.NormalStatus()
}

// ExtractRate returns the first "<digits> drops/min" value in raw.
func ExtractRate(raw string) (int, bool) {
	m := rateExpr.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	rate, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	return rate, true
}
