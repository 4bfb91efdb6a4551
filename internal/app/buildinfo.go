package app

import (
	"runtime/debug"
	"strings"
	"time"
)

// Filled by ldflags in release builds.
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

var readBuildInfo = debug.ReadBuildInfo

const shortCommitLen = 12

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// CurrentBuild resolves build metadata from ldflags, falling back to what the
// Go toolchain embedded (module version and vcs.revision).
func CurrentBuild() BuildInfo {
	b := BuildInfo{
		Version: strings.TrimSpace(Version),
		Commit:  strings.TrimSpace(Commit),
		Date:    buildDay(BuildDate),
	}

	embedded, ok := readBuildInfo()
	if b.Version == "" || b.Version == "dev" {
		b.Version = "dev"
		if ok && embedded.Main.Version != "" && embedded.Main.Version != "(devel)" {
			b.Version = embedded.Main.Version
		}
	}
	if b.Commit == "" && ok {
		for _, setting := range embedded.Settings {
			if setting.Key == "vcs.revision" {
				b.Commit = setting.Value
			}
		}
	}
	if len(b.Commit) > shortCommitLen {
		b.Commit = b.Commit[:shortCommitLen]
	}

	return b
}

// String renders e.g. "1.2.0 (2026-01-30, 1a2b3c4d5e6f)".
func (b BuildInfo) String() string {
	var details []string
	for _, part := range []string{b.Date, b.Commit} {
		if part != "" {
			details = append(details, part)
		}
	}
	if len(details) == 0 {
		return b.Version
	}

	return b.Version + " (" + strings.Join(details, ", ") + ")"
}

// buildDay reduces an RFC 3339 timestamp or date prefix to YYYY-MM-DD.
// Anything else is returned trimmed.
func buildDay(raw string) string {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.Format(time.DateOnly)
	}
	if len(raw) >= len(time.DateOnly) {
		if t, err := time.Parse(time.DateOnly, raw[:len(time.DateOnly)]); err == nil {
			return t.Format(time.DateOnly)
		}
	}

	return raw
}
