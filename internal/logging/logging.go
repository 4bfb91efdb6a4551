package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/skobkin/dripmon/internal/config"
)

// Manager owns the process logger. Console output is human readable text;
// the optional log file receives JSON lines.
type Manager struct {
	mu      sync.RWMutex
	level   slog.LevelVar
	console io.Writer
	file    *os.File
	logger  *slog.Logger
}

// NewManager logs to stderr so command output on stdout stays clean.
func NewManager() *Manager {
	m := &Manager{console: os.Stderr}
	m.logger = slog.New(m.consoleHandler())

	return m
}

// SetConsole replaces the terminal destination. Full-screen views pass
// io.Discard. Takes effect on the next Configure.
func (m *Manager) SetConsole(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w == nil {
		w = io.Discard
	}
	m.console = w
}

// Configure applies cfg and installs the result as the slog default.
// filePath is only used when cfg.LogToFile is set.
func (m *Manager) Configure(cfg config.LoggingConfig, filePath string) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.closeFile(); err != nil {
		return err
	}
	m.level.Set(level)

	handlers := []slog.Handler{m.consoleHandler()}
	if cfg.LogToFile {
		file, err := openLogFile(filePath)
		if err != nil {
			return err
		}
		m.file = file
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: &m.level}))
	}

	m.logger = slog.New(fanout(handlers))
	slog.SetDefault(m.logger)

	return nil
}

func (m *Manager) Logger(component string) *slog.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.logger.With("component", component)
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closeFile()
}

func (m *Manager) consoleHandler() slog.Handler {
	if m.console == io.Discard {
		return discardHandler{}
	}

	return slog.NewTextHandler(m.console, &slog.HandlerOptions{Level: &m.level})
}

func (m *Manager) closeFile() error {
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	if err != nil {
		return fmt.Errorf("close log file: %w", err)
	}

	return nil
}

func openLogFile(path string) (*os.File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("log file path is empty")
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	// #nosec G304 -- path comes from the resolved runtime paths.
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return file, nil
}

// parseLevel accepts debug, info, warn(ing) and error. Empty means info.
func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level: %q", raw)
	}
}

// fanout sends every record to all handlers; a failing destination does
// not stop the others.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}

	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}

	return out
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
