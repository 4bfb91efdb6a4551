package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/skobkin/dripmon/internal/alert"
	"github.com/skobkin/dripmon/internal/bus"
	"github.com/skobkin/dripmon/internal/config"
	"github.com/skobkin/dripmon/internal/connectors"
	"github.com/skobkin/dripmon/internal/logging"
	"github.com/skobkin/dripmon/internal/notifications"
	"github.com/skobkin/dripmon/internal/persistence"
)

// Options tune Initialize for the calling command.
type Options struct {
	// ConfigFile overrides the config location resolved from the user config dir.
	ConfigFile string
	// EnvFile is loaded before the config; defaults to .env in the working dir.
	EnvFile string
	// Console receives log lines; nil keeps stderr.
	Console io.Writer
	// Override is applied to the loaded config before validation, e.g. for flags.
	Override func(*config.AppConfig)
}

type Runtime struct {
	mu sync.RWMutex

	Ctx    context.Context
	cancel context.CancelFunc
	// stopJournal ends the journal writer and projection. They are not tied
	// to Ctx; Close stops them after the session has flushed.
	stopJournal context.CancelFunc

	Paths  Paths
	Config config.AppConfig

	LogManager  *logging.Manager
	Bus         *bus.PubSubBus
	DB          *sql.DB
	EventRepo   *persistence.EventRepo
	WriterQueue *persistence.WriterQueue
	Journal     *Journal

	Session       *Session
	Notifications *NotificationService

	connStatusMu    sync.RWMutex
	connStatus      connectors.ConnectionStatus
	connStatusKnown bool
}

// LoadConfig resolves paths and reads the config the same way Initialize does.
func LoadConfig(opts Options) (Paths, config.AppConfig, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return Paths{}, config.AppConfig{}, err
	}
	paths = paths.WithConfigFile(opts.ConfigFile)

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = EnvFilename
	}
	if err := config.LoadDotEnv(envFile); err != nil {
		return Paths{}, config.AppConfig{}, err
	}

	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return Paths{}, config.AppConfig{}, err
	}
	if opts.Override != nil {
		opts.Override(&cfg)
		cfg.FillMissingDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return Paths{}, config.AppConfig{}, fmt.Errorf("invalid config %s: %w", paths.ConfigFile, err)
	}

	return paths, cfg, nil
}

func Initialize(parent context.Context, opts Options) (*Runtime, error) {
	paths, cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	rt := &Runtime{
		Ctx:    ctx,
		cancel: cancel,
		Paths:  paths,
		Config: cfg,
	}

	logMgr := logging.NewManager()
	if opts.Console != nil {
		logMgr.SetConsole(opts.Console)
	}
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		_ = logMgr.Close()
		cancel()
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	rt.LogManager = logMgr
	build := CurrentBuild()
	slog.Info("starting dripmon runtime", "version", build.Version, "build_date", build.Date, "config", paths.ConfigFile)

	b := bus.New(logMgr.Logger("bus"))
	rt.Bus = b
	connSub := b.Subscribe(connectors.TopicConnStatus)
	go rt.captureConnStatus(connSub)

	journalCtx := ctx
	if cfg.History.Enabled {
		db, err := persistence.Open(ctx, paths.DBFile)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.DB = db
		rt.EventRepo = persistence.NewEventRepo(db)

		journalCtx, rt.stopJournal = context.WithCancel(context.WithoutCancel(ctx))
		writerQueue := persistence.NewWriterQueue(logMgr.Logger("persistence"), 512)
		writerQueue.Start(journalCtx)
		rt.WriterQueue = writerQueue
		rt.Journal = NewJournal(rt.EventRepo, writerQueue, cfg.History.Keep, logMgr.Logger("app.journal"))
	}

	transports, err := NewTransportFactory(cfg.Connection)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("initialize transport: %w", err)
	}

	var notifier notifications.Sender
	if cfg.Alert.Notify {
		notifier = notifications.NewDesktopSender(Name, logMgr.Logger("notifications"))
	}
	cue := alert.OpenCue(CueOptionsFromConfig(cfg.Alert), logMgr.Logger("alert.cue"))

	rt.Session = NewSession(SessionDeps{
		Bus:            b,
		Transports:     transports,
		Cue:            cue,
		Notifier:       notifier,
		Journal:        rt.Journal,
		ConnectTimeout: cfg.Connection.ConnectTimeout(),
		Logger:         logMgr.Logger("app.session"),
	})
	rt.Journal.Start(journalCtx, b, rt.Session.DeviceName)

	if notifier != nil {
		rt.Notifications = NewNotificationService(b, rt.CurrentConfig, notifier, logMgr.Logger("app.notifications"))
		rt.Notifications.Start(ctx)
	}

	return rt, nil
}

// CueOptionsFromConfig maps the alert section to cue options.
func CueOptionsFromConfig(cfg config.AlertConfig) alert.CueOptions {
	tones := make([]alert.Tone, 0, len(cfg.Tones))
	for _, t := range cfg.Tones {
		tones = append(tones, alert.Tone{
			Frequency: t.FrequencyHz,
			Duration:  time.Duration(t.DurationMS) * time.Millisecond,
			Gap:       time.Duration(t.GapMS) * time.Millisecond,
		})
	}

	return alert.CueOptions{Sound: cfg.Sound, Tones: tones}
}

// captureConnStatus runs until the bus closes so the last status survives an
// interrupt.
func (r *Runtime) captureConnStatus(sub bus.Subscription) {
	for raw := range sub {
		if status, ok := raw.(connectors.ConnectionStatus); ok {
			r.setConnStatus(status)
		}
	}
}

func (r *Runtime) setConnStatus(status connectors.ConnectionStatus) {
	r.connStatusMu.Lock()
	r.connStatus = status
	r.connStatusKnown = true
	r.connStatusMu.Unlock()
}

// CurrentConnStatus returns the latest connection status seen on the bus.
func (r *Runtime) CurrentConnStatus() (connectors.ConnectionStatus, bool) {
	r.connStatusMu.RLock()
	status := r.connStatus
	known := r.connStatusKnown
	r.connStatusMu.RUnlock()
	return status, known
}

func (r *Runtime) CurrentConfig() config.AppConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.Config
}

// ClearHistory deletes every journal row.
func (r *Runtime) ClearHistory() error {
	if r.DB == nil {
		return fmt.Errorf("history is not enabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Journal.Flush(ctx); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}
	deleted, err := persistence.ClearEvents(ctx, r.DB)
	if err != nil {
		return err
	}
	slog.Info("history cleared", "deleted", deleted)

	return nil
}

// Close shuts the session down first so the alarm goes quiet and the
// journal is flushed before the database closes.
func (r *Runtime) Close() error {
	var sessionErr error
	if r.Session != nil {
		sessionErr = r.Session.Close()
	}
	if r.stopJournal != nil {
		r.stopJournal()
	}
	if r.WriterQueue != nil {
		if dropped, failed := r.WriterQueue.Dropped(), r.WriterQueue.Failed(); dropped > 0 || failed > 0 {
			slog.Warn("journal writes lost", "dropped", dropped, "failed", failed)
		}
	}
	if r.cancel != nil {
		r.cancel()
	}
	if r.Bus != nil {
		r.Bus.Close()
	}
	if r.DB != nil {
		_ = r.DB.Close()
	}
	if r.LogManager != nil {
		_ = r.LogManager.Close()
	}
	return sessionErr
}

// OpenHistory opens the journal for the history command.
// It reports false when the database has never been created.
func OpenHistory(ctx context.Context, paths Paths) (*persistence.EventRepo, func() error, bool, error) {
	if _, err := os.Stat(paths.DBFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, false, nil
		}

		return nil, nil, false, fmt.Errorf("stat history db: %w", err)
	}
	db, err := persistence.Open(ctx, paths.DBFile)
	if err != nil {
		return nil, nil, false, err
	}

	return persistence.NewEventRepo(db), db.Close, true, nil
}

// ClearHistoryFile empties the journal database without starting a runtime
// and returns the number of deleted entries. It reports false when there is
// no database to clear.
func ClearHistoryFile(ctx context.Context, paths Paths) (int64, bool, error) {
	if _, err := os.Stat(paths.DBFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, false, nil
		}

		return 0, false, fmt.Errorf("stat history db: %w", err)
	}
	db, err := persistence.Open(ctx, paths.DBFile)
	if err != nil {
		return 0, false, err
	}
	defer func() {
		_ = db.Close()
	}()

	deleted, err := persistence.ClearEvents(ctx, db)
	if err != nil {
		return 0, false, err
	}

	return deleted, true, nil
}
