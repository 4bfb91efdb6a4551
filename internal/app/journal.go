package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/skobkin/dripmon/internal/alert"
	"github.com/skobkin/dripmon/internal/bus"
	"github.com/skobkin/dripmon/internal/connectors"
	"github.com/skobkin/dripmon/internal/domain"
	"github.com/skobkin/dripmon/internal/persistence"
)

// Journal records session events to the history database through the
// writer queue. A nil *Journal records nothing.
type Journal struct {
	repo   domain.JournalRepository
	writer *persistence.WriterQueue
	keep   int
	logger *slog.Logger

	mu       sync.Mutex
	appended int
}

func NewJournal(repo domain.JournalRepository, writer *persistence.WriterQueue, keep int, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default().With("component", "app.journal")
	}

	return &Journal{repo: repo, writer: writer, keep: keep, logger: logger}
}

func (j *Journal) Record(e domain.JournalEntry) {
	if j == nil || j.repo == nil || j.writer == nil {
		return
	}

	j.writer.Enqueue("journal_append", func(ctx context.Context) error {
		_, err := j.repo.Append(ctx, e)

		return err
	})

	j.mu.Lock()
	j.appended++
	prune := j.keep > 0 && j.appended%HistoryPruneEvery == 0
	j.mu.Unlock()
	if prune {
		j.writer.Enqueue("journal_prune", func(ctx context.Context) error {
			deleted, err := j.repo.Prune(ctx, j.keep)
			if err == nil && deleted > 0 {
				j.logger.Debug("journal pruned", "deleted", deleted, "keep", j.keep)
			}

			return err
		})
	}
}

func (j *Journal) RecordReading(r domain.DripReading) {
	j.Record(domain.JournalEntry{
		Kind:   domain.JournalReading,
		Device: r.Device,
		Raw:    r.Raw,
		Status: r.Status,
		At:     r.At,
	})
}

func (j *Journal) RecordAlert(tr alert.Transition) {
	j.Record(domain.JournalEntry{
		Kind:     domain.JournalAlert,
		Device:   tr.Device,
		Alerting: tr.Alerting(),
		Detail:   tr.Status.Title(),
		At:       tr.At,
	})
}

func (j *Journal) RecordConnection(status connectors.ConnectionStatus, device string) {
	j.Record(domain.JournalEntry{
		Kind:   domain.JournalConnection,
		Device: device,
		State:  status.State.String(),
		Detail: status.Err,
		At:     status.Timestamp,
	})
}

// Start projects connection transitions from the bus into the journal.
func (j *Journal) Start(ctx context.Context, b bus.MessageBus, deviceName func() string) {
	if j == nil || b == nil {
		return
	}

	sub := b.Subscribe(connectors.TopicConnStatus)
	go func() {
		defer bus.UnsubscribeDrained(b, sub, connectors.TopicConnStatus)

		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-sub:
				if !ok {
					return
				}
				status, ok := raw.(connectors.ConnectionStatus)
				if !ok {
					continue
				}
				name := ""
				if deviceName != nil {
					name = deviceName()
				}
				j.RecordConnection(status, name)
			}
		}
	}()
}

// Flush waits for queued writes to land.
func (j *Journal) Flush(ctx context.Context) error {
	if j == nil || j.writer == nil {
		return nil
	}

	return j.writer.Flush(ctx)
}
