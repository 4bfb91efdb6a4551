package bus

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/cskr/pubsub"
)

const defaultCapacity = 128

// Subscription receives the payloads of every subscribed topic in publish
// order. It is closed on Unsubscribe or when the bus closes.
type Subscription chan any

// MessageBus fans session events out to presentation and background consumers.
type MessageBus interface {
	Publish(topic string, msg any)
	Subscribe(topics ...string) Subscription
	Unsubscribe(ch Subscription, topics ...string)
	Close()
}

// PubSubBus is a MessageBus over cskr/pubsub. Calls after Close are no-ops.
type PubSubBus struct {
	ps     *pubsub.PubSub
	logger *slog.Logger

	closed atomic.Bool
}

func New(logger *slog.Logger) *PubSubBus {
	return NewWithCapacity(logger, defaultCapacity)
}

// NewWithCapacity sets the per-subscriber buffer. A full subscriber stalls
// publishers until it reads.
func NewWithCapacity(logger *slog.Logger, capacity int) *PubSubBus {
	if logger == nil {
		logger = slog.Default().With("component", "bus")
	}
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	return &PubSubBus{
		ps:     pubsub.New(capacity),
		logger: logger,
	}
}

func (b *PubSubBus) Publish(topic string, msg any) {
	if b.closed.Load() {
		b.logger.Debug("publish after close dropped", "topic", topic)

		return
	}

	b.logger.Debug("publish", "topic", topic, "payload_type", fmt.Sprintf("%T", msg))
	b.ps.Pub(msg, topic)
}

func (b *PubSubBus) Subscribe(topics ...string) Subscription {
	if b.closed.Load() {
		ch := make(Subscription)
		close(ch)

		return ch
	}

	b.logger.Debug("subscribe", "topics", topics)

	return b.ps.Sub(topics...)
}

// Unsubscribe detaches ch from topics, or from everything when none are given.
func (b *PubSubBus) Unsubscribe(ch Subscription, topics ...string) {
	if b.closed.Load() {
		return
	}

	b.logger.Debug("unsubscribe", "topics", topics)
	b.ps.Unsub(ch, topics...)
}

// Close stops the hub and closes all subscriptions. It is idempotent.
func (b *PubSubBus) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	b.ps.Shutdown()
}

// UnsubscribeDrained detaches ch while discarding whatever is still queued
// for it. Use it when the reader has already stopped: a full buffer would
// otherwise stall the hub before it sees the unsubscribe.
func UnsubscribeDrained(b MessageBus, ch Subscription, topics ...string) {
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
			}
		}
	}()

	b.Unsubscribe(ch, topics...)
	close(done)
}
