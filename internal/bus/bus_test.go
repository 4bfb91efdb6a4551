package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub Subscription) any {
	t.Helper()
	select {
	case msg, ok := <-sub:
		require.True(t, ok, "subscription closed")
		return msg
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message")
		return nil
	}
}

func TestPubSubBusDeliversInPublishOrderAcrossTopics(t *testing.T) {
	b := New(nil)
	defer b.Close()

	sub := b.Subscribe("a", "b")
	b.Publish("a", 1)
	b.Publish("b", 2)
	b.Publish("a", 3)

	assert.Equal(t, 1, receive(t, sub))
	assert.Equal(t, 2, receive(t, sub))
	assert.Equal(t, 3, receive(t, sub))
}

func TestPubSubBusUnsubscribeStopsDelivery(t *testing.T) {
	b := NewWithCapacity(nil, 4)
	defer b.Close()

	sub := b.Subscribe("a")
	other := b.Subscribe("a")
	b.Unsubscribe(sub, "a")
	b.Publish("a", "x")

	assert.Equal(t, "x", receive(t, other))
	select {
	case _, ok := <-sub:
		assert.False(t, ok, "unsubscribed channel must be closed, not fed")
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("expected unsubscribed channel to be closed")
	}
}

func TestPubSubBusCallsAfterCloseDoNotBlock(t *testing.T) {
	b := New(nil)
	sub := b.Subscribe("a")
	b.Close()
	b.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Publish("a", 1)
		b.Unsubscribe(sub, "a")
		late := b.Subscribe("a")
		_, ok := <-late
		assert.False(t, ok, "subscription after close must be closed")
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("bus call blocked after close")
	}
}

func TestUnsubscribeDrainedReleasesStalledHub(t *testing.T) {
	b := NewWithCapacity(nil, 1)
	defer b.Close()

	stalled := b.Subscribe("a", "b")
	other := b.Subscribe("b")

	published := make(chan struct{})
	go func() {
		defer close(published)
		for i := 0; i < 5; i++ {
			b.Publish("a", i)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		UnsubscribeDrained(b, stalled)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("unsubscribe blocked behind a full subscriber")
	}
	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatalf("publisher still blocked after unsubscribe")
	}

	b.Publish("b", "after")
	assert.Equal(t, "after", receive(t, other))
}
