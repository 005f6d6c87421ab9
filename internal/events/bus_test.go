package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishSubscribe(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsubscribe := b.Subscribe(1)
	defer unsubscribe()

	b.Publish(Change{Key: "cart", Origin: OriginLocal})

	select {
	case got := <-ch:
		require.Equal(t, "cart", got.Key)
		require.Equal(t, OriginLocal, got.Origin)
	case <-time.After(250 * time.Millisecond):
		t.Fatal("timed out waiting for change")
	}
}

func TestBusPublishNeverBlocks(t *testing.T) {
	b := NewBus()
	defer b.Close()

	_, unsubscribe := b.Subscribe(0) // no buffer, no receiver
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		b.Publish(Change{Key: "cart"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(250 * time.Millisecond):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsubscribe := b.Subscribe(1)
	unsubscribe()
	unsubscribe() // idempotent

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, b.SubscriberCount())
}

func TestBusClose(t *testing.T) {
	b := NewBus()
	ch, _ := b.Subscribe(1)
	b.Close()

	_, open := <-ch
	assert.False(t, open)

	// Publishing and subscribing after close are safe no-ops.
	b.Publish(Change{Key: "cart"})
	ch2, _ := b.Subscribe(1)
	_, open = <-ch2
	assert.False(t, open)
}
