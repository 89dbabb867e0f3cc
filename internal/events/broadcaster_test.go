package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_FanOut(t *testing.T) {
	b := NewBroadcaster[AlertFired](4)
	first := b.Subscribe()
	second := b.Subscribe()
	require.Equal(t, 2, b.Subscribers())

	b.Publish(AlertFired{RuleID: 1, Pair: "BTC/USDT"})

	assert.Equal(t, 1, (<-first).RuleID)
	assert.Equal(t, 1, (<-second).RuleID)

	b.Unsubscribe(first)
	_, open := <-first
	assert.False(t, open)
	assert.Equal(t, 1, b.Subscribers())

	// unsubscribing twice is a no-op
	b.Unsubscribe(first)
}

func TestBroadcaster_DropsForSlowReader(t *testing.T) {
	b := NewBroadcaster[TradeExecuted](1)
	ch := b.Subscribe()

	b.Publish(TradeExecuted{ID: 1})
	b.Publish(TradeExecuted{ID: 2})

	assert.Equal(t, 1, (<-ch).ID)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %d", ev.ID)
	default:
	}
}

func TestBroadcaster_NilPublish(t *testing.T) {
	var b *Broadcaster[AlertFired]
	assert.NotPanics(t, func() { b.Publish(AlertFired{}) })
}
