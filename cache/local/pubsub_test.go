package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubSubBasic(t *testing.T) {
	ps := NewPubSub(16)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "catalog")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "catalog", `{"action":"upsert"}`))

	select {
	case msg := <-ch:
		assert.Equal(t, "catalog", msg.Channel)
		assert.Equal(t, `{"action":"upsert"}`, msg.Payload)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
}

func TestPubSubOtherChannel(t *testing.T) {
	ps := NewPubSub(4)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "catalog")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "elsewhere", "x"))
	select {
	case msg := <-ch:
		t.Fatalf("unexpected message %+v", msg)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestPubSubCancelClosesAndIsIdempotent(t *testing.T) {
	ps := NewPubSub(4)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "a", "b")
	require.NoError(t, err)
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.NoError(t, ps.Publish(ctx, "a", "after-cancel"))
}

func TestPubSubDropsWhenFull(t *testing.T) {
	ps := NewPubSub(1)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "catalog")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "catalog", "1"))
	require.NoError(t, ps.Publish(ctx, "catalog", "2"))

	msg := <-ch
	assert.Equal(t, "1", msg.Payload)
	assert.Len(t, ch, 0)
}
