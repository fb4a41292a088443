package events

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	bus := NewInProcessBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func receive(t *testing.T, ch <-chan ChangeEvent) ChangeEvent {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
	return ChangeEvent{}
}

func TestBus_PublishSubscribe(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, CollectionCourses)
	require.NoError(t, err)

	require.NoError(t, bus.PublishChange(ctx, ChangeEvent{Collection: CollectionCourses, ID: "c1", Op: OpUpdated, Version: 3}))

	evt := receive(t, ch)
	assert.Equal(t, "c1", evt.ID)
	assert.Equal(t, OpUpdated, evt.Op)
	assert.Equal(t, 3, evt.Version)
	assert.False(t, evt.At.IsZero())
}

func TestBus_TopicsAreIsolated(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	courses, err := bus.Subscribe(ctx, CollectionCourses)
	require.NoError(t, err)
	events, err := bus.Subscribe(ctx, CollectionEvents)
	require.NoError(t, err)

	require.NoError(t, bus.PublishChange(ctx, ChangeEvent{Collection: CollectionEvents, ID: "e1", Op: OpCreated}))

	assert.Equal(t, "e1", receive(t, events).ID)
	select {
	case evt := <-courses:
		t.Fatalf("unexpected course event %+v", evt)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBus_SubscriptionEndsWithContext(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := bus.Subscribe(ctx, CollectionAnnouncements)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not close")
	}
}

func TestBus_RejectsUnknownCollection(t *testing.T) {
	bus := newTestBus(t)
	_, err := bus.Subscribe(context.Background(), "users")
	assert.Error(t, err)
	assert.False(t, IsWatchable("users"))
	assert.True(t, IsWatchable(CollectionCourses))
}
