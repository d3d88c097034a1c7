package notifications

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"squadup/internal/featureflags"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func readEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg := <-c.Send:
		var ev Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestUserChannelRoundTrip(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "notifications:user:17", UserChannel(17))

	id, ok := ParseUserChannel("notifications:user:17")
	assert.True(t, ok)
	assert.Equal(t, uint(17), id)

	for _, bad := range []string{"notifications:user:", "notifications:user:abc", "chat:conv:1", "notifications:user:0"} {
		_, ok := ParseUserChannel(bad)
		assert.False(t, ok, bad)
	}
}

func TestNotifierNilClientIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.False(t, n.Enabled())
	assert.NoError(t, n.PublishUser(context.Background(), 1, "x"))
	assert.NoError(t, n.Subscribe(context.Background(), func(uint, string) {}))
}

func TestHubLimitsAndUnregister(t *testing.T) {
	hub := NewHub()

	clients := make([]*Client, 0, maxConnsPerUser)
	for i := 0; i < maxConnsPerUser; i++ {
		c, err := hub.Register(3, nil)
		require.NoError(t, err)
		clients = append(clients, c)
	}
	_, err := hub.Register(3, nil)
	assert.ErrorIs(t, err, ErrUserConnLimit)
	assert.Equal(t, maxConnsPerUser, hub.Connections(3))

	hub.Unregister(clients[0])
	hub.Unregister(clients[0])
	assert.Equal(t, maxConnsPerUser-1, hub.Connections(3))

	_, open := <-clients[0].Send
	assert.False(t, open)

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Equal(t, 0, hub.Connections(3))
	// Unregister after shutdown must not double-close.
	hub.Unregister(clients[1])
}

func TestTrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(4, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+5; i++ {
		c.TrySend([]byte(`{"type":"x"}`))
	}
	assert.Len(t, c.Send, sendBuffer)

	hub.Unregister(c)
	assert.NotPanics(t, func() { c.TrySend([]byte("late")) })
}

func TestPublisherDeliversThroughRedis(t *testing.T) {
	rdb := newRedis(t)
	hub := NewHub()
	notifier := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, notifier))

	target, err := hub.Register(9, nil)
	require.NoError(t, err)
	other, err := hub.Register(10, nil)
	require.NoError(t, err)

	pub := NewPublisher(notifier, hub, featureflags.Parse("realtime_push=on"))
	pub.PublishUser(context.Background(), 9, EventFriendRequestReceived, map[string]any{"request_id": 1})

	ev := readEvent(t, target)
	assert.Equal(t, EventFriendRequestReceived, ev.Type)
	assert.Empty(t, other.Send)
}

func TestPublisherFallsBackToLocalHub(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(5, nil)
	require.NoError(t, err)

	pub := NewPublisher(NewNotifier(nil), hub, featureflags.Parse("realtime_push=on"))
	pub.PublishUser(context.Background(), 5, EventTeamInviteReceived, map[string]any{"team_id": 2})

	ev := readEvent(t, c)
	assert.Equal(t, EventTeamInviteReceived, ev.Type)
}

func TestPublisherRespectsFlag(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(5, nil)
	require.NoError(t, err)

	NewPublisher(nil, hub, featureflags.Parse("realtime_push=off")).
		PublishUser(context.Background(), 5, EventFriendRemoved, nil)
	var nilPub *Publisher
	nilPub.PublishUser(context.Background(), 5, EventFriendRemoved, nil)

	assert.Empty(t, c.Send)
}

func TestSubscriberStopsOnCancel(t *testing.T) {
	rdb := newRedis(t)
	n := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var got []string
	require.NoError(t, n.Subscribe(ctx, func(_ uint, payload string) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, payload)
	}))

	require.NoError(t, n.PublishUser(context.Background(), 1, "before"))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, n.PublishUser(context.Background(), 1, "after"))
	assert.Never(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 1
	}, 200*time.Millisecond, 10*time.Millisecond)
}
