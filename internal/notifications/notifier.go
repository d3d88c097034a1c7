// Package notifications delivers realtime user events over Redis pub/sub and
// WebSocket connections.
package notifications

import (
	"context"
	"runtime/debug"
	"strconv"
	"strings"

	"squadup/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const userChannelPrefix = "notifications:user:"

// Notifier publishes user events into Redis channels so every API replica
// can forward them to its local WebSocket clients.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier returns a Notifier. A nil client turns publishing into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether the notifier has a backing Redis client.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// PublishUser sends payload to userID's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if !n.Enabled() {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// Subscribe listens on every user channel and calls onMessage with the
// decoded user id until ctx is cancelled. It returns once the subscription
// is confirmed.
func (n *Notifier) Subscribe(ctx context.Context, onMessage func(userID uint, payload string)) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				userID, ok := ParseUserChannel(msg.Channel)
				if !ok {
					middleware.Logger.Warn("invalid notification channel", "channel", msg.Channel)
					continue
				}
				dispatch(userID, msg.Payload, onMessage)
			}
		}
	}()

	return nil
}

func dispatch(userID uint, payload string, fn func(uint, string)) {
	defer func() {
		if r := recover(); r != nil {
			middleware.Logger.Error("panic in notification subscriber",
				"user_id", userID, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn(userID, payload)
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// ParseUserChannel is the inverse of UserChannel.
func ParseUserChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
