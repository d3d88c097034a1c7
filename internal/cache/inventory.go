package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix          = "user:%d"
	TriageSessionKeyPrefix = "triage:session:%s"
	RoleEpochKeyPrefix     = "auth:role_epoch:%d"
	WSTicketKeyPrefix      = "ws_ticket:%s"
)

const (
	UserTTL          = 5 * time.Minute
	TriageSessionTTL = 30 * time.Minute
	RoleEpochTTL     = 7 * 24 * time.Hour
	WSTicketTTL      = 60 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func TriageSessionKey(sessionID string) string {
	return fmt.Sprintf(TriageSessionKeyPrefix, sessionID)
}

func RoleEpochKey(userID uint) string {
	return fmt.Sprintf(RoleEpochKeyPrefix, userID)
}

func WSTicketKey(ticket string) string {
	return fmt.Sprintf(WSTicketKeyPrefix, ticket)
}

func (c *Cache) InvalidateUser(ctx context.Context, userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, UserKey(id))
	}
	c.Invalidate(ctx, keys...)
}
