package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectChatIDIsOrderIndependent(t *testing.T) {
	assert.Equal(t, DirectChatID(7, 3), DirectChatID(3, 7))
	assert.Equal(t, "dm_3_7", DirectChatID(7, 3))
	assert.Equal(t, "dm_9_10", DirectChatID(10, 9))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, RolePlayer, r)

	r, err = ParseRole("founder")
	require.NoError(t, err)
	assert.True(t, r.IsAdmin())
	assert.True(t, r.IsStaff())

	_, err = ParseRole("superuser")
	assert.Error(t, err)

	assert.True(t, RoleModerator.IsStaff())
	assert.False(t, RoleModerator.IsAdmin())
	assert.False(t, RoleCoach.IsStaff())
	assert.False(t, Role("root").Valid())
}

func TestSortNotificationsMostRecentFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	items := []Notification{
		NewFriendRequestNotification(&FriendRequest{ID: 1, CreatedAt: base}),
		NewInviteNotification(&TeamApplication{ID: 2, Type: ApplicationTypeInvite, CreatedAt: base.Add(2 * time.Hour)}),
		NewApplicationNotification(&TeamApplication{ID: 3, CreatedAt: base.Add(time.Hour)}),
	}

	SortNotifications(items)

	assert.Equal(t, NotificationInvite, items[0].Kind())
	assert.Equal(t, NotificationApplication, items[1].Kind())
	assert.Equal(t, NotificationFriendRequest, items[2].Kind())
}

func TestNotificationJSONIsFlat(t *testing.T) {
	n := NewApplicationNotification(&TeamApplication{
		ID:              4,
		TeamID:          8,
		TeamName:        "Night Owls",
		UserID:          2,
		UserDisplayName: "Rook",
	})

	raw, err := json.Marshal(n)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "application", decoded["type"])
	assert.Equal(t, "app_4", decoded["id"])
	assert.Equal(t, "Night Owls", decoded["team"].(map[string]any)["name"])
	assert.Equal(t, "Rook", decoded["applicant"].(map[string]any)["display_name"])
}
