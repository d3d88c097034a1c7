package service

import (
	"context"
	"testing"

	"squadup/internal/models"
	"squadup/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendService_SendFriendRequestValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewFriendService(f.friendRepo, f.userRepo, f.events)
	ctx := context.Background()
	_, alice := f.user(t, "alice", models.RolePlayer)

	tests := []struct {
		name  string
		actor models.Actor
		to    uint
		code  string
	}{
		{"no caller", models.Actor{}, 42, models.CodeUnauthenticated},
		{"missing target", alice, 0, models.CodeInvalidArgument},
		{"self", alice, alice.ID, models.CodeInvalidArgument},
		{"unknown target", alice, 9999, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SendFriendRequest(ctx, tt.actor, tt.to)
			requireCode(t, err, tt.code)
		})
	}
}

func TestFriendService_SendSnapshotsSenderAndBlocksDuplicates(t *testing.T) {
	f := newFixture(t)
	svc := NewFriendService(f.friendRepo, f.userRepo, f.events)
	ctx := context.Background()
	aliceUser, alice := f.user(t, "alice", models.RolePlayer)
	bobUser, bob := f.user(t, "bob", models.RolePlayer)

	req, err := svc.SendFriendRequest(ctx, alice, bobUser.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestPending, req.Status)
	assert.Equal(t, aliceUser.DisplayName, req.FromDisplayName)
	assert.Equal(t, aliceUser.AvatarURL, req.FromAvatarURL)
	assert.Equal(t, []string{notifications.EventFriendRequestReceived}, f.events.typesFor(bobUser.ID))

	_, err = svc.SendFriendRequest(ctx, alice, bobUser.ID)
	requireCode(t, err, models.CodeAlreadyExists)

	// The reverse direction counts as the same pending pair.
	_, err = svc.SendFriendRequest(ctx, bob, aliceUser.ID)
	requireCode(t, err, models.CodeAlreadyExists)
}

func TestFriendService_AcceptLinksOnceThenNotFound(t *testing.T) {
	f := newFixture(t)
	svc := NewFriendService(f.friendRepo, f.userRepo, f.events)
	ctx := context.Background()
	aliceUser, alice := f.user(t, "alice", models.RolePlayer)
	bobUser, bob := f.user(t, "bob", models.RolePlayer)
	_, carol := f.user(t, "carol", models.RolePlayer)

	req, err := svc.SendFriendRequest(ctx, alice, bobUser.ID)
	require.NoError(t, err)

	_, err = svc.RespondToFriendRequest(ctx, carol, req.ID, true)
	requireCode(t, err, models.CodePermissionDenied)
	_, err = svc.RespondToFriendRequest(ctx, alice, req.ID, true)
	requireCode(t, err, models.CodePermissionDenied)

	accepted, err := svc.RespondToFriendRequest(ctx, bob, req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestAccepted, accepted.Status)
	assert.Contains(t, f.events.typesFor(aliceUser.ID), notifications.EventFriendRequestAccepted)

	_, err = svc.RespondToFriendRequest(ctx, bob, req.ID, true)
	requireCode(t, err, models.CodeNotFound)

	var links int64
	require.NoError(t, f.db.Model(&models.Friendship{}).Count(&links).Error)
	assert.Equal(t, int64(2), links)

	state, _, err := svc.FriendshipStatus(ctx, alice, bobUser.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipFriends, state)
}

func TestFriendService_RejectDeletesRequest(t *testing.T) {
	f := newFixture(t)
	svc := NewFriendService(f.friendRepo, f.userRepo, f.events)
	ctx := context.Background()
	aliceUser, alice := f.user(t, "alice", models.RolePlayer)
	bobUser, bob := f.user(t, "bob", models.RolePlayer)

	req, err := svc.SendFriendRequest(ctx, alice, bobUser.ID)
	require.NoError(t, err)

	rejected, err := svc.RespondToFriendRequest(ctx, bob, req.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestRejected, rejected.Status)
	assert.Contains(t, f.events.typesFor(aliceUser.ID), notifications.EventFriendRequestRejected)

	_, err = f.friendRepo.GetRequest(ctx, req.ID)
	requireCode(t, err, models.CodeNotFound)

	var links int64
	require.NoError(t, f.db.Model(&models.Friendship{}).Count(&links).Error)
	assert.Zero(t, links)

	// A fresh request is allowed after a rejection.
	_, err = svc.SendFriendRequest(ctx, alice, bobUser.ID)
	require.NoError(t, err)
}

func TestFriendService_CancelOnlyBySender(t *testing.T) {
	f := newFixture(t)
	svc := NewFriendService(f.friendRepo, f.userRepo, f.events)
	ctx := context.Background()
	_, alice := f.user(t, "alice", models.RolePlayer)
	bobUser, bob := f.user(t, "bob", models.RolePlayer)

	req, err := svc.SendFriendRequest(ctx, alice, bobUser.ID)
	require.NoError(t, err)

	_, err = svc.CancelFriendRequest(ctx, bob, req.ID)
	requireCode(t, err, models.CodePermissionDenied)

	_, err = svc.CancelFriendRequest(ctx, alice, req.ID)
	require.NoError(t, err)
	assert.Contains(t, f.events.typesFor(bobUser.ID), notifications.EventFriendRequestCancelled)

	state, pending, err := svc.FriendshipStatus(ctx, alice, bobUser.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipNone, state)
	assert.Nil(t, pending)
}

func TestFriendService_RemoveFriendIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := NewFriendService(f.friendRepo, f.userRepo, f.events)
	ctx := context.Background()
	aliceUser, alice := f.user(t, "alice", models.RolePlayer)
	bobUser, bob := f.user(t, "bob", models.RolePlayer)

	req, err := svc.SendFriendRequest(ctx, alice, bobUser.ID)
	require.NoError(t, err)
	_, err = svc.RespondToFriendRequest(ctx, bob, req.ID, true)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveFriend(ctx, alice, bobUser.ID))
	require.NoError(t, svc.RemoveFriend(ctx, alice, bobUser.ID))
	require.NoError(t, svc.RemoveFriend(ctx, bob, aliceUser.ID))

	var links, reqs int64
	require.NoError(t, f.db.Model(&models.Friendship{}).Count(&links).Error)
	require.NoError(t, f.db.Model(&models.FriendRequest{}).Count(&reqs).Error)
	assert.Zero(t, links)
	assert.Zero(t, reqs)

	err = svc.RemoveFriend(ctx, alice, 0)
	requireCode(t, err, models.CodeInvalidArgument)
	err = svc.RemoveFriend(ctx, alice, aliceUser.ID)
	requireCode(t, err, models.CodeInvalidArgument)
	err = svc.RemoveFriend(ctx, models.Actor{}, bobUser.ID)
	requireCode(t, err, models.CodeUnauthenticated)
}

func TestFriendService_FriendshipStatusDirections(t *testing.T) {
	f := newFixture(t)
	svc := NewFriendService(f.friendRepo, f.userRepo, f.events)
	ctx := context.Background()
	aliceUser, alice := f.user(t, "alice", models.RolePlayer)
	bobUser, bob := f.user(t, "bob", models.RolePlayer)

	state, _, err := svc.FriendshipStatus(ctx, alice, aliceUser.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipSelf, state)

	req, err := svc.SendFriendRequest(ctx, alice, bobUser.ID)
	require.NoError(t, err)

	state, pending, err := svc.FriendshipStatus(ctx, alice, bobUser.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipPendingSent, state)
	require.NotNil(t, pending)
	assert.Equal(t, req.ID, pending.ID)

	state, _, err = svc.FriendshipStatus(ctx, bob, aliceUser.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipPendingReceived, state)

	incoming, err := svc.ListIncomingRequests(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, incoming, 1)
	sent, err := svc.ListSentRequests(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, sent, 1)

	_, _, err = svc.FriendshipStatus(ctx, alice, 9999)
	requireCode(t, err, models.CodeNotFound)
}
