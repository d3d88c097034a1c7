package service

import (
	"context"
	"errors"
	"testing"

	"squadup/internal/models"
	"squadup/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_DeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var revoked []uint
	svc := NewAdminService(f.userRepo, func(_ context.Context, userID uint) error {
		revoked = append(revoked, userID)
		return nil
	})

	_, admin := f.user(t, "admin", models.RoleAdmin)
	_, mod := f.user(t, "mod", models.RoleModerator)
	targetUser, target := f.user(t, "target", models.RolePlayer)
	friendUser, _ := f.user(t, "friend", models.RolePlayer)

	friends := NewFriendService(f.friendRepo, f.userRepo, nil)
	req, err := friends.SendFriendRequest(ctx, target, friendUser.ID)
	require.NoError(t, err)
	_, err = friends.RespondToFriendRequest(ctx, models.Actor{ID: friendUser.ID, Role: models.RolePlayer}, req.ID, true)
	require.NoError(t, err)
	testutil.CreateTeam(t, f.db, "Owned", targetUser, friendUser)

	err = svc.DeleteUser(ctx, mod, targetUser.ID)
	requireCode(t, err, models.CodePermissionDenied)
	err = svc.DeleteUser(ctx, target, friendUser.ID)
	requireCode(t, err, models.CodePermissionDenied)
	err = svc.DeleteUser(ctx, admin, admin.ID)
	requireCode(t, err, models.CodeInvalidArgument)
	err = svc.DeleteUser(ctx, admin, 9999)
	requireCode(t, err, models.CodeNotFound)

	require.NoError(t, svc.DeleteUser(ctx, admin, targetUser.ID))
	assert.Equal(t, []uint{targetUser.ID}, revoked)

	for _, m := range []any{&models.User{}, &models.Friendship{}, &models.Team{}, &models.TeamMember{}} {
		var count int64
		q := f.db.Model(m)
		if _, ok := m.(*models.User); ok {
			q = q.Where("id = ?", targetUser.ID)
		}
		require.NoError(t, q.Count(&count).Error)
		assert.Zero(t, count, "%T rows remain", m)
	}
}

func TestAdminService_RevokeFailureDoesNotFailDelete(t *testing.T) {
	f := newFixture(t)
	svc := NewAdminService(f.userRepo, func(context.Context, uint) error {
		return errors.New("redis down")
	})
	_, founder := f.user(t, "founder", models.RoleFounder)
	targetUser, _ := f.user(t, "target", models.RolePlayer)

	require.NoError(t, svc.DeleteUser(context.Background(), founder, targetUser.ID))
}

func TestAdminService_PlaceholdersOnlyAuthenticate(t *testing.T) {
	f := newFixture(t)
	svc := NewAdminService(f.userRepo, nil)
	_, player := f.user(t, "player", models.RolePlayer)

	names := []string{
		PlaceholderSetUserRole, PlaceholderBanUser, PlaceholderApproveTournament,
		PlaceholderDeleteTeam, PlaceholderDeleteTournament, PlaceholderDeleteTeamApplication,
	}
	for _, name := range names {
		require.NoError(t, svc.Placeholder(context.Background(), player, name))
		requireCode(t, svc.Placeholder(context.Background(), models.Actor{}, name), models.CodeUnauthenticated)
	}

	staff, err := svc.ListStaff(context.Background())
	require.NoError(t, err)
	assert.Empty(t, staff)
}

func TestAuthzPredicates(t *testing.T) {
	team := &models.Team{ID: 1, OwnerID: 10}
	owner := models.Actor{ID: 10, Role: models.RolePlayer}
	player := models.Actor{ID: 11, Role: models.RolePlayer}
	coach := models.Actor{ID: 12, Role: models.RoleCoach}
	mod := models.Actor{ID: 13, Role: models.RoleModerator}
	admin := models.Actor{ID: 14, Role: models.RoleAdmin}

	for _, pred := range []func(models.Actor, *models.Team) bool{
		CanProcessTeamApplication, CanViewTeamApplications, CanInviteToTeam,
		CanUpdateMemberGameRoles, CanKickTeamMember,
	} {
		assert.True(t, pred(owner, team))
		assert.True(t, pred(mod, team))
		assert.True(t, pred(admin, team))
		assert.False(t, pred(player, team))
		assert.False(t, pred(coach, team))
	}

	assert.True(t, CanDeleteUser(admin))
	assert.True(t, CanDeleteUser(models.Actor{ID: 1, Role: models.RoleFounder}))
	assert.False(t, CanDeleteUser(mod))

	req := &models.FriendRequest{FromID: 10, ToID: 11}
	assert.True(t, CanRespondToFriendRequest(player, req))
	assert.False(t, CanRespondToFriendRequest(owner, req))
	assert.True(t, CanCancelFriendRequest(owner, req))
	assert.False(t, CanCancelFriendRequest(player, req))
}
