package service

import (
	"context"
	"testing"

	"squadup/internal/models"
	"squadup/internal/notifications"
	"squadup/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTeamService(f *fixture) *TeamService {
	return NewTeamService(f.teamRepo, f.appRepo, f.userRepo, f.events)
}

func TestTeamService_CreateTeamSeatsOwner(t *testing.T) {
	f := newFixture(t)
	svc := newTeamService(f)
	ctx := context.Background()
	ownerUser, owner := f.user(t, "owner", models.RolePlayer)

	_, err := svc.CreateTeam(ctx, owner, CreateTeamInput{Name: "  "})
	requireCode(t, err, models.CodeInvalidArgument)
	_, err = svc.CreateTeam(ctx, owner, CreateTeamInput{Name: "Night Owls", SeekingRoles: []models.GameRole{"tank"}})
	requireCode(t, err, models.CodeInvalidArgument)

	team, err := svc.CreateTeam(ctx, owner, CreateTeamInput{
		Name:         "Night Owls",
		SeekingRoles: []models.GameRole{models.GameRoleDuelist, models.GameRoleDuelist},
		OwnerRoles:   []models.GameRole{models.GameRoleIGL},
	})
	require.NoError(t, err)
	assert.Equal(t, ownerUser.ID, team.OwnerID)
	assert.Equal(t, models.GameRoleList{models.GameRoleDuelist}, team.SeekingRoles)

	stored, err := svc.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, stored.Members, 1)
	assert.Equal(t, ownerUser.ID, stored.Members[0].UserID)
	assert.Equal(t, models.GameRoleList{models.GameRoleIGL}, stored.Members[0].GameRoles)
}

func TestTeamService_ApplyAndProcessRespectsCapacity(t *testing.T) {
	f := newFixture(t)
	svc := newTeamService(f)
	ctx := context.Background()

	ownerUser, owner := f.user(t, "owner", models.RolePlayer)
	m1, _ := f.user(t, "m1", models.RolePlayer)
	m2, _ := f.user(t, "m2", models.RolePlayer)
	m3, _ := f.user(t, "m3", models.RolePlayer)
	team := testutil.CreateTeam(t, f.db, "Night Owls", ownerUser, m1, m2, m3)

	firstUser, first := f.user(t, "first", models.RolePlayer)
	_, second := f.user(t, "second", models.RolePlayer)
	_, stranger := f.user(t, "stranger", models.RolePlayer)

	app1, err := svc.ApplyToTeam(ctx, first, team.ID, "  gg  ")
	require.NoError(t, err)
	assert.Equal(t, "gg", app1.Message)
	assert.Equal(t, firstUser.DisplayName, app1.UserDisplayName)
	assert.Equal(t, team.Name, app1.TeamName)
	assert.Contains(t, f.events.typesFor(ownerUser.ID), notifications.EventTeamApplicationCreated)

	_, err = svc.ApplyToTeam(ctx, first, team.ID, "")
	requireCode(t, err, models.CodeAlreadyExists)

	// Both applications are valid when filed; capacity is decided on accept.
	app2, err := svc.ApplyToTeam(ctx, second, team.ID, "")
	require.NoError(t, err)

	_, err = svc.ProcessTeamApplication(ctx, stranger, app1.ID, true)
	requireCode(t, err, models.CodePermissionDenied)

	accepted, err := svc.ProcessTeamApplication(ctx, owner, app1.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationAccepted, accepted.Status)

	_, err = svc.ProcessTeamApplication(ctx, owner, app2.ID, true)
	requireCode(t, err, models.CodeFailedPrecondition)

	var size int64
	require.NoError(t, f.db.Model(&models.TeamMember{}).Where("team_id = ?", team.ID).Count(&size).Error)
	assert.Equal(t, int64(models.MaxTeamSize), size)

	still, err := f.appRepo.GetByID(ctx, app2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, still.Status)

	rejected, err := svc.ProcessTeamApplication(ctx, owner, app2.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationRejected, rejected.Status)

	_, err = svc.ProcessTeamApplication(ctx, owner, app2.ID, true)
	requireCode(t, err, models.CodeNotFound)
}

func TestTeamService_StaffCanProcessApplications(t *testing.T) {
	f := newFixture(t)
	svc := newTeamService(f)
	ctx := context.Background()

	ownerUser, _ := f.user(t, "owner", models.RolePlayer)
	_, mod := f.user(t, "mod", models.RoleModerator)
	_, coach := f.user(t, "coach", models.RoleCoach)
	_, applicant := f.user(t, "applicant", models.RolePlayer)
	team := testutil.CreateTeam(t, f.db, "Night Owls", ownerUser)

	app, err := svc.ApplyToTeam(ctx, applicant, team.ID, "")
	require.NoError(t, err)

	_, err = svc.ProcessTeamApplication(ctx, coach, app.ID, true)
	requireCode(t, err, models.CodePermissionDenied)

	_, err = svc.TeamApplicationsInbox(ctx, coach, team.ID)
	requireCode(t, err, models.CodePermissionDenied)
	inbox, err := svc.TeamApplicationsInbox(ctx, mod, team.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)

	_, err = svc.ProcessTeamApplication(ctx, mod, app.ID, true)
	require.NoError(t, err)
}

func TestTeamService_InviteFlow(t *testing.T) {
	f := newFixture(t)
	svc := newTeamService(f)
	ctx := context.Background()

	ownerUser, owner := f.user(t, "owner", models.RolePlayer)
	inviteeUser, invitee := f.user(t, "invitee", models.RolePlayer)
	_, other := f.user(t, "other", models.RolePlayer)
	team := testutil.CreateTeam(t, f.db, "Night Owls", ownerUser)

	_, err := svc.SendTeamInvite(ctx, other, team.ID, inviteeUser.ID, "")
	requireCode(t, err, models.CodePermissionDenied)
	_, err = svc.SendTeamInvite(ctx, owner, team.ID, 9999, "")
	requireCode(t, err, models.CodeNotFound)

	invite, err := svc.SendTeamInvite(ctx, owner, team.ID, inviteeUser.ID, "join us")
	require.NoError(t, err)
	require.NotNil(t, invite.InvitedByID)
	assert.Equal(t, ownerUser.ID, *invite.InvitedByID)
	assert.Contains(t, f.events.typesFor(inviteeUser.ID), notifications.EventTeamInviteReceived)

	// Invites are not processed through the owner path.
	_, err = svc.ProcessTeamApplication(ctx, owner, invite.ID, true)
	requireCode(t, err, models.CodeInvalidArgument)

	_, err = svc.RespondToTeamInvite(ctx, other, invite.ID, true)
	requireCode(t, err, models.CodePermissionDenied)

	accepted, err := svc.RespondToTeamInvite(ctx, invitee, invite.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationAccepted, accepted.Status)
	assert.Contains(t, f.events.typesFor(ownerUser.ID), notifications.EventTeamApplicationClosed)

	ok, err := f.teamRepo.IsMember(ctx, team.ID, inviteeUser.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTeamService_CancelTeamApplication(t *testing.T) {
	f := newFixture(t)
	svc := newTeamService(f)
	ctx := context.Background()

	ownerUser, owner := f.user(t, "owner", models.RolePlayer)
	_, applicant := f.user(t, "applicant", models.RolePlayer)
	team := testutil.CreateTeam(t, f.db, "Night Owls", ownerUser)

	app, err := svc.ApplyToTeam(ctx, applicant, team.ID, "")
	require.NoError(t, err)

	_, err = svc.CancelTeamApplication(ctx, owner, app.ID)
	requireCode(t, err, models.CodePermissionDenied)

	_, err = svc.CancelTeamApplication(ctx, applicant, app.ID)
	require.NoError(t, err)

	_, err = svc.CancelTeamApplication(ctx, applicant, app.ID)
	requireCode(t, err, models.CodeNotFound)
}

func TestTeamService_MemberManagement(t *testing.T) {
	f := newFixture(t)
	svc := newTeamService(f)
	ctx := context.Background()

	ownerUser, owner := f.user(t, "owner", models.RolePlayer)
	memberUser, member := f.user(t, "member", models.RolePlayer)
	outsiderUser, outsider := f.user(t, "outsider", models.RolePlayer)
	_, admin := f.user(t, "admin", models.RoleAdmin)
	team := testutil.CreateTeam(t, f.db, "Night Owls", ownerUser, memberUser)

	t.Run("update member roles", func(t *testing.T) {
		err := svc.UpdateMemberGameRoles(ctx, member, team.ID, ownerUser.ID, []models.GameRole{models.GameRoleFlex})
		requireCode(t, err, models.CodePermissionDenied)

		err = svc.UpdateMemberGameRoles(ctx, owner, team.ID, ownerUser.ID, []models.GameRole{models.GameRoleFlex})
		requireCode(t, err, models.CodeInvalidArgument)

		err = svc.UpdateMemberGameRoles(ctx, admin, team.ID, ownerUser.ID, []models.GameRole{models.GameRoleFlex})
		requireCode(t, err, models.CodePermissionDenied)

		err = svc.UpdateMemberGameRoles(ctx, owner, team.ID, memberUser.ID, []models.GameRole{"tank"})
		requireCode(t, err, models.CodeInvalidArgument)

		err = svc.UpdateMemberGameRoles(ctx, owner, team.ID, outsiderUser.ID, []models.GameRole{models.GameRoleFlex})
		requireCode(t, err, models.CodeNotFound)

		require.NoError(t, svc.UpdateMemberGameRoles(ctx, owner, team.ID, memberUser.ID,
			[]models.GameRole{models.GameRoleSentinel, models.GameRoleSentinel}))
		var tm models.TeamMember
		require.NoError(t, f.db.Where("team_id = ? AND user_id = ?", team.ID, memberUser.ID).First(&tm).Error)
		assert.Equal(t, models.GameRoleList{models.GameRoleSentinel}, tm.GameRoles)
		assert.Contains(t, f.events.typesFor(memberUser.ID), notifications.EventTeamMemberRolesUpdated)
	})

	t.Run("update my roles", func(t *testing.T) {
		require.NoError(t, svc.UpdateMyGameRoles(ctx, owner, team.ID, []models.GameRole{models.GameRoleIGL}))
		err := svc.UpdateMyGameRoles(ctx, outsider, team.ID, []models.GameRole{models.GameRoleIGL})
		requireCode(t, err, models.CodeNotFound)
	})

	t.Run("owner cannot leave", func(t *testing.T) {
		err := svc.LeaveTeam(ctx, owner, team.ID)
		requireCode(t, err, models.CodeFailedPrecondition)
	})

	t.Run("kick", func(t *testing.T) {
		err := svc.KickTeamMember(ctx, member, team.ID, ownerUser.ID)
		requireCode(t, err, models.CodePermissionDenied)
		err = svc.KickTeamMember(ctx, admin, team.ID, ownerUser.ID)
		requireCode(t, err, models.CodePermissionDenied)
		err = svc.KickTeamMember(ctx, owner, team.ID, ownerUser.ID)
		requireCode(t, err, models.CodeInvalidArgument)
		err = svc.KickTeamMember(ctx, owner, team.ID, outsiderUser.ID)
		requireCode(t, err, models.CodeNotFound)

		require.NoError(t, svc.KickTeamMember(ctx, owner, team.ID, memberUser.ID))
		ok, err := f.teamRepo.IsMember(ctx, team.ID, memberUser.ID)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Contains(t, f.events.typesFor(memberUser.ID), notifications.EventTeamMemberRemoved)
	})
}

func TestTeamService_LeaveTeam(t *testing.T) {
	f := newFixture(t)
	svc := newTeamService(f)
	ctx := context.Background()

	ownerUser, _ := f.user(t, "owner", models.RolePlayer)
	memberUser, member := f.user(t, "member", models.RolePlayer)
	team := testutil.CreateTeam(t, f.db, "Night Owls", ownerUser, memberUser)

	require.NoError(t, svc.LeaveTeam(ctx, member, team.ID))
	err := svc.LeaveTeam(ctx, member, team.ID)
	requireCode(t, err, models.CodeNotFound)

	teams, err := svc.ListMyTeams(ctx, member)
	require.NoError(t, err)
	assert.Empty(t, teams)
}
