package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"squadup/internal/models"
	"squadup/internal/repository"
	"squadup/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type teamInboxStub struct {
	inboxFn func(context.Context, models.Actor, uint) ([]models.TeamApplication, error)
}

func (s *teamInboxStub) TeamApplicationsInbox(ctx context.Context, actor models.Actor, teamID uint) ([]models.TeamApplication, error) {
	return s.inboxFn(ctx, actor, teamID)
}

type friendRepoStub struct {
	repository.FriendRepository
	listIncomingFn func(context.Context, uint) ([]models.FriendRequest, error)
}

func (s *friendRepoStub) ListIncoming(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.listIncomingFn(ctx, userID)
}

func newNotificationService(f *fixture, inbox TeamInbox) *NotificationService {
	if inbox == nil {
		inbox = newTeamService(f)
	}
	return NewNotificationService(f.friendRepo, f.appRepo, f.teamRepo, f.userRepo, inbox)
}

// seedInbox gives target one incoming friend request, one team invite and
// one application to a team they own, created an hour apart.
func seedInbox(t *testing.T, f *fixture) (*models.User, *models.Team) {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	target := testutil.CreateUser(t, f.db, "target", models.RolePlayer)
	friend := testutil.CreateUser(t, f.db, "friend", models.RolePlayer)
	otherOwner := testutil.CreateUser(t, f.db, "other_owner", models.RolePlayer)
	applicant := testutil.CreateUser(t, f.db, "applicant", models.RolePlayer)

	owned := testutil.CreateTeam(t, f.db, "Owned", target)
	other := testutil.CreateTeam(t, f.db, "Other", otherOwner)

	require.NoError(t, f.db.Create(&models.FriendRequest{
		FromID: friend.ID, ToID: target.ID, Status: models.FriendRequestPending,
		FromDisplayName: friend.DisplayName, CreatedAt: base,
	}).Error)
	require.NoError(t, f.db.Create(&models.TeamApplication{
		TeamID: other.ID, TeamName: other.Name, TeamOwnerID: otherOwner.ID, UserID: target.ID,
		Type: models.ApplicationTypeInvite, Status: models.ApplicationPending, CreatedAt: base.Add(2 * time.Hour),
	}).Error)
	require.NoError(t, f.db.Create(&models.TeamApplication{
		TeamID: owned.ID, TeamName: owned.Name, TeamOwnerID: target.ID, UserID: applicant.ID,
		UserDisplayName: applicant.DisplayName, Type: models.ApplicationTypeApplication,
		Status: models.ApplicationPending, CreatedAt: base.Add(time.Hour),
	}).Error)
	return target, owned
}

func TestNotificationService_MergesAllSourcesNewestFirst(t *testing.T) {
	f := newFixture(t)
	target, _ := seedInbox(t, f)
	svc := newNotificationService(f, nil)

	items, err := svc.PendingNotifications(context.Background(), models.Actor{ID: target.ID, Role: models.RolePlayer})
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, models.NotificationInvite, items[0].Kind())
	assert.Equal(t, models.NotificationApplication, items[1].Kind())
	assert.Equal(t, models.NotificationFriendRequest, items[2].Kind())
	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].CreatedAtTime().After(items[i-1].CreatedAtTime()))
	}

	app, ok := items[1].(*models.ApplicationNotification)
	require.True(t, ok)
	assert.Equal(t, "Owned", app.Team.Name)
	assert.Equal(t, "applicant", app.Applicant.DisplayName)
}

func TestNotificationService_EmptyFeed(t *testing.T) {
	f := newFixture(t)
	_, actor := f.user(t, "lonely", models.RolePlayer)
	svc := newNotificationService(f, nil)

	items, err := svc.PendingNotifications(context.Background(), actor)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestNotificationService_RequiresCaller(t *testing.T) {
	f := newFixture(t)
	svc := newNotificationService(f, nil)

	_, err := svc.PendingNotifications(context.Background(), models.Actor{})
	requireCode(t, err, models.CodeUnauthenticated)
}

func TestNotificationService_TeamLookupFailureIsSoft(t *testing.T) {
	f := newFixture(t)
	target, owned := seedInbox(t, f)
	second := testutil.CreateTeam(t, f.db, "Second", target)
	teams := newTeamService(f)

	inbox := &teamInboxStub{inboxFn: func(ctx context.Context, actor models.Actor, teamID uint) ([]models.TeamApplication, error) {
		if teamID == owned.ID {
			return nil, errors.New("shard unavailable")
		}
		return teams.TeamApplicationsInbox(ctx, actor, teamID)
	}}
	require.NoError(t, f.db.Create(&models.TeamApplication{
		TeamID: second.ID, TeamName: second.Name, TeamOwnerID: target.ID, UserID: target.ID + 100,
		Type: models.ApplicationTypeApplication, Status: models.ApplicationPending,
	}).Error)

	svc := newNotificationService(f, inbox)
	items, err := svc.PendingNotifications(context.Background(), models.Actor{ID: target.ID, Role: models.RolePlayer})
	require.NoError(t, err)

	var names []string
	for _, n := range items {
		if app, ok := n.(*models.ApplicationNotification); ok {
			names = append(names, app.Team.Name)
		}
	}
	assert.Equal(t, []string{"Second"}, names)
	assert.Len(t, items, 3)
}

func TestNotificationService_DirectSourceFailureIsClassified(t *testing.T) {
	f := newFixture(t)
	_, actor := f.user(t, "target", models.RolePlayer)

	tests := []struct {
		name string
		err  error
		code string
	}{
		{"missing index", models.NewIndexRequiredError(errors.New("no such index")), models.CodeIndexRequired},
		{"other", models.NewInternalError(errors.New("boom")), models.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &friendRepoStub{
				FriendRepository: f.friendRepo,
				listIncomingFn: func(context.Context, uint) ([]models.FriendRequest, error) {
					return nil, tt.err
				},
			}
			svc := NewNotificationService(stub, f.appRepo, f.teamRepo, f.userRepo, newTeamService(f))
			_, err := svc.PendingNotifications(context.Background(), actor)
			requireCode(t, err, tt.code)
		})
	}
}

func TestNotificationService_IncludesRecentlyAccepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	friends := NewFriendService(f.friendRepo, f.userRepo, nil)
	_, alice := f.user(t, "alice", models.RolePlayer)
	bobUser, bob := f.user(t, "bob", models.RolePlayer)

	req, err := friends.SendFriendRequest(ctx, alice, bobUser.ID)
	require.NoError(t, err)
	_, err = friends.RespondToFriendRequest(ctx, bob, req.ID, true)
	require.NoError(t, err)

	svc := newNotificationService(f, nil)
	items, err := svc.PendingNotifications(ctx, alice)
	require.NoError(t, err)
	require.Len(t, items, 1)

	accepted, ok := items[0].(*models.FriendRequestAcceptedNotification)
	require.True(t, ok)
	assert.Equal(t, bobUser.ID, accepted.By.ID)
	assert.Equal(t, "bob", accepted.By.DisplayName)

	// The recipient sees nothing once the request is no longer pending.
	items, err = svc.PendingNotifications(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, items)
}
