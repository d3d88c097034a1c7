package seed

import (
	"testing"

	"squadup/internal/models"
	"squadup/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func count(t *testing.T, s *Seeder, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(model).Count(&n).Error)
	return n
}

func TestSeeder_Run(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s := NewSeeder(db, Options{NumUsers: 12, NumTeams: 3, RandSeed: 42})

	sum, err := s.Run()
	require.NoError(t, err)

	assert.Equal(t, 12, sum.Users)
	assert.Equal(t, 3, sum.Teams)
	assert.Equal(t, 12, sum.Friendships)
	assert.Equal(t, 3, sum.Invites)

	// Three staff accounts plus the generated players.
	assert.Equal(t, int64(15), count(t, s, &models.User{}))
	// Four generated teams including the fixture team.
	assert.Equal(t, int64(4), count(t, s, &models.Team{}))
	assert.Equal(t, int64(2*sum.Friendships), count(t, s, &models.Friendship{}))
	assert.Equal(t, int64(sum.FriendRequests), count(t, s, &models.FriendRequest{}))
	assert.Equal(t, int64(sum.Applications+sum.Invites), count(t, s, &models.TeamApplication{}))
	assert.Equal(t, int64(sum.Chats), count(t, s, &models.Chat{}))
	assert.Equal(t, int64(2), count(t, s, &models.Tournament{}))

	var invites []models.TeamApplication
	require.NoError(t, db.Where("type = ?", models.ApplicationTypeInvite).Find(&invites).Error)
	for _, inv := range invites {
		require.NotNil(t, inv.InvitedByID)
		assert.Equal(t, inv.TeamOwnerID, *inv.InvitedByID)
	}

	var chats []models.Chat
	require.NoError(t, db.Find(&chats).Error)
	for _, c := range chats {
		assert.Equal(t, models.DirectChatID(c.UserAID, c.UserBID), c.ID)
		assert.Less(t, c.UserAID, c.UserBID)
		assert.NotEmpty(t, c.LastMessageText)
	}
}

func TestSeeder_ClearAll(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s := NewSeeder(db, Options{NumUsers: 6, NumTeams: 2, RandSeed: 7})

	_, err := s.Run()
	require.NoError(t, err)
	require.NoError(t, s.ClearAll())

	for _, m := range []any{&models.User{}, &models.Team{}, &models.TeamMember{}, &models.Friendship{}, &models.Message{}, &models.Tournament{}} {
		assert.Zero(t, count(t, s, m), "%T rows remain", m)
	}
}

func TestSeeder_DryRunWritesNothing(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s := NewSeeder(db, Options{NumUsers: 5, NumTeams: 2, DryRun: true})

	sum, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Users)
	assert.Zero(t, count(t, s, &models.User{}))
	assert.Zero(t, count(t, s, &models.Team{}))
}
