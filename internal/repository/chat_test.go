package repository

import (
	"context"
	"testing"
	"time"

	"squadup/internal/models"
	"squadup/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "a", models.RolePlayer)
	b := testutil.CreateUser(t, db, "b", models.RolePlayer)
	c := testutil.CreateUser(t, db, "c", models.RolePlayer)

	t.Run("GetOrCreateDirect is symmetric and creates once", func(t *testing.T) {
		first, created, err := repo.GetOrCreateDirect(ctx, b.ID, a.ID)
		require.NoError(t, err)
		assert.True(t, created)

		second, created, err := repo.GetOrCreateDirect(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)

		var count int64
		db.Model(&models.Chat{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("AppendMessage updates last message", func(t *testing.T) {
		chatID := models.DirectChatID(a.ID, b.ID)
		require.NoError(t, repo.AppendMessage(ctx, &models.Message{ChatID: chatID, SenderID: a.ID, Content: "gg"}))
		require.NoError(t, repo.AppendMessage(ctx, &models.Message{ChatID: chatID, SenderID: b.ID, Content: "rematch?"}))

		chat, err := repo.GetByID(ctx, chatID)
		require.NoError(t, err)
		assert.Equal(t, "rematch?", chat.LastMessageText)
		require.NotNil(t, chat.LastMessageSenderID)
		assert.Equal(t, b.ID, *chat.LastMessageSenderID)

		msgs, err := repo.ListMessages(ctx, chatID, 10, nil)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "gg", msgs[0].Content)

		future := time.Now().Add(time.Hour)
		msgs, err = repo.ListMessages(ctx, chatID, 1, &future)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "rematch?", msgs[0].Content)
	})

	t.Run("AppendMessage to unknown chat fails and leaves no message", func(t *testing.T) {
		err := repo.AppendMessage(ctx, &models.Message{ChatID: "dm_98_99", SenderID: a.ID, Content: "hello?"})
		assert.True(t, models.HasCode(err, models.CodeNotFound))

		var count int64
		db.Model(&models.Message{}).Where("chat_id = ?", "dm_98_99").Count(&count)
		assert.Zero(t, count)
	})

	t.Run("ListForUser orders active chats first", func(t *testing.T) {
		_, _, err := repo.GetOrCreateDirect(ctx, a.ID, c.ID)
		require.NoError(t, err)

		chats, err := repo.ListForUser(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, chats, 2)
		assert.Equal(t, models.DirectChatID(a.ID, b.ID), chats[0].ID)
	})
}
