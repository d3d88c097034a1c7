package repository

import (
	"context"
	"errors"
	"testing"

	"squadup/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyQueryError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"pg undefined table", &pgconn.PgError{Code: "42P01", Message: `relation "friend_requests" does not exist`}, models.CodeIndexRequired},
		{"pg undefined column", &pgconn.PgError{Code: "42703"}, models.CodeIndexRequired},
		{"pg other", &pgconn.PgError{Code: "57014"}, models.CodeInternal},
		{"sqlite missing table", errors.New("no such table: team_applications"), models.CodeIndexRequired},
		{"transport", errors.New("connection reset by peer"), models.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, models.ErrorCode(classifyQueryError(tt.err)))
		})
	}
	assert.NoError(t, classifyQueryError(nil))
}

func TestFriendRepository_ListIncomingMissingIndex(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFriendRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "friend_requests" WHERE to_id = \$1 AND status = \$2`).
		WithArgs(7, models.FriendRequestPending).
		WillReturnError(&pgconn.PgError{Code: "42P01", Message: "relation does not exist"})

	_, err := repo.ListIncoming(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeIndexRequired))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendRepository_ListIncomingRows(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFriendRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "friend_requests" WHERE to_id = \$1 AND status = \$2 ORDER BY created_at DESC`).
		WithArgs(7, models.FriendRequestPending).
		WillReturnRows(sqlmock.NewRows([]string{"id", "from_id", "to_id", "status", "from_display_name"}).
			AddRow(3, 2, 7, "pending", "Rook").
			AddRow(1, 4, 7, "pending", "Vex"))

	reqs, err := repo.ListIncoming(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "Rook", reqs[0].FromDisplayName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db, nil)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 42)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamRepository_ListOwnedIDs(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTeamRepository(db)

	mock.ExpectQuery(`SELECT "id" FROM "teams" WHERE owner_id = \$1 ORDER BY id`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11).AddRow(12))

	ids, err := repo.ListOwnedIDs(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []uint{11, 12}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
