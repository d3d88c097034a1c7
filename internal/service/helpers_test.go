package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"squadup/internal/models"
	"squadup/internal/repository"
	"squadup/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type publishedEvent struct {
	userID    uint
	eventType string
	payload   any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishUser(_ context.Context, userID uint, eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{userID: userID, eventType: eventType, payload: payload})
}

func (p *recordingPublisher) typesFor(userID uint) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if e.userID == userID {
			out = append(out, e.eventType)
		}
	}
	return out
}

type fixture struct {
	db         *gorm.DB
	userRepo   repository.UserRepository
	friendRepo repository.FriendRepository
	teamRepo   repository.TeamRepository
	appRepo    repository.ApplicationRepository
	chatRepo   repository.ChatRepository
	ticketRepo repository.TicketRepository
	events     *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return &fixture{
		db:         db,
		userRepo:   repository.NewUserRepository(db, nil),
		friendRepo: repository.NewFriendRepository(db),
		teamRepo:   repository.NewTeamRepository(db),
		appRepo:    repository.NewApplicationRepository(db),
		chatRepo:   repository.NewChatRepository(db),
		ticketRepo: repository.NewTicketRepository(db),
		events:     &recordingPublisher{},
	}
}

func (f *fixture) user(t *testing.T, name string, role models.Role) (*models.User, models.Actor) {
	t.Helper()
	u := testutil.CreateUser(t, f.db, name, role)
	return u, models.Actor{ID: u.ID, Role: role}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code, appErr.Message)
}
