package service

import (
	"context"
	"errors"
	"testing"

	"squadup/internal/models"
	"squadup/internal/repository"
	"squadup/internal/triage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const longDescription = "I can't join my team's scrim lobby since this morning's update."

type classifierStub struct {
	classifyFn func(context.Context, uint, string) (triage.Classification, error)
}

func (s *classifierStub) Classify(ctx context.Context, userID uint, description string) (triage.Classification, error) {
	return s.classifyFn(ctx, userID, description)
}

func approvingClassifier() *classifierStub {
	return &classifierStub{classifyFn: func(context.Context, uint, string) (triage.Classification, error) {
		return triage.Classification{
			Approved: true,
			Category: models.TicketCategoryTeam,
			Subject:  "Cannot join scrim lobby",
			Summary:  "User cannot join their team's scrim lobby after the update.",
		}, nil
	}}
}

type ticketRepoStub struct {
	repository.TicketRepository
	createFn func(context.Context, *models.SupportTicket) error
}

func (s *ticketRepoStub) Create(ctx context.Context, ticket *models.SupportTicket) error {
	return s.createFn(ctx, ticket)
}

func sessionStores(t *testing.T) map[string]TriageSessionStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return map[string]TriageSessionStore{
		"memory": NewTriageSessionStore(nil),
		"redis":  NewTriageSessionStore(rdb),
	}
}

func TestSupportService_StartTriageOutcomes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, actor := f.user(t, "player", models.RolePlayer)

	t.Run("too short", func(t *testing.T) {
		svc := NewSupportService(f.ticketRepo, f.userRepo, approvingClassifier(), NewTriageSessionStore(nil), f.events)
		_, err := svc.StartTriage(ctx, actor, "help me please")
		requireCode(t, err, models.CodeInvalidArgument)
	})

	t.Run("rejected", func(t *testing.T) {
		rejecting := &classifierStub{classifyFn: func(context.Context, uint, string) (triage.Classification, error) {
			return triage.Classification{Approved: false, Reason: "Please keep requests respectful."}, nil
		}}
		svc := NewSupportService(f.ticketRepo, f.userRepo, rejecting, NewTriageSessionStore(nil), f.events)
		sess, err := svc.StartTriage(ctx, actor, longDescription)
		require.NoError(t, err)
		assert.Equal(t, TriageInitial, sess.State)
		assert.Empty(t, sess.ID)
		assert.Equal(t, "Please keep requests respectful.", sess.Message)
	})

	t.Run("classifier unavailable", func(t *testing.T) {
		failing := &classifierStub{classifyFn: func(context.Context, uint, string) (triage.Classification, error) {
			return triage.Classification{}, triage.ErrUnavailable
		}}
		svc := NewSupportService(f.ticketRepo, f.userRepo, failing, NewTriageSessionStore(nil), f.events)
		_, err := svc.StartTriage(ctx, actor, longDescription)
		requireCode(t, err, models.CodeInternal)
		assert.ErrorIs(t, err, triage.ErrUnavailable)
	})
}

func TestSupportService_ConfirmPersistsOnce(t *testing.T) {
	for name, store := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			userRow, actor := f.user(t, "player", models.RolePlayer)
			_, other := f.user(t, "other", models.RolePlayer)
			svc := NewSupportService(f.ticketRepo, f.userRepo, approvingClassifier(), store, f.events)

			sess, err := svc.StartTriage(ctx, actor, longDescription)
			require.NoError(t, err)
			require.Equal(t, TriageConfirming, sess.State)
			require.NotEmpty(t, sess.ID)

			_, err = svc.ConfirmTriage(ctx, other, sess.ID, ConfirmTriageInput{})
			requireCode(t, err, models.CodeNotFound)

			ticket, err := svc.ConfirmTriage(ctx, actor, sess.ID, ConfirmTriageInput{Subject: "Scrim lobby broken"})
			require.NoError(t, err)
			assert.Equal(t, models.TicketStatusNew, ticket.Status)
			assert.Equal(t, "Scrim lobby broken", ticket.Subject)
			assert.Equal(t, sess.Suggestion.Summary, ticket.Body)
			assert.Equal(t, models.TicketCategoryTeam, ticket.Category)
			assert.Equal(t, userRow.DisplayName, ticket.UserDisplayName)

			stored, err := svc.GetTriageSession(ctx, actor, sess.ID)
			require.NoError(t, err)
			assert.Equal(t, TriageSent, stored.State)
			assert.Equal(t, ticket.ID, stored.TicketID)

			_, err = svc.ConfirmTriage(ctx, actor, sess.ID, ConfirmTriageInput{})
			requireCode(t, err, models.CodeFailedPrecondition)

			tickets, err := svc.ListMyTickets(ctx, actor)
			require.NoError(t, err)
			assert.Len(t, tickets, 1)
		})
	}
}

func TestSupportService_PersistFailureAllowsRetry(t *testing.T) {
	for name, store := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			_, actor := f.user(t, "player", models.RolePlayer)

			attempts := 0
			tickets := &ticketRepoStub{
				TicketRepository: f.ticketRepo,
				createFn: func(ctx context.Context, ticket *models.SupportTicket) error {
					attempts++
					if attempts == 1 {
						return models.NewInternalError(errors.New("write timeout"))
					}
					return f.ticketRepo.Create(ctx, ticket)
				},
			}
			svc := NewSupportService(tickets, f.userRepo, approvingClassifier(), store, f.events)

			sess, err := svc.StartTriage(ctx, actor, longDescription)
			require.NoError(t, err)

			_, err = svc.ConfirmTriage(ctx, actor, sess.ID, ConfirmTriageInput{})
			requireCode(t, err, models.CodeInternal)

			reopened, err := svc.GetTriageSession(ctx, actor, sess.ID)
			require.NoError(t, err)
			assert.Equal(t, TriageConfirming, reopened.State)

			var count int64
			require.NoError(t, f.db.Model(&models.SupportTicket{}).Count(&count).Error)
			assert.Zero(t, count)

			_, err = svc.ConfirmTriage(ctx, actor, sess.ID, ConfirmTriageInput{})
			require.NoError(t, err)
			require.NoError(t, f.db.Model(&models.SupportTicket{}).Count(&count).Error)
			assert.Equal(t, int64(1), count)
		})
	}
}

func TestTriageSessionStore_TransitionGuardsState(t *testing.T) {
	for name, store := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, &TriageSession{ID: "s1", UserID: 1, State: TriageConfirming}))

			_, err := store.Transition(ctx, "s1", TriageConfirming, TriageAnalyzing, nil)
			require.NoError(t, err)
			_, err = store.Transition(ctx, "s1", TriageConfirming, TriageAnalyzing, nil)
			requireCode(t, err, models.CodeFailedPrecondition)

			_, err = store.Transition(ctx, "missing", TriageConfirming, TriageAnalyzing, nil)
			requireCode(t, err, models.CodeNotFound)

			missing, err := store.Get(ctx, "missing")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	}
}
