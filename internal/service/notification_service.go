package service

import (
	"context"
	"time"

	"squadup/internal/middleware"
	"squadup/internal/models"
	"squadup/internal/observability"
	"squadup/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// acceptedLookback bounds how far back accepted friend requests are surfaced.
const acceptedLookback = 7 * 24 * time.Hour

// TeamInbox is the privileged per-team applications read the aggregator
// delegates to for every team the caller owns.
type TeamInbox interface {
	TeamApplicationsInbox(ctx context.Context, actor models.Actor, teamID uint) ([]models.TeamApplication, error)
}

// NotificationService assembles a user's pending notifications.
type NotificationService struct {
	friendRepo repository.FriendRepository
	appRepo    repository.ApplicationRepository
	teamRepo   repository.TeamRepository
	userRepo   repository.UserRepository
	inbox      TeamInbox
	now        func() time.Time
}

// NewNotificationService returns a new NotificationService.
func NewNotificationService(friendRepo repository.FriendRepository, appRepo repository.ApplicationRepository, teamRepo repository.TeamRepository, userRepo repository.UserRepository, inbox TeamInbox) *NotificationService {
	return &NotificationService{
		friendRepo: friendRepo,
		appRepo:    appRepo,
		teamRepo:   teamRepo,
		userRepo:   userRepo,
		inbox:      inbox,
		now:        time.Now,
	}
}

// PendingNotifications returns the caller's pending friend requests, pending
// team invites and pending applications to teams they own, merged and sorted
// most recent first.
//
// The two direct reads fail the whole call. The owned-team branch and the
// recently-accepted read are best-effort: a failing team lookup contributes
// nothing and is counted, the rest of the feed is still returned.
func (s *NotificationService) PendingNotifications(ctx context.Context, actor models.Actor) ([]models.Notification, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	started := s.now()
	span, ctx := observability.NewSpan(ctx, "notifications.pending",
		attribute.Int64("user.id", int64(actor.ID)))
	defer span.End()

	var (
		friendReqs []models.FriendRequest
		invites    []models.TeamApplication
		teamApps   []models.TeamApplication
		accepted   []models.Notification
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reqs, err := s.friendRepo.ListIncoming(gctx, actor.ID)
		if err != nil {
			return err
		}
		friendReqs = reqs
		return nil
	})
	g.Go(func() error {
		apps, err := s.appRepo.ListPendingForUser(gctx, actor.ID, models.ApplicationTypeInvite)
		if err != nil {
			return err
		}
		invites = apps
		return nil
	})
	g.Go(func() error {
		teamApps = s.ownedTeamApplications(gctx, actor)
		return nil
	})
	g.Go(func() error {
		accepted = s.recentlyAccepted(gctx, actor)
		return nil
	})

	if err := g.Wait(); err != nil {
		span.SetError(err)
		middleware.Logger.ErrorContext(ctx, "notification aggregation failed",
			"user_id", actor.ID, "code", models.ErrorCode(err), "error", err)
		return nil, err
	}

	items := make([]models.Notification, 0, len(friendReqs)+len(invites)+len(teamApps)+len(accepted))
	for i := range friendReqs {
		items = append(items, models.NewFriendRequestNotification(&friendReqs[i]))
	}
	for i := range invites {
		items = append(items, models.NewInviteNotification(&invites[i]))
	}
	for i := range teamApps {
		items = append(items, models.NewApplicationNotification(&teamApps[i]))
	}
	items = append(items, accepted...)
	models.SortNotifications(items)

	observability.NotificationAggregationLatency.Observe(s.now().Sub(started).Seconds())
	return items, nil
}

// ownedTeamApplications runs one inbox lookup per owned team concurrently.
// Each lookup yields its applications or nothing.
func (s *NotificationService) ownedTeamApplications(ctx context.Context, actor models.Actor) []models.TeamApplication {
	teamIDs, err := s.teamRepo.ListOwnedIDs(ctx, actor.ID)
	if err != nil {
		s.softFail(ctx, "owned_teams", actor.ID, 0, err)
		return nil
	}
	if len(teamIDs) == 0 {
		return nil
	}

	perTeam := make([][]models.TeamApplication, len(teamIDs))
	var g errgroup.Group
	for i, teamID := range teamIDs {
		g.Go(func() error {
			apps, err := s.inbox.TeamApplicationsInbox(ctx, actor, teamID)
			if err != nil {
				s.softFail(ctx, "team_applications", actor.ID, teamID, err)
				return nil
			}
			perTeam[i] = apps
			return nil
		})
	}
	_ = g.Wait()

	var out []models.TeamApplication
	for _, apps := range perTeam {
		out = append(out, apps...)
	}
	return out
}

func (s *NotificationService) recentlyAccepted(ctx context.Context, actor models.Actor) []models.Notification {
	reqs, err := s.friendRepo.ListAcceptedSince(ctx, actor.ID, s.now().Add(-acceptedLookback))
	if err != nil {
		s.softFail(ctx, "friend_requests_accepted", actor.ID, 0, err)
		return nil
	}
	if len(reqs) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ToID)
	}
	byID := make(map[uint]models.UserSummary, len(ids))
	if users, err := s.userRepo.GetByIDs(ctx, ids); err == nil {
		for i := range users {
			byID[users[i].ID] = users[i].Summary()
		}
	}

	out := make([]models.Notification, 0, len(reqs))
	for i := range reqs {
		by, ok := byID[reqs[i].ToID]
		if !ok {
			// Accepter has since been deleted.
			continue
		}
		out = append(out, models.NewFriendRequestAcceptedNotification(&reqs[i], by, reqs[i].UpdatedAt))
	}
	return out
}

func (s *NotificationService) softFail(ctx context.Context, source string, userID, teamID uint, err error) {
	observability.NotificationSourceFailures.WithLabelValues(source).Inc()
	middleware.Logger.WarnContext(ctx, "notification source degraded to empty",
		"source", source, "user_id", userID, "team_id", teamID, "error", err)
}
