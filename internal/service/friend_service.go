package service

import (
	"context"

	"squadup/internal/models"
	"squadup/internal/notifications"
	"squadup/internal/repository"
)

// FriendService provides friend-request and friendship business logic.
type FriendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
	events     EventPublisher
}

// NewFriendService returns a new FriendService.
func NewFriendService(friendRepo repository.FriendRepository, userRepo repository.UserRepository, events EventPublisher) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
		events:     publisherOrNoop(events),
	}
}

// SendFriendRequest creates a pending request from actor to toID. The sender's
// display fields are snapshotted onto the request.
func (s *FriendService) SendFriendRequest(ctx context.Context, actor models.Actor, toID uint) (req *models.FriendRequest, err error) {
	defer func() { recordMutation("send_friend_request", err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if toID == 0 {
		return nil, models.NewValidationError("A target user is required")
	}
	if toID == actor.ID {
		return nil, models.NewValidationError("Cannot send friend request to yourself")
	}

	sender, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, toID); err != nil {
		return nil, err
	}

	req = &models.FriendRequest{
		FromID:          sender.ID,
		ToID:            toID,
		FromDisplayName: sender.DisplayName,
		FromAvatarURL:   sender.AvatarURL,
	}
	if err := s.friendRepo.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	s.events.PublishUser(ctx, toID, notifications.EventFriendRequestReceived, models.NewFriendRequestNotification(req))
	return req, nil
}

// RespondToFriendRequest accepts or rejects a pending request addressed to
// actor. Accepting links both users; rejecting deletes the request.
func (s *FriendService) RespondToFriendRequest(ctx context.Context, actor models.Actor, requestID uint, accept bool) (req *models.FriendRequest, err error) {
	defer func() { recordMutation("respond_friend_request", err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if requestID == 0 {
		return nil, models.NewValidationError("A request id is required")
	}

	existing, err := s.friendRepo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !CanRespondToFriendRequest(actor, existing) {
		return nil, models.NewForbiddenError("You can only respond to friend requests sent to you")
	}

	if !accept {
		req, err = s.friendRepo.DeletePendingRequest(ctx, requestID)
		if err != nil {
			return nil, err
		}
		req.Status = models.FriendRequestRejected
		s.events.PublishUser(ctx, req.FromID, notifications.EventFriendRequestRejected, map[string]any{"request_id": req.ID})
		return req, nil
	}

	req, err = s.friendRepo.AcceptRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	by := models.UserSummary{ID: actor.ID}
	if accepter, lookupErr := s.userRepo.GetByID(ctx, actor.ID); lookupErr == nil {
		by = accepter.Summary()
	}
	s.events.PublishUser(ctx, req.FromID, notifications.EventFriendRequestAccepted,
		models.NewFriendRequestAcceptedNotification(req, by, req.UpdatedAt))
	return req, nil
}

// CancelFriendRequest lets the sender withdraw a pending request.
func (s *FriendService) CancelFriendRequest(ctx context.Context, actor models.Actor, requestID uint) (req *models.FriendRequest, err error) {
	defer func() { recordMutation("cancel_friend_request", err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	existing, err := s.friendRepo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !CanCancelFriendRequest(actor, existing) {
		return nil, models.NewForbiddenError("You can only cancel friend requests you sent")
	}

	req, err = s.friendRepo.DeletePendingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	s.events.PublishUser(ctx, req.ToID, notifications.EventFriendRequestCancelled, map[string]any{"request_id": req.ID})
	return req, nil
}

// RemoveFriend unlinks actor and friendID. Removing someone who is not a
// friend succeeds without changes.
func (s *FriendService) RemoveFriend(ctx context.Context, actor models.Actor, friendID uint) (err error) {
	defer func() { recordMutation("remove_friend", err) }()

	if err := requireActor(actor); err != nil {
		return err
	}
	if friendID == 0 || friendID == actor.ID {
		return models.NewValidationError("A different user is required")
	}

	if err := s.friendRepo.RemoveFriendship(ctx, actor.ID, friendID); err != nil {
		return err
	}
	s.events.PublishUser(ctx, friendID, notifications.EventFriendRemoved, map[string]any{"user_id": actor.ID})
	return nil
}

// ListFriends returns the profiles of actor's friends.
func (s *FriendService) ListFriends(ctx context.Context, actor models.Actor) ([]models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.friendRepo.ListFriends(ctx, actor.ID)
}

// ListIncomingRequests returns pending requests addressed to actor.
func (s *FriendService) ListIncomingRequests(ctx context.Context, actor models.Actor) ([]models.FriendRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.friendRepo.ListIncoming(ctx, actor.ID)
}

// ListSentRequests returns pending requests actor has sent.
func (s *FriendService) ListSentRequests(ctx context.Context, actor models.Actor) ([]models.FriendRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.friendRepo.ListSent(ctx, actor.ID)
}

// FriendshipStatus describes how actor relates to otherID. The pending
// request is returned when one exists.
func (s *FriendService) FriendshipStatus(ctx context.Context, actor models.Actor, otherID uint) (models.FriendshipState, *models.FriendRequest, error) {
	if err := requireActor(actor); err != nil {
		return "", nil, err
	}
	if otherID == actor.ID {
		return models.FriendshipSelf, nil, nil
	}
	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		return "", nil, err
	}

	friends, err := s.friendRepo.AreFriends(ctx, actor.ID, otherID)
	if err != nil {
		return "", nil, err
	}
	if friends {
		return models.FriendshipFriends, nil, nil
	}

	pending, err := s.friendRepo.PendingBetween(ctx, actor.ID, otherID)
	if err != nil {
		return "", nil, err
	}
	switch {
	case pending == nil:
		return models.FriendshipNone, nil, nil
	case pending.FromID == actor.ID:
		return models.FriendshipPendingSent, pending, nil
	default:
		return models.FriendshipPendingReceived, pending, nil
	}
}
