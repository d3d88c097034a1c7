package service

import (
	"context"

	"squadup/internal/models"
	"squadup/internal/observability"
)

// EventPublisher pushes realtime events to a user's open inbox sockets.
// Implementations must be best-effort: they never fail the mutation.
type EventPublisher interface {
	PublishUser(ctx context.Context, userID uint, eventType string, payload any)
}

type noopPublisher struct{}

func (noopPublisher) PublishUser(context.Context, uint, string, any) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

// recordMutation counts a relationship mutation by its outcome code.
func recordMutation(operation string, err error) {
	code := "OK"
	if err != nil {
		code = models.ErrorCode(err)
	}
	observability.RelationshipMutations.WithLabelValues(operation, code).Inc()
}

func requireActor(actor models.Actor) error {
	if actor.ID == 0 {
		return models.NewUnauthenticatedError("Authentication required")
	}
	return nil
}
