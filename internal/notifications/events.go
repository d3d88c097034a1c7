package notifications

import (
	"context"
	"encoding/json"

	"squadup/internal/featureflags"
	"squadup/internal/middleware"
)

// Event types pushed to inbox sockets.
const (
	EventFriendRequestReceived  = "friend_request_received"
	EventFriendRequestAccepted  = "friend_request_accepted"
	EventFriendRequestRejected  = "friend_request_rejected"
	EventFriendRequestCancelled = "friend_request_cancelled"
	EventFriendRemoved          = "friend_removed"
	EventTeamApplicationCreated = "team_application_created"
	EventTeamInviteReceived     = "team_invite_received"
	EventTeamApplicationClosed  = "team_application_closed"
	EventTeamMemberJoined       = "team_member_joined"
	EventTeamMemberRemoved      = "team_member_removed"
	EventTeamMemberRolesUpdated = "team_member_roles_updated"
	EventMessageReceived        = "message_received"
	EventTicketCreated          = "support_ticket_created"
)

// Event is the envelope written to sockets.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Publisher fans user events out to Redis when available, and straight to the
// local hub otherwise. Publishing is best-effort and never fails the caller.
type Publisher struct {
	notifier *Notifier
	hub      *Hub
	flags    *featureflags.Manager
}

// NewPublisher returns a Publisher. Any argument may be nil.
func NewPublisher(notifier *Notifier, hub *Hub, flags *featureflags.Manager) *Publisher {
	return &Publisher{notifier: notifier, hub: hub, flags: flags}
}

// PublishUser delivers an event of eventType to userID.
func (p *Publisher) PublishUser(ctx context.Context, userID uint, eventType string, payload any) {
	if p == nil || !p.flags.Enabled(featureflags.RealtimePush, userID) {
		return
	}

	body, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to marshal user event", "event", eventType, "error", err)
		return
	}

	if p.notifier.Enabled() {
		if err := p.notifier.PublishUser(context.WithoutCancel(ctx), userID, string(body)); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish user event",
				"event", eventType, "user_id", userID, "error", err)
		}
		return
	}
	if p.hub != nil {
		p.hub.Deliver(userID, string(body))
	}
}
