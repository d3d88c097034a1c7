package models

import (
	"sort"
	"strconv"
	"time"
)

// NotificationType discriminates the variants of Notification.
type NotificationType string

const (
	NotificationApplication           NotificationType = "application"
	NotificationInvite                NotificationType = "invite"
	NotificationFriendRequest         NotificationType = "friend_request"
	NotificationFriendRequestAccepted NotificationType = "friend_request_accepted"
)

// Notification is a closed set of inbox entries. Only the variants in this
// package implement it.
type Notification interface {
	Kind() NotificationType
	CreatedAtTime() time.Time
	sealed()
}

type notificationBase struct {
	Type      NotificationType `json:"type"`
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
}

func (b notificationBase) Kind() NotificationType   { return b.Type }
func (b notificationBase) CreatedAtTime() time.Time { return b.CreatedAt }
func (notificationBase) sealed()                    {}

// TeamRef identifies the parent team of a team notification.
type TeamRef struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url"`
}

// ApplicationNotification tells a team owner someone applied.
type ApplicationNotification struct {
	notificationBase
	Team      TeamRef     `json:"team"`
	Applicant UserSummary `json:"applicant"`
	Message   string      `json:"message,omitempty"`
}

// InviteNotification tells a user a team invited them.
type InviteNotification struct {
	notificationBase
	Team TeamRef `json:"team"`
}

// FriendRequestNotification tells a user someone wants to be friends.
type FriendRequestNotification struct {
	notificationBase
	From UserSummary `json:"from"`
}

// FriendRequestAcceptedNotification tells a sender their request was accepted.
type FriendRequestAcceptedNotification struct {
	notificationBase
	By UserSummary `json:"by"`
}

func teamRefOf(a *TeamApplication) TeamRef {
	return TeamRef{ID: a.TeamID, Name: a.TeamName, LogoURL: a.TeamLogoURL}
}

func idString(prefix string, id uint) string {
	return prefix + "_" + strconv.FormatUint(uint64(id), 10)
}

// NewApplicationNotification maps a pending application into the inbox shape.
func NewApplicationNotification(a *TeamApplication) *ApplicationNotification {
	return &ApplicationNotification{
		notificationBase: notificationBase{
			Type:      NotificationApplication,
			ID:        idString("app", a.ID),
			CreatedAt: a.CreatedAt,
		},
		Team: teamRefOf(a),
		Applicant: UserSummary{
			ID:          a.UserID,
			DisplayName: a.UserDisplayName,
			AvatarURL:   a.UserAvatarURL,
		},
		Message: a.Message,
	}
}

// NewInviteNotification maps a pending invite into the inbox shape.
func NewInviteNotification(a *TeamApplication) *InviteNotification {
	return &InviteNotification{
		notificationBase: notificationBase{
			Type:      NotificationInvite,
			ID:        idString("inv", a.ID),
			CreatedAt: a.CreatedAt,
		},
		Team: teamRefOf(a),
	}
}

// NewFriendRequestNotification maps a pending friend request into the inbox shape.
func NewFriendRequestNotification(r *FriendRequest) *FriendRequestNotification {
	return &FriendRequestNotification{
		notificationBase: notificationBase{
			Type:      NotificationFriendRequest,
			ID:        idString("fr", r.ID),
			CreatedAt: r.CreatedAt,
		},
		From: UserSummary{ID: r.FromID, DisplayName: r.FromDisplayName, AvatarURL: r.FromAvatarURL},
	}
}

// NewFriendRequestAcceptedNotification builds the push shape sent to the original sender.
func NewFriendRequestAcceptedNotification(r *FriendRequest, by UserSummary, at time.Time) *FriendRequestAcceptedNotification {
	return &FriendRequestAcceptedNotification{
		notificationBase: notificationBase{
			Type:      NotificationFriendRequestAccepted,
			ID:        idString("fra", r.ID),
			CreatedAt: at,
		},
		By: by,
	}
}

// SortNotifications orders the feed most recent first.
func SortNotifications(items []Notification) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAtTime().After(items[j].CreatedAtTime())
	})
}
