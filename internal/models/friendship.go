package models

import "time"

// FriendRequestStatus represents the lifecycle of a friend request.
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

// Friendship is one direction of a symmetric friend link. Both directions
// are always written together.
type Friendship struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	FriendID  uint      `gorm:"primaryKey;autoIncrement:false;index" json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "friendships"
}

// FriendRequest is a directed request from FromID to ToID. The sender's
// display fields are a snapshot taken at send time.
type FriendRequest struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	FromID          uint                `gorm:"not null;index:idx_friend_requests_pair" json:"from_id"`
	ToID            uint                `gorm:"not null;index:idx_friend_requests_pair;index:idx_friend_requests_to_status" json:"to_id"`
	Status          FriendRequestStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_friend_requests_to_status" json:"status"`
	FromDisplayName string              `gorm:"size:80" json:"from_display_name"`
	FromAvatarURL   string              `gorm:"size:512" json:"from_avatar_url"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// FriendshipState describes how two users relate to each other.
type FriendshipState string

const (
	FriendshipNone            FriendshipState = "none"
	FriendshipFriends         FriendshipState = "friends"
	FriendshipPendingSent     FriendshipState = "pending_sent"
	FriendshipPendingReceived FriendshipState = "pending_received"
	FriendshipSelf            FriendshipState = "self"
)
