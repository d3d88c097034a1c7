package models

import (
	"fmt"
	"time"
)

// Chat is a direct conversation between exactly two users.
type Chat struct {
	ID                  string     `gorm:"primaryKey;size:64" json:"id"`
	UserAID             uint       `gorm:"not null;index" json:"user_a_id"`
	UserBID             uint       `gorm:"not null;index" json:"user_b_id"`
	LastMessageText     string     `gorm:"type:text" json:"last_message_text"`
	LastMessageSenderID *uint      `json:"last_message_sender_id,omitempty"`
	LastMessageAt       *time.Time `gorm:"index" json:"last_message_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Message is an append-only entry in a chat.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChatID    string    `gorm:"size:64;not null;index:idx_messages_chat_created" json:"chat_id"`
	SenderID  uint      `gorm:"not null" json:"sender_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_messages_chat_created" json:"created_at"`
}

// DirectChatID derives the chat id for a user pair independent of argument order.
func DirectChatID(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("dm_%d_%d", a, b)
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Chat) HasParticipant(userID uint) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// OtherParticipant returns the participant that is not userID.
func (c *Chat) OtherParticipant(userID uint) uint {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}
