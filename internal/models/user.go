// Package models contains data structures for the application's domain models.
package models

import "time"

// User is a SquadUp profile. Identity itself is issued externally; the id
// here matches the token subject.
type User struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	DisplayName string       `gorm:"size:80;not null" json:"display_name"`
	AvatarURL   string       `gorm:"size:512" json:"avatar_url"`
	Country     string       `gorm:"size:2" json:"country"`
	Role        Role         `gorm:"type:varchar(20);not null;default:'player';index" json:"role"`
	Rank        string       `gorm:"size:40" json:"rank"`
	GameRoles   GameRoleList `json:"game_roles"`
	Bio         string       `gorm:"type:text" json:"bio"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// UserSummary is the denormalized display snapshot copied into other records.
type UserSummary struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// Summary returns the display snapshot of u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL}
}
