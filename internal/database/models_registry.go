package database

import "squadup/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Friendship{},
		&models.FriendRequest{},
		&models.Team{},
		&models.TeamMember{},
		&models.TeamApplication{},
		&models.Chat{},
		&models.Message{},
		&models.SupportTicket{},
		&models.Tournament{},
	}
}
