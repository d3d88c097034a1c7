package models

import "time"

// MaxTeamSize bounds the number of members on a roster, owner included.
const MaxTeamSize = 5

// Team is a recruiting roster owned by one user.
type Team struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"size:60;not null" json:"name"`
	LogoURL      string       `gorm:"size:512" json:"logo_url"`
	OwnerID      uint         `gorm:"not null;index" json:"owner_id"`
	MinRank      string       `gorm:"size:40" json:"min_rank"`
	MaxRank      string       `gorm:"size:40" json:"max_rank"`
	IsRecruiting bool         `gorm:"not null;default:true" json:"is_recruiting"`
	SeekingRoles GameRoleList `json:"seeking_roles"`
	Members      []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TeamMember places a user on a team's roster.
type TeamMember struct {
	TeamID    uint         `gorm:"primaryKey;autoIncrement:false" json:"team_id"`
	UserID    uint         `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	GameRoles GameRoleList `json:"game_roles"`
	JoinedAt  time.Time    `json:"joined_at"`
}

// MemberIDs returns the roster user ids in stored order.
func (t *Team) MemberIDs() []uint {
	ids := make([]uint, 0, len(t.Members))
	for _, m := range t.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// ApplicationType distinguishes candidate-initiated records from manager invites.
type ApplicationType string

const (
	ApplicationTypeApplication ApplicationType = "application"
	ApplicationTypeInvite      ApplicationType = "invite"
)

// ApplicationStatus is the lifecycle of a team application or invite.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// TeamApplication is either an application by UserID to TeamID or an invite
// of UserID into TeamID, depending on Type. Display fields are snapshots.
type TeamApplication struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	TeamID          uint              `gorm:"not null;index:idx_team_apps_team_status" json:"team_id"`
	TeamName        string            `gorm:"size:60" json:"team_name"`
	TeamLogoURL     string            `gorm:"size:512" json:"team_logo_url"`
	TeamOwnerID     uint              `gorm:"not null" json:"team_owner_id"`
	UserID          uint              `gorm:"not null;index:idx_team_apps_user_type_status" json:"user_id"`
	UserDisplayName string            `gorm:"size:80" json:"user_display_name"`
	UserAvatarURL   string            `gorm:"size:512" json:"user_avatar_url"`
	Type            ApplicationType   `gorm:"type:varchar(20);not null;index:idx_team_apps_user_type_status" json:"type"`
	Status          ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_team_apps_team_status;index:idx_team_apps_user_type_status" json:"status"`
	InvitedByID     *uint             `json:"invited_by_id,omitempty"`
	Message         string            `gorm:"type:text" json:"message"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
