package models

import "time"

// TicketStatus is the staff-managed lifecycle of a ticket.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "new"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusResolved   TicketStatus = "resolved"
)

// TicketCategory is the triage bucket assigned to a ticket.
type TicketCategory string

const (
	TicketCategoryAccount    TicketCategory = "account"
	TicketCategoryTeam       TicketCategory = "team"
	TicketCategoryTournament TicketCategory = "tournament"
	TicketCategoryBug        TicketCategory = "bug"
	TicketCategoryAbuse      TicketCategory = "abuse"
	TicketCategoryOther      TicketCategory = "other"
)

var ticketCategories = []TicketCategory{
	TicketCategoryAccount, TicketCategoryTeam, TicketCategoryTournament,
	TicketCategoryBug, TicketCategoryAbuse, TicketCategoryOther,
}

// ParseTicketCategory normalizes a classifier label, falling back to other.
func ParseTicketCategory(s string) TicketCategory {
	for _, c := range ticketCategories {
		if string(c) == s {
			return c
		}
	}
	return TicketCategoryOther
}

// SupportTicket is a persisted, triaged support request.
type SupportTicket struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Subject         string         `gorm:"size:120;not null" json:"subject"`
	Body            string         `gorm:"type:text;not null" json:"body"`
	Category        TicketCategory `gorm:"type:varchar(20);not null" json:"category"`
	Status          TicketStatus   `gorm:"type:varchar(20);not null;default:'new';index" json:"status"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	UserDisplayName string         `gorm:"size:80" json:"user_display_name"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TournamentStatus tracks organizer submissions awaiting staff approval.
type TournamentStatus string

const (
	TournamentPendingApproval TournamentStatus = "pending_approval"
	TournamentApproved        TournamentStatus = "approved"
)

// Tournament is an organizer-submitted event.
type Tournament struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Name        string           `gorm:"size:120;not null" json:"name"`
	OrganizerID uint             `gorm:"not null;index" json:"organizer_id"`
	Status      TournamentStatus `gorm:"type:varchar(20);not null;default:'pending_approval'" json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
