package repository

import (
	"context"

	"squadup/internal/models"
	"squadup/internal/observability"

	"gorm.io/gorm"
)

// TicketRepository persists triaged support tickets.
type TicketRepository interface {
	Create(ctx context.Context, ticket *models.SupportTicket) error
	ListByUser(ctx context.Context, userID uint) ([]models.SupportTicket, error)
}

type ticketRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewTicketRepository returns a gorm-backed TicketRepository.
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db, logger: observability.NewRepoLogger("support_tickets")}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *models.SupportTicket) error {
	ticket.Status = models.TicketStatusNew
	if err := r.db.WithContext(ctx).Create(ticket).Error; err != nil {
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]interface{}{"ticket_id": ticket.ID, "category": ticket.Category})
	return nil
}

func (r *ticketRepository) ListByUser(ctx context.Context, userID uint) ([]models.SupportTicket, error) {
	var tickets []models.SupportTicket
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&tickets).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tickets, nil
}
