package repository

import (
	"context"

	"squadup/internal/models"

	"gorm.io/gorm"
)

// TournamentRepository reads and writes organizer-submitted tournaments.
type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id uint) (*models.Tournament, error)
	List(ctx context.Context, status models.TournamentStatus) ([]models.Tournament, error)
}

type tournamentRepository struct {
	db *gorm.DB
}

// NewTournamentRepository returns a gorm-backed TournamentRepository.
func NewTournamentRepository(db *gorm.DB) TournamentRepository {
	return &tournamentRepository{db: db}
}

func (r *tournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	if t.Status == "" {
		t.Status = models.TournamentPendingApproval
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *tournamentRepository) GetByID(ctx context.Context, id uint) (*models.Tournament, error) {
	var t models.Tournament
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, notFoundOr(err, "Tournament", id)
	}
	return &t, nil
}

func (r *tournamentRepository) List(ctx context.Context, status models.TournamentStatus) ([]models.Tournament, error) {
	var out []models.Tournament
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
