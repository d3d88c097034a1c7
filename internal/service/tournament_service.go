package service

import (
	"context"
	"strings"

	"squadup/internal/models"
	"squadup/internal/repository"
)

// TournamentService accepts organizer submissions. Approval is staff-side and
// not implemented yet.
type TournamentService struct {
	repo repository.TournamentRepository
}

func NewTournamentService(repo repository.TournamentRepository) *TournamentService {
	return &TournamentService{repo: repo}
}

// Submit records a tournament awaiting approval.
func (s *TournamentService) Submit(ctx context.Context, actor models.Actor, name string) (*models.Tournament, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if len(name) < 3 || len(name) > 120 {
		return nil, models.NewValidationError("name must be between 3 and 120 characters")
	}
	t := &models.Tournament{Name: name, OrganizerID: actor.ID, Status: models.TournamentPendingApproval}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TournamentService) List(ctx context.Context, status models.TournamentStatus) ([]models.Tournament, error) {
	return s.repo.List(ctx, status)
}

func (s *TournamentService) Get(ctx context.Context, id uint) (*models.Tournament, error) {
	return s.repo.GetByID(ctx, id)
}
