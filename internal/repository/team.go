package repository

import (
	"context"
	"time"

	"squadup/internal/models"
	"squadup/internal/observability"

	"gorm.io/gorm"
)

// TeamRepository stores teams and their rosters.
type TeamRepository interface {
	Create(ctx context.Context, team *models.Team, ownerRoles models.GameRoleList) error
	GetByID(ctx context.Context, id uint) (*models.Team, error)
	ListOwnedIDs(ctx context.Context, ownerID uint) ([]uint, error)
	ListByMember(ctx context.Context, userID uint) ([]models.Team, error)
	ListRecruiting(ctx context.Context, limit, offset int) ([]models.Team, error)
	IsMember(ctx context.Context, teamID, userID uint) (bool, error)
	UpdateMemberGameRoles(ctx context.Context, teamID, userID uint, roles models.GameRoleList) error
	RemoveMember(ctx context.Context, teamID, userID uint) error
}

type teamRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewTeamRepository returns a gorm-backed TeamRepository.
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db, logger: observability.NewRepoLogger("teams")}
}

// Create inserts the team and seats the owner as its first member.
func (r *teamRepository) Create(ctx context.Context, team *models.Team, ownerRoles models.GameRoleList) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team.Members = nil
		if err := tx.Create(team).Error; err != nil {
			return err
		}
		owner := models.TeamMember{TeamID: team.ID, UserID: team.OwnerID, GameRoles: ownerRoles, JoinedAt: time.Now()}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}
		team.Members = []models.TeamMember{owner}
		return nil
	})
	if err != nil {
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]interface{}{"team_id": team.ID, "owner_id": team.OwnerID})
	return nil
}

func (r *teamRepository) GetByID(ctx context.Context, id uint) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("joined_at") }).
		First(&team, id).Error; err != nil {
		return nil, notFoundOr(err, "Team", id)
	}
	return &team, nil
}

// ListOwnedIDs returns the ids of teams owned by ownerID.
func (r *teamRepository) ListOwnedIDs(ctx context.Context, ownerID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Team{}).
		Where("owner_id = ?", ownerID).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, classifyQueryError(err)
	}
	return ids, nil
}

func (r *teamRepository) ListByMember(ctx context.Context, userID uint) ([]models.Team, error) {
	var teams []models.Team
	if err := r.db.WithContext(ctx).
		Joins("JOIN team_members tm ON tm.team_id = teams.id").
		Where("tm.user_id = ?", userID).
		Preload("Members").
		Order("teams.name").
		Find(&teams).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return teams, nil
}

func (r *teamRepository) ListRecruiting(ctx context.Context, limit, offset int) ([]models.Team, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var teams []models.Team
	if err := r.db.WithContext(ctx).
		Where("is_recruiting = ?", true).
		Preload("Members").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&teams).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return teams, nil
}

func (r *teamRepository) IsMember(ctx context.Context, teamID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *teamRepository) UpdateMemberGameRoles(ctx context.Context, teamID, userID uint, roles models.GameRoleList) error {
	result := r.db.WithContext(ctx).Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Update("game_roles", roles)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("TeamMember", userID)
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"team_id": teamID, "user_id": userID, "game_roles": roles})
	return nil
}

func (r *teamRepository) RemoveMember(ctx context.Context, teamID, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&models.TeamMember{})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("TeamMember", userID)
	}
	r.logger.LogDelete(ctx, map[string]interface{}{"team_id": teamID, "user_id": userID})
	return nil
}
