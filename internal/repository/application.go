package repository

import (
	"context"
	"time"

	"squadup/internal/models"
	"squadup/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplicationRepository stores team applications and invites.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.TeamApplication) error
	GetByID(ctx context.Context, id uint) (*models.TeamApplication, error)
	Accept(ctx context.Context, id uint) (*models.TeamApplication, error)
	Reject(ctx context.Context, id uint) (*models.TeamApplication, error)
	DeletePending(ctx context.Context, id uint) (*models.TeamApplication, error)
	ListPendingByTeam(ctx context.Context, teamID uint, kind models.ApplicationType) ([]models.TeamApplication, error)
	ListPendingForUser(ctx context.Context, userID uint, kind models.ApplicationType) ([]models.TeamApplication, error)
}

type applicationRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewApplicationRepository returns a gorm-backed ApplicationRepository.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db, logger: observability.NewRepoLogger("team_applications")}
}

// Create inserts a pending application or invite. Inside the transaction it
// rejects users already on the roster and duplicates of a pending record
// with the same team, user and type.
func (r *applicationRepository) Create(ctx context.Context, app *models.TeamApplication) error {
	app.Status = models.ApplicationPending
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var members int64
		if err := tx.Model(&models.TeamMember{}).
			Where("team_id = ? AND user_id = ?", app.TeamID, app.UserID).
			Count(&members).Error; err != nil {
			return err
		}
		if members > 0 {
			return models.NewAlreadyExistsError("User is already a member of this team")
		}

		var pending int64
		if err := tx.Model(&models.TeamApplication{}).
			Where("team_id = ? AND user_id = ? AND type = ? AND status = ?",
				app.TeamID, app.UserID, app.Type, models.ApplicationPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			if app.Type == models.ApplicationTypeInvite {
				return models.NewAlreadyExistsError("An invite for this user is already pending")
			}
			return models.NewAlreadyExistsError("You already have a pending application to this team")
		}

		return tx.Create(app).Error
	})
	if err != nil {
		return passAppError(err)
	}
	r.logger.LogCreate(ctx, map[string]interface{}{
		"application_id": app.ID, "team_id": app.TeamID, "user_id": app.UserID, "type": app.Type,
	})
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id uint) (*models.TeamApplication, error) {
	var app models.TeamApplication
	if err := r.db.WithContext(ctx).First(&app, id).Error; err != nil {
		return nil, notFoundOr(err, "TeamApplication", id)
	}
	return &app, nil
}

func lockPendingApplication(tx *gorm.DB, id uint) (*models.TeamApplication, error) {
	var app models.TeamApplication
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&app, id).Error; err != nil {
		return nil, notFoundOr(err, "TeamApplication", id)
	}
	if app.Status != models.ApplicationPending {
		return nil, models.NewNotFoundError("TeamApplication", id)
	}
	return &app, nil
}

// Accept closes a pending application or invite and seats the user. The team
// row is locked and the roster counted at decision time, so a full roster
// fails FAILED_PRECONDITION even if it had room when the record was filed.
// Other pending records for the same team and user are closed with it.
func (r *applicationRepository) Accept(ctx context.Context, id uint) (*models.TeamApplication, error) {
	var accepted *models.TeamApplication
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app, err := lockPendingApplication(tx, id)
		if err != nil {
			return err
		}

		var team models.Team
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&team, app.TeamID).Error; err != nil {
			return notFoundOr(err, "Team", app.TeamID)
		}

		var alreadyMember int64
		if err := tx.Model(&models.TeamMember{}).
			Where("team_id = ? AND user_id = ?", app.TeamID, app.UserID).
			Count(&alreadyMember).Error; err != nil {
			return err
		}

		if alreadyMember == 0 {
			var size int64
			if err := tx.Model(&models.TeamMember{}).Where("team_id = ?", app.TeamID).Count(&size).Error; err != nil {
				return err
			}
			if size >= models.MaxTeamSize {
				return models.NewFailedPreconditionError("Team roster is full")
			}
			member := models.TeamMember{TeamID: app.TeamID, UserID: app.UserID, JoinedAt: time.Now()}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.TeamApplication{}).
			Where("team_id = ? AND user_id = ? AND status = ?", app.TeamID, app.UserID, models.ApplicationPending).
			Update("status", models.ApplicationAccepted).Error; err != nil {
			return err
		}
		app.Status = models.ApplicationAccepted
		accepted = app
		return nil
	})
	if err != nil {
		return nil, passAppError(err)
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"application_id": id, "status": models.ApplicationAccepted})
	return accepted, nil
}

// Reject closes a pending record without touching the roster.
func (r *applicationRepository) Reject(ctx context.Context, id uint) (*models.TeamApplication, error) {
	var rejected *models.TeamApplication
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app, err := lockPendingApplication(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(app).Update("status", models.ApplicationRejected).Error; err != nil {
			return err
		}
		app.Status = models.ApplicationRejected
		rejected = app
		return nil
	})
	if err != nil {
		return nil, passAppError(err)
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"application_id": id, "status": models.ApplicationRejected})
	return rejected, nil
}

// DeletePending withdraws a pending record.
func (r *applicationRepository) DeletePending(ctx context.Context, id uint) (*models.TeamApplication, error) {
	var deleted *models.TeamApplication
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app, err := lockPendingApplication(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.TeamApplication{}, app.ID).Error; err != nil {
			return err
		}
		deleted = app
		return nil
	})
	if err != nil {
		return nil, passAppError(err)
	}
	r.logger.LogDelete(ctx, map[string]interface{}{"application_id": id})
	return deleted, nil
}

func (r *applicationRepository) ListPendingByTeam(ctx context.Context, teamID uint, kind models.ApplicationType) ([]models.TeamApplication, error) {
	var apps []models.TeamApplication
	if err := r.db.WithContext(ctx).
		Where("team_id = ? AND type = ? AND status = ?", teamID, kind, models.ApplicationPending).
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		return nil, classifyQueryError(err)
	}
	return apps, nil
}

func (r *applicationRepository) ListPendingForUser(ctx context.Context, userID uint, kind models.ApplicationType) ([]models.TeamApplication, error) {
	var apps []models.TeamApplication
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND status = ?", userID, kind, models.ApplicationPending).
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		return nil, classifyQueryError(err)
	}
	return apps, nil
}
