// Package repository implements the data access layer for the application.
package repository

import (
	"context"

	"squadup/internal/cache"
	"squadup/internal/models"
	"squadup/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, id uint, role models.Role) error
	ListByRoles(ctx context.Context, roles ...models.Role) ([]models.User, error)
	DeleteCascade(ctx context.Context, id uint) error
}

type userRepository struct {
	db     *gorm.DB
	cache  *cache.Cache
	logger *observability.RepoLogger
}

// NewUserRepository returns a UserRepository with optional profile caching.
func NewUserRepository(db *gorm.DB, c *cache.Cache) UserRepository {
	return &userRepository{db: db, cache: c, logger: observability.NewRepoLogger("users")}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			return notFoundOr(err, "User", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RolePlayer
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]interface{}{"user_id": user.ID})
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	r.cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id uint, role models.Role) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	r.cache.InvalidateUser(ctx, id)
	r.logger.LogUpdate(ctx, map[string]interface{}{"user_id": id, "role": role})
	return nil
}

func (r *userRepository) ListByRoles(ctx context.Context, roles ...models.Role) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Where("role IN ?", roles).Order("id").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// DeleteCascade removes a user and every relationship record that references
// them in one transaction. Support tickets are kept for staff history.
func (r *userRepository) DeleteCascade(ctx context.Context, id uint) error {
	var friendIDs []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return notFoundOr(err, "User", id)
		}

		var ownedTeamIDs []uint
		if err := tx.Model(&models.Team{}).Where("owner_id = ?", id).Pluck("id", &ownedTeamIDs).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Friendship{}).Where("user_id = ?", id).Pluck("friend_id", &friendIDs).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ? OR friend_id = ?", id, id).Delete(&models.Friendship{}).Error; err != nil {
			return err
		}
		if err := tx.Where("from_id = ? OR to_id = ?", id, id).Delete(&models.FriendRequest{}).Error; err != nil {
			return err
		}

		apps := tx.Where("user_id = ?", id)
		members := tx.Where("user_id = ?", id)
		if len(ownedTeamIDs) > 0 {
			apps = tx.Where("user_id = ? OR team_id IN ?", id, ownedTeamIDs)
			members = tx.Where("user_id = ? OR team_id IN ?", id, ownedTeamIDs)
		}
		if err := apps.Delete(&models.TeamApplication{}).Error; err != nil {
			return err
		}
		if err := members.Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}
		if len(ownedTeamIDs) > 0 {
			if err := tx.Where("id IN ?", ownedTeamIDs).Delete(&models.Team{}).Error; err != nil {
				return err
			}
		}

		var chatIDs []string
		if err := tx.Model(&models.Chat{}).Where("user_a_id = ? OR user_b_id = ?", id, id).Pluck("id", &chatIDs).Error; err != nil {
			return err
		}
		if len(chatIDs) > 0 {
			if err := tx.Where("chat_id IN ?", chatIDs).Delete(&models.Message{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", chatIDs).Delete(&models.Chat{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		r.logger.LogError(ctx, err, "delete_cascade")
		return passAppError(err)
	}

	r.cache.InvalidateUser(ctx, id)
	r.logger.LogDelete(ctx, map[string]interface{}{"user_id": id, "friends_unlinked": len(friendIDs)})
	return nil
}
