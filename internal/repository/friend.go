package repository

import (
	"context"
	"time"

	"squadup/internal/models"
	"squadup/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendRepository stores friend requests and the symmetric friends set.
type FriendRepository interface {
	CreateRequest(ctx context.Context, req *models.FriendRequest) error
	GetRequest(ctx context.Context, id uint) (*models.FriendRequest, error)
	AcceptRequest(ctx context.Context, id uint) (*models.FriendRequest, error)
	DeletePendingRequest(ctx context.Context, id uint) (*models.FriendRequest, error)
	RemoveFriendship(ctx context.Context, userID, friendID uint) error
	AreFriends(ctx context.Context, userID, otherID uint) (bool, error)
	PendingBetween(ctx context.Context, userID, otherID uint) (*models.FriendRequest, error)
	ListFriends(ctx context.Context, userID uint) ([]models.User, error)
	ListIncoming(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	ListSent(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	ListAcceptedSince(ctx context.Context, fromID uint, since time.Time) ([]models.FriendRequest, error)
}

type friendRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db, logger: observability.NewRepoLogger("friend_requests")}
}

func pairClause(fromCol, toCol string) string {
	return "((" + fromCol + " = ? AND " + toCol + " = ?) OR (" + fromCol + " = ? AND " + toCol + " = ?))"
}

// CreateRequest inserts a pending request after checking, in the same
// transaction, that the pair is not already friends and has no pending
// request in either direction.
func (r *friendRepository) CreateRequest(ctx context.Context, req *models.FriendRequest) error {
	req.Status = models.FriendRequestPending
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var friends int64
		if err := tx.Model(&models.Friendship{}).
			Where("user_id = ? AND friend_id = ?", req.FromID, req.ToID).
			Count(&friends).Error; err != nil {
			return err
		}
		if friends > 0 {
			return models.NewAlreadyExistsError("You are already friends")
		}

		var pending int64
		if err := tx.Model(&models.FriendRequest{}).
			Where("status = ?", models.FriendRequestPending).
			Where(pairClause("from_id", "to_id"), req.FromID, req.ToID, req.ToID, req.FromID).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return models.NewAlreadyExistsError("A friend request between you is already pending")
		}

		return tx.Create(req).Error
	})
	if err != nil {
		return passAppError(err)
	}
	r.logger.LogCreate(ctx, map[string]interface{}{"request_id": req.ID, "from_id": req.FromID, "to_id": req.ToID})
	return nil
}

func (r *friendRepository) GetRequest(ctx context.Context, id uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, notFoundOr(err, "FriendRequest", id)
	}
	return &req, nil
}

// lockPending loads request id for update and fails NOT_FOUND unless it is pending.
func lockPending(tx *gorm.DB, id uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, id).Error; err != nil {
		return nil, notFoundOr(err, "FriendRequest", id)
	}
	if req.Status != models.FriendRequestPending {
		return nil, models.NewNotFoundError("FriendRequest", id)
	}
	return &req, nil
}

// AcceptRequest archives the request as accepted and links both users in one
// transaction. A request that is no longer pending yields NOT_FOUND, so a
// retried accept never writes the friends set twice.
func (r *friendRepository) AcceptRequest(ctx context.Context, id uint) (*models.FriendRequest, error) {
	var accepted *models.FriendRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockPending(tx, id)
		if err != nil {
			return err
		}

		if err := tx.Model(req).Update("status", models.FriendRequestAccepted).Error; err != nil {
			return err
		}
		req.Status = models.FriendRequestAccepted

		links := []models.Friendship{
			{UserID: req.FromID, FriendID: req.ToID},
			{UserID: req.ToID, FriendID: req.FromID},
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
			return err
		}

		accepted = req
		return nil
	})
	if err != nil {
		return nil, passAppError(err)
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"request_id": id, "status": models.FriendRequestAccepted})
	return accepted, nil
}

// DeletePendingRequest removes a pending request, used both for rejection and
// for the sender withdrawing it.
func (r *friendRepository) DeletePendingRequest(ctx context.Context, id uint) (*models.FriendRequest, error) {
	var deleted *models.FriendRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockPending(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.FriendRequest{}, req.ID).Error; err != nil {
			return err
		}
		deleted = req
		return nil
	})
	if err != nil {
		return nil, passAppError(err)
	}
	r.logger.LogDelete(ctx, map[string]interface{}{"request_id": id})
	return deleted, nil
}

// RemoveFriendship unlinks both directions and deletes every request between
// the pair, whatever its status, as one unit. Removing a pair that is not
// linked is a no-op.
func (r *friendRepository) RemoveFriendship(ctx context.Context, userID, friendID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(pairClause("user_id", "friend_id"), userID, friendID, friendID, userID).
			Delete(&models.Friendship{}).Error; err != nil {
			return err
		}
		return tx.Where(pairClause("from_id", "to_id"), userID, friendID, friendID, userID).
			Delete(&models.FriendRequest{}).Error
	})
	if err != nil {
		r.logger.LogError(ctx, err, "remove_friendship")
		return models.NewInternalError(err)
	}
	r.logger.LogDelete(ctx, map[string]interface{}{"user_id": userID, "friend_id": friendID})
	return nil
}

func (r *friendRepository) AreFriends(ctx context.Context, userID, otherID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, otherID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// PendingBetween returns the pending request between the pair in either
// direction, or nil when there is none.
func (r *friendRepository) PendingBetween(ctx context.Context, userID, otherID uint) (*models.FriendRequest, error) {
	var reqs []models.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.FriendRequestPending).
		Where(pairClause("from_id", "to_id"), userID, otherID, otherID, userID).
		Limit(1).
		Find(&reqs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(reqs) == 0 {
		return nil, nil
	}
	return &reqs[0], nil
}

func (r *friendRepository) ListFriends(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN friendships f ON f.friend_id = users.id").
		Where("f.user_id = ?", userID).
		Order("users.display_name").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// ListIncoming returns pending requests addressed to userID, newest first.
// Read failures are classified so a missing index surfaces as INDEX_REQUIRED.
func (r *friendRepository) ListIncoming(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("to_id = ? AND status = ?", userID, models.FriendRequestPending).
		Order("created_at DESC").
		Find(&reqs).Error; err != nil {
		return nil, classifyQueryError(err)
	}
	return reqs, nil
}

func (r *friendRepository) ListSent(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("from_id = ? AND status = ?", userID, models.FriendRequestPending).
		Order("created_at DESC").
		Find(&reqs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

// ListAcceptedSince returns requests sent by fromID that were accepted at or
// after since, most recently accepted first.
func (r *friendRepository) ListAcceptedSince(ctx context.Context, fromID uint, since time.Time) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("from_id = ? AND status = ? AND updated_at >= ?", fromID, models.FriendRequestAccepted, since).
		Order("updated_at DESC").
		Find(&reqs).Error; err != nil {
		return nil, classifyQueryError(err)
	}
	return reqs, nil
}
