package repository

import (
	"context"
	"time"

	"squadup/internal/models"
	"squadup/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository stores direct chats and their messages.
type ChatRepository interface {
	GetOrCreateDirect(ctx context.Context, userID, otherID uint) (*models.Chat, bool, error)
	GetByID(ctx context.Context, id string) (*models.Chat, error)
	AppendMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, chatID string, limit int, before *time.Time) ([]models.Message, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Chat, error)
}

type chatRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewChatRepository returns a gorm-backed ChatRepository.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db, logger: observability.NewRepoLogger("chats")}
}

// GetOrCreateDirect returns the chat for the pair, creating it at most once.
// The boolean reports whether this call created it.
func (r *chatRepository) GetOrCreateDirect(ctx context.Context, userID, otherID uint) (*models.Chat, bool, error) {
	lo, hi := userID, otherID
	if lo > hi {
		lo, hi = hi, lo
	}
	chat := models.Chat{ID: models.DirectChatID(lo, hi), UserAID: lo, UserBID: hi}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&chat)
	if result.Error != nil {
		return nil, false, models.NewInternalError(result.Error)
	}
	created := result.RowsAffected > 0

	stored, err := r.GetByID(ctx, chat.ID)
	if err != nil {
		return nil, false, err
	}
	if created {
		r.logger.LogCreate(ctx, map[string]interface{}{"chat_id": chat.ID})
	}
	return stored, created, nil
}

func (r *chatRepository) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&chat).Error; err != nil {
		return nil, notFoundOr(err, "Chat", id)
	}
	return &chat, nil
}

// AppendMessage inserts msg and refreshes the chat's denormalized last message
// in the same transaction.
func (r *chatRepository) AppendMessage(ctx context.Context, msg *models.Message) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		sender := msg.SenderID
		sentAt := msg.CreatedAt
		result := tx.Model(&models.Chat{}).Where("id = ?", msg.ChatID).Updates(map[string]interface{}{
			"last_message_text":      msg.Content,
			"last_message_sender_id": sender,
			"last_message_at":        sentAt,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Chat", msg.ChatID)
		}
		return nil
	})
	if err != nil {
		return passAppError(err)
	}
	return nil
}

// ListMessages returns up to limit messages older than before, oldest first.
func (r *chatRepository) ListMessages(ctx context.Context, chatID string, limit int, before *time.Time) ([]models.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Where("chat_id = ?", chatID)
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}

	var msgs []models.Message
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ListForUser returns the user's chats, most recently active first.
func (r *chatRepository) ListForUser(ctx context.Context, userID uint) ([]models.Chat, error) {
	var chats []models.Chat
	if err := r.db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("last_message_at IS NULL").
		Order("last_message_at DESC").
		Order("created_at DESC").
		Find(&chats).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return chats, nil
}
