package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"squadup/internal/models"
	"squadup/internal/notifications"
	"squadup/internal/repository"
)

// MaxMessageLength bounds a chat message in runes.
const MaxMessageLength = 2000

// ChatService handles direct conversations between two users.
type ChatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	events   EventPublisher
}

// NewChatService returns a new ChatService.
func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository, events EventPublisher) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		userRepo: userRepo,
		events:   publisherOrNoop(events),
	}
}

// GetOrCreateChat returns the direct chat between actor and otherID. The id
// only depends on the pair, so concurrent callers converge on one chat.
func (s *ChatService) GetOrCreateChat(ctx context.Context, actor models.Actor, otherID uint) (*models.Chat, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if otherID == 0 || otherID == actor.ID {
		return nil, models.NewValidationError("A chat needs another participant")
	}
	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		return nil, err
	}

	chat, _, err := s.chatRepo.GetOrCreateDirect(ctx, actor.ID, otherID)
	return chat, err
}

// SendMessage appends a message to chatID from actor.
func (s *ChatService) SendMessage(ctx context.Context, actor models.Actor, chatID, content string) (*models.Message, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Message content is required")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, models.NewValidationError("Message is too long")
	}

	chat, err := s.participantChat(ctx, actor, chatID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{ChatID: chat.ID, SenderID: actor.ID, Content: content}
	if err := s.chatRepo.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.events.PublishUser(ctx, chat.OtherParticipant(actor.ID), notifications.EventMessageReceived, msg)
	return msg, nil
}

// ListMessages returns a page of chatID's messages, oldest first.
func (s *ChatService) ListMessages(ctx context.Context, actor models.Actor, chatID string, limit int, before *time.Time) ([]models.Message, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if _, err := s.participantChat(ctx, actor, chatID); err != nil {
		return nil, err
	}
	return s.chatRepo.ListMessages(ctx, chatID, limit, before)
}

// ListChats returns actor's chats, most recently active first.
func (s *ChatService) ListChats(ctx context.Context, actor models.Actor) ([]models.Chat, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.chatRepo.ListForUser(ctx, actor.ID)
}

func (s *ChatService) participantChat(ctx context.Context, actor models.Actor, chatID string) (*models.Chat, error) {
	if strings.TrimSpace(chatID) == "" {
		return nil, models.NewValidationError("A chat id is required")
	}
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(actor.ID) {
		return nil, models.NewForbiddenError("You are not a participant in this chat")
	}
	return chat, nil
}
