package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"squadup/internal/middleware"
	"squadup/internal/models"
	"squadup/internal/notifications"
	"squadup/internal/repository"
	"squadup/internal/triage"

	"github.com/google/uuid"
)

const (
	// MinTriageDescription is the shortest description worth classifying.
	MinTriageDescription = 20
	maxTriageDescription = 5000
	maxTicketSubject     = 120
)

// TicketClassifier classifies a description for a given user.
type TicketClassifier interface {
	Classify(ctx context.Context, userID uint, description string) (triage.Classification, error)
}

// SupportService drives the triage flow: describe, classify, confirm, persist.
type SupportService struct {
	ticketRepo repository.TicketRepository
	userRepo   repository.UserRepository
	classifier TicketClassifier
	sessions   TriageSessionStore
	events     EventPublisher
	now        func() time.Time
}

// NewSupportService returns a new SupportService.
func NewSupportService(ticketRepo repository.TicketRepository, userRepo repository.UserRepository, classifier TicketClassifier, sessions TriageSessionStore, events EventPublisher) *SupportService {
	return &SupportService{
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		classifier: classifier,
		sessions:   sessions,
		events:     publisherOrNoop(events),
		now:        time.Now,
	}
}

// StartTriage classifies description. An approved description opens a
// session in state confirming. A rejected one comes back in state initial
// with the reason and nothing is stored. A classifier failure is returned as
// an error and the caller stays in initial.
func (s *SupportService) StartTriage(ctx context.Context, actor models.Actor, description string) (*TriageSession, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	n := utf8.RuneCountInString(description)
	if n < MinTriageDescription {
		return nil, models.NewValidationError("Please describe the problem in at least 20 characters")
	}
	if n > maxTriageDescription {
		return nil, models.NewValidationError("Description is too long")
	}

	verdict, err := s.classifier.Classify(ctx, actor.ID, description)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "support triage classification failed", "user_id", actor.ID, "error", err)
		return nil, &models.AppError{
			Code:    models.CodeInternal,
			Message: "We couldn't analyze your request right now. Please try again.",
			Err:     err,
		}
	}

	now := s.now()
	if !verdict.Approved {
		return &TriageSession{
			UserID:      actor.ID,
			State:       TriageInitial,
			Description: description,
			Message:     verdict.Reason,
			CreatedAt:   now,
			UpdatedAt:   now,
		}, nil
	}

	sess := &TriageSession{
		ID:          uuid.NewString(),
		UserID:      actor.ID,
		State:       TriageConfirming,
		Description: description,
		Suggestion: TriageSuggestion{
			Category: verdict.Category,
			Subject:  verdict.Subject,
			Summary:  verdict.Summary,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// GetTriageSession returns actor's session id.
func (s *SupportService) GetTriageSession(ctx context.Context, actor models.Actor, id string) (*TriageSession, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.ownSession(ctx, actor, id)
}

// ConfirmTriageInput carries the user's edits to the suggestion. Empty
// fields keep the suggested text.
type ConfirmTriageInput struct {
	Subject string `json:"subject" validate:"max=120"`
	Body    string `json:"body" validate:"max=5000"`
}

// ConfirmTriage persists the ticket for a confirming session. The session is
// held in analyzing while the ticket is written; a failed write returns it to
// confirming so the user can retry, and a successful one makes it sent.
func (s *SupportService) ConfirmTriage(ctx context.Context, actor models.Actor, sessionID string, in ConfirmTriageInput) (*models.SupportTicket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	sess, err := s.ownSession(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.State != TriageConfirming {
		return nil, transitionError(sessionID, sess.State)
	}

	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		subject = sess.Suggestion.Subject
	}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		body = sess.Suggestion.Summary
	}
	if subject == "" || body == "" {
		return nil, models.NewValidationError("subject and body are required")
	}
	if utf8.RuneCountInString(subject) > maxTicketSubject {
		return nil, models.NewValidationError("subject must be at most 120 characters")
	}
	if utf8.RuneCountInString(body) > maxTriageDescription {
		return nil, models.NewValidationError("body is too long")
	}

	user, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	if _, err := s.sessions.Transition(ctx, sessionID, TriageConfirming, TriageAnalyzing, nil); err != nil {
		return nil, err
	}

	ticket := &models.SupportTicket{
		Subject:         subject,
		Body:            body,
		Category:        sess.Suggestion.Category,
		Status:          models.TicketStatusNew,
		UserID:          actor.ID,
		UserDisplayName: user.DisplayName,
	}
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		if _, rollbackErr := s.sessions.Transition(ctx, sessionID, TriageAnalyzing, TriageConfirming, nil); rollbackErr != nil {
			middleware.Logger.ErrorContext(ctx, "failed to reopen triage session", "session_id", sessionID, "error", rollbackErr)
		}
		return nil, err
	}

	if _, err := s.sessions.Transition(ctx, sessionID, TriageAnalyzing, TriageSent, func(st *TriageSession) {
		st.TicketID = ticket.ID
	}); err != nil {
		middleware.Logger.WarnContext(ctx, "ticket stored but triage session not closed",
			"session_id", sessionID, "ticket_id", ticket.ID, "error", err)
	}

	s.events.PublishUser(ctx, actor.ID, notifications.EventTicketCreated, ticket)
	return ticket, nil
}

// ListMyTickets returns actor's tickets, newest first.
func (s *SupportService) ListMyTickets(ctx context.Context, actor models.Actor) ([]models.SupportTicket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.ticketRepo.ListByUser(ctx, actor.ID)
}

// ownSession hides other users' sessions behind NOT_FOUND.
func (s *SupportService) ownSession(ctx context.Context, actor models.Actor, id string) (*TriageSession, error) {
	if strings.TrimSpace(id) == "" {
		return nil, models.NewValidationError("A session id is required")
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID != actor.ID {
		return nil, models.NewNotFoundError("TriageSession", id)
	}
	return sess, nil
}
