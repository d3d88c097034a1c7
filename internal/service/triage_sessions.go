package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"squadup/internal/cache"
	"squadup/internal/models"

	"github.com/redis/go-redis/v9"
)

// TriageState is a step of the support triage flow.
type TriageState string

const (
	TriageInitial    TriageState = "initial"
	TriageAnalyzing  TriageState = "analyzing"
	TriageConfirming TriageState = "confirming"
	TriageSent       TriageState = "sent"
)

// TriageSuggestion is the classifier's proposed ticket.
type TriageSuggestion struct {
	Category models.TicketCategory `json:"category"`
	Subject  string                `json:"subject"`
	Summary  string                `json:"summary"`
}

// TriageSession tracks one user's walk through the triage flow. Sessions only
// exist once a description was approved; rejected attempts stay client-side.
type TriageSession struct {
	ID          string           `json:"id,omitempty"`
	UserID      uint             `json:"user_id"`
	State       TriageState      `json:"state"`
	Description string           `json:"description"`
	Suggestion  TriageSuggestion `json:"suggestion"`
	Message     string           `json:"message,omitempty"`
	TicketID    uint             `json:"ticket_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// TriageSessionStore persists sessions between the start and confirm calls.
type TriageSessionStore interface {
	Get(ctx context.Context, id string) (*TriageSession, error)
	Put(ctx context.Context, sess *TriageSession) error
	// Transition atomically moves id from one state to another, applying
	// mutate to the stored copy first. It fails when the stored state is not from.
	Transition(ctx context.Context, id string, from, to TriageState, mutate func(*TriageSession)) (*TriageSession, error)
}

var errSessionMissing = errors.New("triage session missing")

func transitionError(id string, current TriageState) error {
	switch current {
	case TriageAnalyzing:
		return models.NewFailedPreconditionError("Your request is already being submitted")
	case TriageSent:
		return models.NewFailedPreconditionError("This request was already submitted")
	default:
		return models.NewFailedPreconditionError("Triage session " + id + " is not awaiting confirmation")
	}
}

// NewTriageSessionStore returns a Redis-backed store, or an in-process one
// when rdb is nil.
func NewTriageSessionStore(rdb *redis.Client) TriageSessionStore {
	if rdb == nil {
		return newMemorySessionStore(cache.TriageSessionTTL)
	}
	return &redisSessionStore{rdb: rdb, ttl: cache.TriageSessionTTL}
}

type redisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func (s *redisSessionStore) Get(ctx context.Context, id string) (*TriageSession, error) {
	raw, err := s.rdb.Get(ctx, cache.TriageSessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var sess TriageSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, models.NewInternalError(err)
	}
	return &sess, nil
}

func (s *redisSessionStore) Put(ctx context.Context, sess *TriageSession) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.rdb.Set(ctx, cache.TriageSessionKey(sess.ID), b, s.ttl).Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *redisSessionStore) Transition(ctx context.Context, id string, from, to TriageState, mutate func(*TriageSession)) (*TriageSession, error) {
	key := cache.TriageSessionKey(id)
	var out *TriageSession

	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return errSessionMissing
		}
		if err != nil {
			return err
		}
		var sess TriageSession
		if err := json.Unmarshal(raw, &sess); err != nil {
			return err
		}
		if sess.State != from {
			return transitionError(id, sess.State)
		}
		if mutate != nil {
			mutate(&sess)
		}
		sess.State = to
		sess.UpdatedAt = time.Now()

		b, err := json.Marshal(&sess)
		if err != nil {
			return err
		}
		if _, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, redis.KeepTTL)
			return nil
		}); err != nil {
			return err
		}
		out = &sess
		return nil
	}, key)

	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, errSessionMissing):
		return nil, models.NewNotFoundError("TriageSession", id)
	case errors.Is(err, redis.TxFailedErr):
		// Someone else moved the session between our read and write.
		return nil, transitionError(id, TriageAnalyzing)
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return nil, appErr
	}
	return nil, models.NewInternalError(err)
}

type memoryEntry struct {
	sess    TriageSession
	expires time.Time
}

type memorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memoryEntry
	now      func() time.Time
}

func newMemorySessionStore(ttl time.Duration) *memorySessionStore {
	return &memorySessionStore{ttl: ttl, sessions: make(map[string]memoryEntry), now: time.Now}
}

// live returns the unexpired entry for id. Callers hold mu.
func (s *memorySessionStore) live(id string) (memoryEntry, bool) {
	e, ok := s.sessions[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(e.expires) {
		delete(s.sessions, id)
		return memoryEntry{}, false
	}
	return e, true
}

func (s *memorySessionStore) Get(_ context.Context, id string) (*TriageSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return nil, nil
	}
	sess := e.sess
	return &sess, nil
}

func (s *memorySessionStore) Put(_ context.Context, sess *TriageSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = memoryEntry{sess: *sess, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *memorySessionStore) Transition(_ context.Context, id string, from, to TriageState, mutate func(*TriageSession)) (*TriageSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return nil, models.NewNotFoundError("TriageSession", id)
	}
	if e.sess.State != from {
		return nil, transitionError(id, e.sess.State)
	}
	if mutate != nil {
		mutate(&e.sess)
	}
	e.sess.State = to
	e.sess.UpdatedAt = s.now()
	s.sessions[id] = e
	sess := e.sess
	return &sess, nil
}
