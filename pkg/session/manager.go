package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/smith3v/vocab-srs/pkg/srs"
)

const (
	opSaveSchedule  = "save_schedule"
	opAppendHistory = "append_review_history"
	opSummary       = "upsert_session_summary"
)

// Manager drives sessions through Idle -> InProgress -> Complete. Answers
// update the session synchronously; durable writes go through the
// Dispatcher.
type Manager struct {
	gateway    Gateway
	dispatcher *Dispatcher
	limits     Limits
	now        func() time.Time
	newID      func() string
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func WithLimits(limits Limits) Option {
	return func(m *Manager) {
		m.limits = limits
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) {
		if newID != nil {
			m.newID = newID
		}
	}
}

func NewManager(gateway Gateway, dispatcher *Dispatcher, opts ...Option) *Manager {
	m := &Manager{
		gateway:    gateway,
		dispatcher: dispatcher,
		limits:     DefaultLimits(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartForUser loads the user's words from the gateway and starts a session.
func (m *Manager) StartForUser(ctx context.Context, userID int64, kind Type) (*Session, error) {
	words, err := m.gateway.LoadWords(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load words: %w", err)
	}
	return m.Start(userID, kind, words)
}

// Start classifies words and builds a bounded queue. It returns ErrEmptyQueue
// when nothing is eligible.
func (m *Manager) Start(userID int64, kind Type, words []srs.WordScheduleState) (*Session, error) {
	if _, err := ParseType(string(kind)); err != nil {
		return nil, err
	}
	now := m.now()
	queue := m.limits.selectQueue(kind, srs.Classify(words, now))
	if len(queue) == 0 {
		return nil, ErrEmptyQueue
	}

	ids := make([]uint, len(queue))
	for i, w := range queue {
		ids[i] = w.WordID
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:          m.newID(),
		userID:      userID,
		kind:        kind,
		state:       StateInProgress,
		queue:       queue,
		wordIDs:     ids,
		startedAt:   now,
		cardShownAt: now,
		ctx:         ctx,
		cancel:      cancel,
	}
	m.submitSummary(s, context.Background(), s.summary(now, ""))
	logger.Info("session started", "user_id", userID, "session_id", s.id, "type", kind, "cards", len(queue))
	return s, nil
}

func (m *Manager) Current(s *Session) (srs.DueWord, bool) {
	return s.Current()
}

// Answer grades the current card. Session stats and the cursor move before
// anything is persisted; nothing changes when an error is returned.
func (m *Manager) Answer(s *Session, q srs.Quality) (ScheduleUpdate, error) {
	if s == nil || s.state != StateInProgress {
		return ScheduleUpdate{}, ErrSessionNotInProgress
	}
	if err := q.Validate(); err != nil {
		return ScheduleUpdate{}, err
	}

	now := m.now()
	card := s.queue[s.cursor]
	next, err := srs.Apply(card.WordScheduleState, q, now)
	if err != nil {
		return ScheduleUpdate{}, err
	}
	update := ScheduleUpdate{
		WordID:     card.WordID,
		Quality:    q,
		Before:     card.WordScheduleState,
		After:      next,
		ReviewedAt: now,
		Duration:   now.Sub(s.cardShownAt),
	}

	s.answered++
	if q.Passed() {
		s.correct++
	}
	s.queue[s.cursor].WordScheduleState = next
	s.cursor++
	s.cardShownAt = now

	// Answered cards are durable on their own, so their writes are not tied
	// to the session context.
	m.dispatcher.Submit(Job{
		Key:       s.id,
		Op:        opSaveSchedule,
		UserID:    s.userID,
		SessionID: s.id,
		WordID:    update.WordID,
		Ctx:       context.Background(),
		Run: func(ctx context.Context) error {
			return m.gateway.SaveSchedule(ctx, next.WordID, next)
		},
	})
	entry := update.historyEntry(s.userID, s.id)
	m.dispatcher.Submit(Job{
		Key:       s.id,
		Op:        opAppendHistory,
		UserID:    s.userID,
		SessionID: s.id,
		WordID:    update.WordID,
		Ctx:       context.Background(),
		Run: func(ctx context.Context) error {
			return m.gateway.AppendReviewHistory(ctx, entry)
		},
	})

	if s.cursor >= len(s.queue) {
		m.finish(s, EndCompleted, now)
	} else {
		m.submitSummary(s, s.ctx, s.summary(now, ""))
	}
	return update, nil
}

// Abandon ends an in-progress session early. Writes for answered cards are
// kept; pending progress updates are cancelled.
func (m *Manager) Abandon(s *Session) error {
	return m.end(s, EndAbandoned)
}

// Expire is Abandon for sessions closed by the inactivity sweeper.
func (m *Manager) Expire(s *Session) error {
	return m.end(s, EndExpired)
}

func (m *Manager) end(s *Session, reason EndReason) error {
	if s == nil || s.state != StateInProgress {
		return ErrSessionNotInProgress
	}
	m.finish(s, reason, m.now())
	return nil
}

func (m *Manager) finish(s *Session, reason EndReason, now time.Time) {
	if reason == EndCompleted {
		s.state = StateComplete
	} else {
		s.state = StateAbandoned
		s.queue = nil
	}
	s.endedAt = now
	if s.cancel != nil {
		s.cancel()
	}
	m.submitSummary(s, context.Background(), s.summary(now, reason))
	logger.Info("session ended",
		"user_id", s.userID,
		"session_id", s.id,
		"reason", reason,
		"answered", s.answered,
		"correct", s.correct,
	)
}

func (m *Manager) submitSummary(s *Session, ctx context.Context, record LearningSessionRecord) {
	m.dispatcher.Submit(Job{
		Key:       s.id,
		Op:        opSummary,
		UserID:    s.userID,
		SessionID: s.id,
		Ctx:       ctx,
		Run: func(ctx context.Context) error {
			return m.gateway.UpsertSessionSummary(ctx, record)
		},
	})
}
