package session

import (
	"context"
	"time"

	"github.com/smith3v/vocab-srs/pkg/srs"
)

// Gateway is the durable store behind the scheduler. Every call may be
// retried independently; no atomicity across calls is assumed.
type Gateway interface {
	LoadWords(ctx context.Context, userID int64) ([]srs.WordScheduleState, error)
	SaveSchedule(ctx context.Context, wordID uint, state srs.WordScheduleState) error
	AppendReviewHistory(ctx context.Context, entry ReviewHistoryEntry) error
	UpsertSessionSummary(ctx context.Context, record LearningSessionRecord) error
}

// ReviewHistoryEntry is the audit record of one answered card.
type ReviewHistoryEntry struct {
	UserID            int64
	WordID            uint
	SessionID         string
	Quality           srs.Quality
	EaseBefore        float64
	EaseAfter         float64
	IntervalBefore    int
	IntervalAfter     int
	RepetitionsBefore int
	RepetitionsAfter  int
	Duration          time.Duration
	ReviewedAt        time.Time
}

type EndReason string

const (
	EndCompleted EndReason = "completed"
	EndAbandoned EndReason = "abandoned"
	EndExpired   EndReason = "expired"
)

// LearningSessionRecord is the summary of a session flushed to the gateway.
// EndedAt is nil while the session runs.
type LearningSessionRecord struct {
	SessionID     string
	UserID        int64
	Type          Type
	WordIDs       []uint
	StartedAt     time.Time
	EndedAt       *time.Time
	EndReason     EndReason
	WordsTotal    int
	WordsAnswered int
	WordsCorrect  int
	Accuracy      float64
	Duration      time.Duration
}

// ScheduleUpdate describes what one answer did to a word.
type ScheduleUpdate struct {
	WordID     uint
	Quality    srs.Quality
	Before     srs.WordScheduleState
	After      srs.WordScheduleState
	ReviewedAt time.Time
	Duration   time.Duration
}

func (u ScheduleUpdate) historyEntry(userID int64, sessionID string) ReviewHistoryEntry {
	return ReviewHistoryEntry{
		UserID:            userID,
		WordID:            u.WordID,
		SessionID:         sessionID,
		Quality:           u.Quality,
		EaseBefore:        u.Before.EaseFactor,
		EaseAfter:         u.After.EaseFactor,
		IntervalBefore:    u.Before.IntervalDays,
		IntervalAfter:     u.After.IntervalDays,
		RepetitionsBefore: u.Before.Repetitions,
		RepetitionsAfter:  u.After.Repetitions,
		Duration:          u.Duration,
		ReviewedAt:        u.ReviewedAt,
	}
}
