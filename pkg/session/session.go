package session

import (
	"context"
	"fmt"
	"time"

	"github.com/smith3v/vocab-srs/pkg/srs"
)

type Type string

const (
	TypeReview   Type = "review"
	TypeLearning Type = "learning"
	TypeMixed    Type = "mixed"
)

func ParseType(value string) (Type, error) {
	switch Type(value) {
	case TypeReview, TypeLearning, TypeMixed:
		return Type(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSessionType, value)
	}
}

type State int

const (
	StateIdle State = iota
	StateInProgress
	StateComplete
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInProgress:
		return "in_progress"
	case StateComplete:
		return "complete"
	case StateAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is one study sitting. It has a single owner and is not safe for
// concurrent use; Registry serializes access for the bot.
type Session struct {
	id     string
	userID int64
	kind   Type
	state  State

	queue   []srs.DueWord
	wordIDs []uint
	cursor  int

	startedAt   time.Time
	cardShownAt time.Time
	endedAt     time.Time

	answered int
	correct  int

	// ctx scopes cancellable background writes (progress summaries).
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *Session) ID() string           { return s.id }
func (s *Session) UserID() int64        { return s.userID }
func (s *Session) Type() Type           { return s.kind }
func (s *Session) State() State         { return s.state }
func (s *Session) StartedAt() time.Time { return s.startedAt }
func (s *Session) Total() int           { return len(s.wordIDs) }
func (s *Session) Cursor() int          { return s.cursor }
func (s *Session) WordsAnswered() int   { return s.answered }
func (s *Session) WordsCorrect() int    { return s.correct }

// Accuracy is correct/answered, zero before the first answer.
func (s *Session) Accuracy() float64 {
	if s.answered == 0 {
		return 0
	}
	return float64(s.correct) / float64(s.answered)
}

// Current returns the card at the cursor, or false once the session is over.
func (s *Session) Current() (srs.DueWord, bool) {
	if s == nil || s.state != StateInProgress || s.cursor >= len(s.queue) {
		return srs.DueWord{}, false
	}
	return s.queue[s.cursor], true
}

func (s *Session) summary(now time.Time, reason EndReason) LearningSessionRecord {
	record := LearningSessionRecord{
		SessionID:     s.id,
		UserID:        s.userID,
		Type:          s.kind,
		WordIDs:       append([]uint(nil), s.wordIDs...),
		StartedAt:     s.startedAt,
		EndReason:     reason,
		WordsTotal:    len(s.wordIDs),
		WordsAnswered: s.answered,
		WordsCorrect:  s.correct,
		Accuracy:      s.Accuracy(),
		Duration:      now.Sub(s.startedAt),
	}
	if reason != "" {
		ended := now
		record.EndedAt = &ended
	}
	return record
}
