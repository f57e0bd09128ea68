package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/smith3v/vocab-srs/pkg/importexport"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/smith3v/vocab-srs/pkg/session"
	"github.com/smith3v/vocab-srs/pkg/srs"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrWordNotFound = errors.New("word not found")

type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: 200 * time.Millisecond}
}

// Repository is the GORM backed session.Gateway.
type Repository struct {
	db    *gorm.DB
	retry RetryPolicy
}

var _ session.Gateway = (*Repository)(nil)

func NewRepository(gdb *gorm.DB, retry RetryPolicy) *Repository {
	if retry.Attempts <= 0 {
		retry.Attempts = 1
	}
	return &Repository{db: gdb, retry: retry}
}

func (r *Repository) LoadWords(ctx context.Context, userID int64) ([]srs.WordScheduleState, error) {
	var words []Word
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&words).Error; err != nil {
		return nil, err
	}
	states := make([]srs.WordScheduleState, 0, len(words))
	for _, w := range words {
		states = append(states, w.ScheduleState())
	}
	return states, nil
}

func (r *Repository) SaveSchedule(ctx context.Context, wordID uint, state srs.WordScheduleState) error {
	updates := map[string]interface{}{
		"ease_factor":   state.EaseFactor,
		"interval_days": state.IntervalDays,
		"repetitions":   state.Repetitions,
		"next_review":   state.NextReview,
		"last_reviewed": state.LastReviewed,
		"status":        state.Status.String(),
	}
	if state.LastQuality != nil {
		updates["last_quality"] = int(*state.LastQuality)
	}
	return r.withRetry(ctx, "save schedule", func(tx *gorm.DB) error {
		res := tx.Model(&Word{}).Where("id = ? AND user_id = ?", wordID, state.UserID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: id %d", ErrWordNotFound, wordID)
		}
		return nil
	})
}

func (r *Repository) AppendReviewHistory(ctx context.Context, entry session.ReviewHistoryEntry) error {
	row := ReviewHistory{
		UserID:            entry.UserID,
		WordID:            entry.WordID,
		SessionID:         entry.SessionID,
		Quality:           int(entry.Quality),
		EaseBefore:        entry.EaseBefore,
		EaseAfter:         entry.EaseAfter,
		IntervalBefore:    entry.IntervalBefore,
		IntervalAfter:     entry.IntervalAfter,
		RepetitionsBefore: entry.RepetitionsBefore,
		RepetitionsAfter:  entry.RepetitionsAfter,
		DurationMillis:    entry.Duration.Milliseconds(),
		ReviewedAt:        entry.ReviewedAt,
	}
	return r.withRetry(ctx, "append review history", func(tx *gorm.DB) error {
		row.ID = 0
		return tx.Create(&row).Error
	})
}

// UpsertSessionSummary writes the latest summary of a session. Rows that
// already carry an end time are left alone.
func (r *Repository) UpsertSessionSummary(ctx context.Context, record session.LearningSessionRecord) error {
	ids, err := json.Marshal(record.WordIDs)
	if err != nil {
		return err
	}
	row := LearningSession{
		SessionID:       record.SessionID,
		UserID:          record.UserID,
		SessionType:     string(record.Type),
		WordIDs:         datatypes.JSON(ids),
		StartedAt:       record.StartedAt,
		EndedAt:         record.EndedAt,
		WordsTotal:      record.WordsTotal,
		WordsAnswered:   record.WordsAnswered,
		WordsCorrect:    record.WordsCorrect,
		Accuracy:        record.Accuracy,
		DurationSeconds: int(record.Duration / time.Second),
		LastActivityAt:  record.StartedAt.Add(record.Duration),
	}
	if record.EndReason != "" {
		reason := string(record.EndReason)
		row.EndedReason = &reason
	}

	return r.withRetry(ctx, "upsert session summary", func(tx *gorm.DB) error {
		row.ID = 0
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"ended_at",
				"ended_reason",
				"words_answered",
				"words_correct",
				"accuracy",
				"duration_seconds",
				"last_activity_at",
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "learning_sessions.ended_at IS NULL"},
			}},
		}).Create(&row).Error
	})
}

// EnsureUser creates the settings row and default category for a new user.
// It reports whether the user was new.
func (r *Repository) EnsureUser(ctx context.Context, userID int64) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var settings UserSettings
		err := tx.Where("user_id = ?", userID).Take(&settings).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			settings = UserSettings{UserID: userID}
			if err := tx.Create(&settings).Error; err != nil {
				return err
			}
			created = true
		case err != nil:
			return err
		}

		category := Category{UserID: userID, Name: DefaultCategoryName}
		return tx.Where("user_id = ? AND name = ?", userID, DefaultCategoryName).FirstOrCreate(&category).Error
	})
	if err != nil {
		return false, err
	}
	if created {
		logger.Info("user initialized", "user_id", userID)
	}
	return created, nil
}

func (r *Repository) defaultCategoryID(tx *gorm.DB, userID int64) (*uint, error) {
	var category Category
	err := tx.Where("user_id = ? AND name = ?", userID, DefaultCategoryName).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category.ID, nil
}

// ImportWords upserts words by term. Existing words keep their schedule and
// only get the new translation.
func (r *Repository) ImportWords(ctx context.Context, userID int64, entries []importexport.Entry) (int, int, error) {
	inserted := 0
	updated := 0
	if len(entries) == 0 {
		return inserted, updated, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categoryID, err := r.defaultCategoryID(tx, userID)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			result := tx.Model(&Word{}).
				Where("user_id = ? AND term = ?", userID, entry.Term).
				Update("translation", entry.Translation)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				updated++
				continue
			}

			schedule := srs.NewSchedule()
			word := Word{
				UserID:       userID,
				CategoryID:   categoryID,
				Term:         entry.Term,
				Translation:  entry.Translation,
				EaseFactor:   schedule.EaseFactor,
				IntervalDays: schedule.IntervalDays,
				Repetitions:  schedule.Repetitions,
				Status:       srs.StatusLearning.String(),
			}
			if err := tx.Create(&word).Error; err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return inserted, updated, nil
}

func (r *Repository) ListWords(ctx context.Context, userID int64) ([]Word, error) {
	var words []Word
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("term, id").Find(&words).Error
	return words, err
}

func (r *Repository) Settings(ctx context.Context, userID int64) (UserSettings, error) {
	var settings UserSettings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	return settings, err
}

func (r *Repository) UpdateReminder(ctx context.Context, userID int64, enabled bool, hour, offset int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("reminder hour %d out of range", hour)
	}
	if offset < -12 || offset > 14 {
		return fmt.Errorf("timezone offset %d out of range", offset)
	}
	res := r.db.WithContext(ctx).Model(&UserSettings{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"reminders_enabled":     enabled,
		"reminder_hour":         hour,
		"timezone_offset_hours": offset,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReminderCandidates returns settings of users with reminders switched on.
func (r *Repository) ReminderCandidates(ctx context.Context) ([]UserSettings, error) {
	var settings []UserSettings
	err := r.db.WithContext(ctx).Where("reminders_enabled = ?", true).Order("user_id").Find(&settings).Error
	return settings, err
}

func (r *Repository) MarkReminderSent(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&UserSettings{}).
		Where("user_id = ?", userID).
		Update("last_reminder_sent_at", at).Error
}

func (r *Repository) withRetry(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= r.retry.Attempts; attempt++ {
		err = fn(r.db.WithContext(ctx))
		if err == nil || !retryable(err) {
			return err
		}
		if attempt == r.retry.Attempts {
			break
		}
		logger.Debug("retrying database write", "op", op, "attempt", attempt, "error", err)
		timer := time.NewTimer(r.retry.Backoff * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, r.retry.Attempts, err)
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, ErrWordNotFound),
		errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}

// ScheduleState converts a stored word into the scheduler's view of it.
func (w Word) ScheduleState() srs.WordScheduleState {
	status, err := srs.ParseStatus(w.Status)
	if err != nil {
		logger.Warn("unknown word status, treating as learning", "word_id", w.ID, "status", w.Status)
	}
	state := srs.WordScheduleState{
		WordID:      w.ID,
		UserID:      w.UserID,
		Term:        w.Term,
		Translation: w.Translation,
		Schedule: srs.Schedule{
			EaseFactor:   w.EaseFactor,
			IntervalDays: w.IntervalDays,
			Repetitions:  w.Repetitions,
		},
		NextReview:   w.NextReview,
		LastReviewed: w.LastReviewed,
		Status:       status,
	}
	if w.LastQuality != nil {
		q := srs.Quality(*w.LastQuality)
		state.LastQuality = &q
	}
	return state
}
