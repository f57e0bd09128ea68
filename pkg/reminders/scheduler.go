package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/smith3v/vocab-srs/pkg/srs"
)

const DefaultInterval = time.Hour

type Store interface {
	ReminderCandidates(ctx context.Context) ([]db.UserSettings, error)
	LoadWords(ctx context.Context, userID int64) ([]srs.WordScheduleState, error)
	MarkReminderSent(ctx context.Context, userID int64, at time.Time) error
}

// Notifier delivers a reminder that due words are waiting.
type Notifier interface {
	SendReminder(ctx context.Context, userID int64, due int) error
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	store     Store
	notifier  Notifier
	interval  time.Duration
	now       func() time.Time
}

func New(store Store, notifier Notifier, interval time.Duration, now func() time.Time) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if now == nil {
		now = time.Now
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		store:     store,
		notifier:  notifier,
		interval:  interval,
		now:       now,
	}
}

// Start runs the reminder check now and then every interval.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.scheduler.Every(s.interval).Do(s.Run, ctx); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	s.scheduler.StartAsync()
	logger.Info("reminder scheduler started", "interval", s.interval)
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Run sends reminders to every user whose reminder slot has passed today and
// who has reviewed words due. It returns the number of reminders sent.
func (s *Scheduler) Run(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}
	now := s.now().UTC()
	users, err := s.store.ReminderCandidates(ctx)
	if err != nil {
		logger.Error("failed to fetch users for reminders", "error", err)
		return 0
	}

	sent := 0
	for _, user := range users {
		if _, ok := dueSlot(now, user); !ok {
			continue
		}
		due, err := s.countDue(ctx, user.UserID, now)
		if err != nil {
			logger.Error("failed to count due words", "user_id", user.UserID, "error", err)
			continue
		}
		if due == 0 {
			continue
		}
		if err := s.notifier.SendReminder(ctx, user.UserID, due); err != nil {
			logger.Error("failed to send reminder", "user_id", user.UserID, "error", err)
			continue
		}
		if err := s.store.MarkReminderSent(ctx, user.UserID, now); err != nil {
			logger.Error("failed to update reminder state", "user_id", user.UserID, "error", err)
		}
		sent++
	}
	if sent > 0 {
		logger.Info("reminders sent", "count", sent)
	}
	return sent
}

func (s *Scheduler) countDue(ctx context.Context, userID int64, now time.Time) (int, error) {
	words, err := s.store.LoadWords(ctx, userID)
	if err != nil {
		return 0, err
	}
	due := 0
	for _, w := range srs.Classify(words, now) {
		if !w.NeverReviewed() && w.Bucket.Due() {
			due++
		}
	}
	return due, nil
}

// dueSlot returns today's reminder time in UTC if it has passed and no
// reminder went out since.
func dueSlot(now time.Time, user db.UserSettings) (time.Time, bool) {
	offset := time.Duration(user.TimezoneOffsetHours) * time.Hour
	localNow := now.Add(offset)
	year, month, day := localNow.Date()
	slot := time.Date(year, month, day, user.ReminderHour, 0, 0, 0, time.UTC).Add(-offset)
	if now.Before(slot) {
		return time.Time{}, false
	}
	if user.LastReminderSentAt != nil && !user.LastReminderSentAt.Before(slot) {
		return time.Time{}, false
	}
	return slot, true
}
