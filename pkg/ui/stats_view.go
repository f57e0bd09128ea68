package ui

import (
	"fmt"
	"strings"

	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/session"
	"github.com/smith3v/vocab-srs/pkg/srs"
)

func RenderStats(stats db.Stats) string {
	if stats.Words == 0 {
		return "You have no words yet. Upload a CSV or XLSX file with term and translation columns."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Words: %d (%d new)\n", stats.Words, stats.NeverReviewed)
	fmt.Fprintf(&sb, "Learning: %d, familiar: %d, mastered: %d\n",
		stats.ByStatus[srs.StatusLearning],
		stats.ByStatus[srs.StatusFamiliar],
		stats.ByStatus[srs.StatusMastered],
	)
	fmt.Fprintf(&sb, "Due now: %d (%d overdue), tomorrow: %d, later: %d\n",
		stats.ByBucket[srs.BucketOverdue]+stats.ByBucket[srs.BucketDueToday],
		stats.ByBucket[srs.BucketOverdue],
		stats.ByBucket[srs.BucketDueTomorrow],
		stats.ByBucket[srs.BucketFuture],
	)
	fmt.Fprintf(&sb, "Reviews: %d total, %d today, %s correct\n", stats.Reviews, stats.ReviewsToday, percent(stats.Accuracy()))
	fmt.Fprintf(&sb, "Sessions: %d", stats.Sessions)
	return sb.String()
}

func RenderSessionSummary(s *session.Session) string {
	if s.State() == session.StateComplete {
		return fmt.Sprintf("Session complete: %d/%d correct (%s).", s.WordsCorrect(), s.WordsAnswered(), percent(s.Accuracy()))
	}
	return fmt.Sprintf("Session stopped after %d of %d cards, %d correct. Your answers are saved.",
		s.WordsAnswered(), s.Total(), s.WordsCorrect())
}

func RenderSessionStart(s *session.Session) string {
	switch s.Type() {
	case session.TypeLearning:
		return fmt.Sprintf("Learning %d new words.", s.Total())
	case session.TypeMixed:
		return fmt.Sprintf("Mixed session with %d cards.", s.Total())
	default:
		return fmt.Sprintf("Reviewing %d due words.", s.Total())
	}
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}
