package db

import (
	"context"
	"time"

	"github.com/smith3v/vocab-srs/pkg/srs"
)

type Stats struct {
	Words         int
	NeverReviewed int
	ByStatus      map[srs.Status]int
	ByBucket      map[srs.Bucket]int
	Reviews       int64
	ReviewsToday  int64
	Correct       int64
	Sessions      int64
}

func (s Stats) Accuracy() float64 {
	if s.Reviews == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Reviews)
}

// Stats summarizes a user's vocabulary as of now. Never reviewed words are
// counted separately and not bucketed.
func (r *Repository) Stats(ctx context.Context, userID int64, now time.Time) (Stats, error) {
	words, err := r.LoadWords(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{
		Words:    len(words),
		ByStatus: make(map[srs.Status]int),
	}
	reviewed := make([]srs.WordScheduleState, 0, len(words))
	for _, w := range words {
		stats.ByStatus[w.Status]++
		if w.NeverReviewed() {
			stats.NeverReviewed++
			continue
		}
		reviewed = append(reviewed, w)
	}
	stats.ByBucket = srs.CountBuckets(srs.ClassifyAll(reviewed, now))

	tx := r.db.WithContext(ctx)
	if err := tx.Model(&ReviewHistory{}).Where("user_id = ?", userID).Count(&stats.Reviews).Error; err != nil {
		return Stats{}, err
	}
	if err := tx.Model(&ReviewHistory{}).
		Where("user_id = ? AND quality >= ?", userID, int(srs.PassThreshold)).
		Count(&stats.Correct).Error; err != nil {
		return Stats{}, err
	}
	if err := tx.Model(&ReviewHistory{}).
		Where("user_id = ? AND reviewed_at >= ?", userID, srs.StartOfDay(now)).
		Count(&stats.ReviewsToday).Error; err != nil {
		return Stats{}, err
	}
	if err := tx.Model(&LearningSession{}).Where("user_id = ?", userID).Count(&stats.Sessions).Error; err != nil {
		return Stats{}, err
	}
	return stats, nil
}
