package srs

import "time"

// WordScheduleState is the scheduling record of one learnable word.
// NextReview and LastReviewed are nil for a word that was never reviewed.
type WordScheduleState struct {
	WordID      uint
	UserID      int64
	Term        string
	Translation string

	Schedule
	NextReview   *time.Time
	LastReviewed *time.Time
	LastQuality  *Quality
	Status       Status
}

// NeverReviewed reports whether the word has no review on record.
func (w WordScheduleState) NeverReviewed() bool {
	return w.LastReviewed == nil
}

// Apply grades w at now and returns the updated state. w is left untouched
// when q is invalid.
func Apply(w WordScheduleState, q Quality, now time.Time) (WordScheduleState, error) {
	outcome, err := ComputeNextSchedule(w.Schedule, q, now)
	if err != nil {
		return w, err
	}
	next := w
	next.Schedule = outcome.Schedule
	nextReview := outcome.NextReview
	reviewed := now
	quality := q
	next.NextReview = &nextReview
	next.LastReviewed = &reviewed
	next.LastQuality = &quality
	next.Status = NextStatus(w.Status, q)
	return next, nil
}
