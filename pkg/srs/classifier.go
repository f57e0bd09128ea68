package srs

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Bucket labels how soon a word is due relative to the classification time.
type Bucket int

const (
	BucketOverdue Bucket = iota
	BucketDueToday
	BucketDueTomorrow
	BucketFuture
)

func (b Bucket) String() string {
	switch b {
	case BucketOverdue:
		return "overdue"
	case BucketDueToday:
		return "due_today"
	case BucketDueTomorrow:
		return "due_tomorrow"
	case BucketFuture:
		return "future"
	default:
		return fmt.Sprintf("bucket(%d)", int(b))
	}
}

// Due reports whether a word in this bucket should be reviewed now.
func (b Bucket) Due() bool {
	return b == BucketOverdue || b == BucketDueToday
}

// Priority weights. Higher priority is reviewed first.
const (
	overdueWeight  = 1000
	intervalWeight = 10
	easeWeight     = 10
)

// DueWord is a classified, read-only view of a WordScheduleState.
type DueWord struct {
	WordScheduleState
	DaysOverdue int
	Bucket      Bucket
	Priority    float64
}

// Classify labels words relative to now and drops those due after tomorrow.
// The result is ordered by descending priority, ties kept in input order.
func Classify(words []WordScheduleState, now time.Time) []DueWord {
	return classify(words, now, false)
}

// ClassifyAll is Classify over the full horizon, future words included.
func ClassifyAll(words []WordScheduleState, now time.Time) []DueWord {
	return classify(words, now, true)
}

func classify(words []WordScheduleState, now time.Time, includeFuture bool) []DueWord {
	out := make([]DueWord, 0, len(words))
	for _, w := range words {
		dw := ClassifyWord(w, now)
		if dw.Bucket == BucketFuture && !includeFuture {
			continue
		}
		out = append(out, dw)
	}
	SortByPriority(out)
	return out
}

// ClassifyWord labels a single word. A word without NextReview is new and
// therefore immediately due.
func ClassifyWord(w WordScheduleState, now time.Time) DueWord {
	dw := DueWord{WordScheduleState: w}
	if w.NextReview == nil {
		dw.Bucket = BucketOverdue
		dw.Priority = PriorityKey(0, w.IntervalDays, w.EaseFactor)
		return dw
	}

	next := *w.NextReview
	if late := now.Sub(next); late > 0 {
		dw.DaysOverdue = int(math.Floor(late.Hours() / 24))
	}

	today := StartOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	switch {
	case next.Before(today):
		dw.Bucket = BucketOverdue
	case next.Before(tomorrow):
		dw.Bucket = BucketDueToday
	case next.Before(tomorrow.AddDate(0, 0, 1)):
		dw.Bucket = BucketDueTomorrow
	default:
		dw.Bucket = BucketFuture
	}
	dw.Priority = PriorityKey(dw.DaysOverdue, w.IntervalDays, w.EaseFactor)
	return dw
}

// PriorityKey ranks due words: overdue days dominate, then shorter intervals
// and lower ease factors come first.
func PriorityKey(daysOverdue, intervalDays int, easeFactor float64) float64 {
	return float64(daysOverdue*overdueWeight) -
		float64(intervalDays*intervalWeight) -
		easeFactor*easeWeight
}

// SortByPriority orders words highest priority first, stable on ties.
func SortByPriority(words []DueWord) {
	sort.SliceStable(words, func(i, j int) bool {
		return words[i].Priority > words[j].Priority
	})
}

// CountBuckets tallies classified words per bucket.
func CountBuckets(words []DueWord) map[Bucket]int {
	counts := make(map[Bucket]int, 4)
	for _, w := range words {
		counts[w.Bucket]++
	}
	return counts
}
