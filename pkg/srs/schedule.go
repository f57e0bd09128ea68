package srs

import (
	"math"
	"time"
)

const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3

	firstInterval  = 1
	secondInterval = 6
)

// Schedule holds the SM-2 parameters of a word.
type Schedule struct {
	EaseFactor   float64
	IntervalDays int
	Repetitions  int
}

// NewSchedule is the schedule of a word that has never been reviewed.
func NewSchedule() Schedule {
	return Schedule{EaseFactor: DefaultEaseFactor, IntervalDays: firstInterval}
}

// Outcome is the result of grading a word.
type Outcome struct {
	Schedule
	NextReview time.Time
}

// ComputeNextSchedule applies one SM-2 step. today only feeds NextReview, so
// identical inputs always produce identical outputs.
func ComputeNextSchedule(current Schedule, q Quality, today time.Time) (Outcome, error) {
	if err := q.Validate(); err != nil {
		return Outcome{}, err
	}

	ef := current.EaseFactor
	if ef == 0 {
		ef = DefaultEaseFactor
	}
	missing := float64(QualityPerfect - q)
	ef += 0.1 - missing*(0.08+missing*0.02)
	if ef < MinEaseFactor {
		ef = MinEaseFactor
	}

	next := Schedule{EaseFactor: ef}
	if !q.Passed() {
		next.Repetitions = 0
		next.IntervalDays = firstInterval
	} else {
		next.Repetitions = current.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.IntervalDays = firstInterval
		case 2:
			next.IntervalDays = secondInterval
		default:
			prev := current.IntervalDays
			if prev < firstInterval {
				prev = firstInterval
			}
			next.IntervalDays = int(math.Round(float64(prev) * ef))
		}
	}
	if next.IntervalDays < firstInterval {
		next.IntervalDays = firstInterval
	}

	return Outcome{
		Schedule:   next,
		NextReview: StartOfDay(today).AddDate(0, 0, next.IntervalDays),
	}, nil
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
