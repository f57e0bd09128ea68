package srs

import "fmt"

// Status is the coarse, user-facing retention bucket of a word.
type Status int

const (
	StatusLearning Status = iota
	StatusFamiliar
	StatusMastered
)

func (s Status) String() string {
	switch s {
	case StatusLearning:
		return "learning"
	case StatusFamiliar:
		return "familiar"
	case StatusMastered:
		return "mastered"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func ParseStatus(value string) (Status, error) {
	switch value {
	case "learning", "":
		return StatusLearning, nil
	case "familiar":
		return StatusFamiliar, nil
	case "mastered":
		return StatusMastered, nil
	default:
		return StatusLearning, fmt.Errorf("unknown status %q", value)
	}
}

// NextStatus derives the status after a review graded q.
// Quality 3 keeps the current status.
func NextStatus(current Status, q Quality) Status {
	switch {
	case q >= QualityCorrectHesitation:
		switch current {
		case StatusLearning:
			return StatusFamiliar
		case StatusFamiliar, StatusMastered:
			return StatusMastered
		}
	case q <= QualityIncorrectFamiliar:
		return StatusLearning
	}
	return current
}
