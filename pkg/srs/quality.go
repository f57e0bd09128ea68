package srs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Quality is the learner's self-assessed recall for one review, 0 through 5.
type Quality int

const (
	QualityBlackout          Quality = 0
	QualityIncorrect         Quality = 1
	QualityIncorrectFamiliar Quality = 2
	QualityCorrectDifficult  Quality = 3
	QualityCorrectHesitation Quality = 4
	QualityPerfect           Quality = 5
)

// PassThreshold is the lowest quality that counts as a successful recall.
const PassThreshold = QualityCorrectDifficult

var ErrInvalidQuality = errors.New("quality must be between 0 and 5")

func (q Quality) Validate() error {
	if q < QualityBlackout || q > QualityPerfect {
		return fmt.Errorf("%w: got %d", ErrInvalidQuality, int(q))
	}
	return nil
}

// Passed reports whether q is not a lapse.
func (q Quality) Passed() bool {
	return q >= PassThreshold
}

// ParseQuality converts raw user input into a validated Quality.
func ParseQuality(value string) (Quality, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidQuality, value)
	}
	q := Quality(n)
	if err := q.Validate(); err != nil {
		return 0, err
	}
	return q, nil
}

func (q Quality) Label() string {
	switch q {
	case QualityBlackout:
		return "Blackout"
	case QualityIncorrect:
		return "Wrong"
	case QualityIncorrectFamiliar:
		return "Almost"
	case QualityCorrectDifficult:
		return "Hard"
	case QualityCorrectHesitation:
		return "Good"
	case QualityPerfect:
		return "Easy"
	default:
		return "Unknown"
	}
}
