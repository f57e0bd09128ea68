package session

import "github.com/smith3v/vocab-srs/pkg/srs"

// Limits caps how many cards each session type takes.
type Limits struct {
	Review        int
	Learning      int
	MixedReview   int
	MixedLearning int
}

func DefaultLimits() Limits {
	return Limits{
		Review:        20,
		Learning:      10,
		MixedReview:   15,
		MixedLearning: 5,
	}
}

// selectQueue picks the session queue from classified words, which must
// already be in priority order. Reviewed words that are due feed review
// slots; never reviewed words feed learning slots. A mixed session backfills
// a short side from the other one.
func (l Limits) selectQueue(kind Type, classified []srs.DueWord) []srs.DueWord {
	var due, fresh []srs.DueWord
	for _, w := range classified {
		switch {
		case w.NeverReviewed():
			fresh = append(fresh, w)
		case w.Bucket.Due():
			due = append(due, w)
		}
	}

	switch kind {
	case TypeReview:
		return head(due, l.Review)
	case TypeLearning:
		return head(fresh, l.Learning)
	case TypeMixed:
		nDue := min(len(due), l.MixedReview)
		nFresh := min(len(fresh), l.MixedLearning)
		if spare := l.MixedReview + l.MixedLearning - nDue - nFresh; spare > 0 {
			extra := min(len(due)-nDue, spare)
			nDue += extra
			nFresh += min(len(fresh)-nFresh, spare-extra)
		}
		queue := head(due, nDue)
		return append(queue, fresh[:nFresh]...)
	default:
		return nil
	}
}

func head(words []srs.DueWord, n int) []srs.DueWord {
	if n > len(words) {
		n = len(words)
	}
	if n <= 0 {
		return nil
	}
	return append([]srs.DueWord(nil), words[:n]...)
}
