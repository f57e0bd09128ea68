package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/smith3v/vocab-srs/pkg/srs"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeGateway struct {
	mu        sync.Mutex
	words     []srs.WordScheduleState
	saved     map[uint]srs.WordScheduleState
	history   []ReviewHistoryEntry
	summaries []LearningSessionRecord

	loadErr error
	saveErr error
	// startGate blocks the first summary upsert of a session until closed.
	startGate chan struct{}
}

func newFakeGateway(words []srs.WordScheduleState) *fakeGateway {
	return &fakeGateway{
		words: words,
		saved: make(map[uint]srs.WordScheduleState),
	}
}

func (g *fakeGateway) LoadWords(_ context.Context, userID int64) ([]srs.WordScheduleState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loadErr != nil {
		return nil, g.loadErr
	}
	var out []srs.WordScheduleState
	for _, w := range g.words {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (g *fakeGateway) SaveSchedule(_ context.Context, wordID uint, state srs.WordScheduleState) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.saveErr != nil {
		return g.saveErr
	}
	g.saved[wordID] = state
	return nil
}

func (g *fakeGateway) AppendReviewHistory(_ context.Context, entry ReviewHistoryEntry) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.history = append(g.history, entry)
	return nil
}

func (g *fakeGateway) UpsertSessionSummary(_ context.Context, record LearningSessionRecord) error {
	if g.startGate != nil && record.EndReason == "" && record.WordsAnswered == 0 {
		<-g.startGate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.summaries = append(g.summaries, record)
	return nil
}

func (g *fakeGateway) snapshot() (map[uint]srs.WordScheduleState, []ReviewHistoryEntry, []LearningSessionRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	saved := make(map[uint]srs.WordScheduleState, len(g.saved))
	for k, v := range g.saved {
		saved[k] = v
	}
	return saved, append([]ReviewHistoryEntry(nil), g.history...), append([]LearningSessionRecord(nil), g.summaries...)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// reviewedWords builds n due words; word i is i days overdue.
func reviewedWords(userID int64, n int, now time.Time) []srs.WordScheduleState {
	words := make([]srs.WordScheduleState, 0, n)
	for i := 1; i <= n; i++ {
		words = append(words, srs.WordScheduleState{
			WordID:       uint(i),
			UserID:       userID,
			Term:         fmt.Sprintf("term-%d", i),
			Translation:  fmt.Sprintf("translation-%d", i),
			Schedule:     srs.Schedule{EaseFactor: 2.5, IntervalDays: 6, Repetitions: 2},
			NextReview:   timePtr(now.AddDate(0, 0, -i)),
			LastReviewed: timePtr(now.AddDate(0, 0, -i-6)),
			Status:       srs.StatusFamiliar,
		})
	}
	return words
}

// newWords builds n never reviewed words with IDs starting at firstID.
func newWords(userID int64, n int, firstID uint) []srs.WordScheduleState {
	words := make([]srs.WordScheduleState, 0, n)
	for i := 0; i < n; i++ {
		words = append(words, srs.WordScheduleState{
			WordID:   firstID + uint(i),
			UserID:   userID,
			Term:     fmt.Sprintf("new-%d", i),
			Schedule: srs.NewSchedule(),
			Status:   srs.StatusLearning,
		})
	}
	return words
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("session-%d", n)
	}
}
