package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestDispatcherKeepsOrderPerKey(t *testing.T) {
	d := NewDispatcher(3, nil)
	defer d.Close()

	var mu sync.Mutex
	got := make(map[string][]int)
	for i := 0; i < 50; i++ {
		for _, key := range []string{"a", "b", "c", "d"} {
			key, i := key, i
			d.Submit(Job{Key: key, Op: "test", Run: func(context.Context) error {
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
				return nil
			}})
		}
	}
	d.Wait()

	for key, seq := range got {
		if len(seq) != 50 {
			t.Fatalf("key %s: expected 50 jobs, got %d", key, len(seq))
		}
		for i, v := range seq {
			if v != i {
				t.Fatalf("key %s: out of order at %d: %v", key, i, seq)
			}
		}
	}
}

func TestDispatcherSkipsCancelledJobs(t *testing.T) {
	d := NewDispatcher(1, nil)
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran := false
	d.Submit(Job{Key: "k", Ctx: ctx, Run: func(context.Context) error {
		ran = true
		return nil
	}})
	d.Wait()
	if ran {
		t.Fatalf("expected cancelled job to be skipped")
	}
}

func TestDispatcherWarnsOnFailure(t *testing.T) {
	cause := errors.New("boom")
	warnings := make(chan Warning, 1)
	d := NewDispatcher(1, func(w Warning) { warnings <- w })
	defer d.Close()

	d.Submit(Job{Key: "k", Op: opAppendHistory, UserID: 9, SessionID: "s", WordID: 3, Run: func(context.Context) error {
		return cause
	}})
	d.Wait()

	select {
	case w := <-warnings:
		if !errors.Is(w.Err, ErrPersistenceWriteFailed) || !errors.Is(w.Err, cause) {
			t.Fatalf("unexpected warning error: %v", w.Err)
		}
		if w.Op != opAppendHistory || w.UserID != 9 || w.WordID != 3 {
			t.Fatalf("unexpected warning: %+v", w)
		}
	default:
		t.Fatalf("expected a warning")
	}
}

func TestDispatcherCloseDrainsAndRunsLateJobsInline(t *testing.T) {
	d := NewDispatcher(2, nil)

	var mu sync.Mutex
	count := 0
	for i := 0; i < 20; i++ {
		d.Submit(Job{Key: fmt.Sprintf("k%d", i%3), Run: func(context.Context) error {
			mu.Lock()
			count++
			mu.Unlock()
			return nil
		}})
	}
	d.Close()

	mu.Lock()
	if count != 20 {
		mu.Unlock()
		t.Fatalf("expected Close to drain 20 jobs, got %d", count)
	}
	mu.Unlock()

	late := false
	d.Submit(Job{Key: "late", Run: func(context.Context) error {
		late = true
		return nil
	}})
	if !late {
		t.Fatalf("expected job submitted after Close to run inline")
	}
	d.Close()
}
