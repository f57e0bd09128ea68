package session

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/smith3v/vocab-srs/pkg/logger"
)

const DefaultWorkers = 4

// Job is one background write. Jobs sharing a Key run in submission order.
type Job struct {
	Key       string
	Op        string
	UserID    int64
	SessionID string
	WordID    uint
	Ctx       context.Context
	Run       func(ctx context.Context) error
}

// Warning reports a background write that failed after the gateway's own
// retries. Err wraps ErrPersistenceWriteFailed.
type Warning struct {
	Op        string
	UserID    int64
	SessionID string
	WordID    uint
	Err       error
}

type WarningHandler func(Warning)

// Dispatcher runs background writes off the answer path. Submit never blocks
// on I/O.
type Dispatcher struct {
	shards    []*shard
	onWarning WarningHandler

	mu       sync.Mutex
	idle     *sync.Cond
	inflight int
	closed   bool

	quit    chan struct{}
	workers sync.WaitGroup
}

type shard struct {
	mu   sync.Mutex
	jobs []Job
	wake chan struct{}
}

func NewDispatcher(workers int, onWarning WarningHandler) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	d := &Dispatcher{
		shards:    make([]*shard, workers),
		onWarning: onWarning,
		quit:      make(chan struct{}),
	}
	d.idle = sync.NewCond(&d.mu)
	for i := range d.shards {
		d.shards[i] = &shard{wake: make(chan struct{}, 1)}
		d.workers.Add(1)
		go d.work(d.shards[i])
	}
	return d
}

// SetWarningHandler replaces the warning callback. It must be called before
// jobs are submitted.
func (d *Dispatcher) SetWarningHandler(fn WarningHandler) {
	d.mu.Lock()
	d.onWarning = fn
	d.mu.Unlock()
}

func (d *Dispatcher) Submit(job Job) {
	if job.Ctx == nil {
		job.Ctx = context.Background()
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		// Shutting down: answered cards still have to land.
		d.run(job)
		return
	}
	d.inflight++
	d.mu.Unlock()

	s := d.shardFor(job.Key)
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Wait blocks until every submitted job has run.
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	for d.inflight > 0 {
		d.idle.Wait()
	}
	d.mu.Unlock()
}

// Close drains pending jobs and stops the workers.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.Wait()
	close(d.quit)
	d.workers.Wait()
}

func (d *Dispatcher) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return d.shards[h.Sum32()%uint32(len(d.shards))]
}

func (d *Dispatcher) work(s *shard) {
	defer d.workers.Done()
	for {
		job, ok := s.pop()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-d.quit:
				return
			}
		}
		d.run(job)
		d.mu.Lock()
		d.inflight--
		if d.inflight == 0 {
			d.idle.Broadcast()
		}
		d.mu.Unlock()
	}
}

func (s *shard) pop() (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.jobs) == 0 {
		return Job{}, false
	}
	job := s.jobs[0]
	s.jobs[0] = Job{}
	s.jobs = s.jobs[1:]
	return job, true
}

func (d *Dispatcher) run(job Job) {
	if err := job.Ctx.Err(); err != nil {
		logger.Debug("skipping cancelled write", "op", job.Op, "session_id", job.SessionID)
		return
	}
	err := job.Run(job.Ctx)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) && job.Ctx.Err() != nil {
		logger.Debug("write cancelled", "op", job.Op, "session_id", job.SessionID)
		return
	}

	logger.Warn("background write failed",
		"op", job.Op,
		"user_id", job.UserID,
		"session_id", job.SessionID,
		"word_id", job.WordID,
		"error", err,
	)
	d.mu.Lock()
	onWarning := d.onWarning
	d.mu.Unlock()
	if onWarning == nil {
		return
	}
	onWarning(Warning{
		Op:        job.Op,
		UserID:    job.UserID,
		SessionID: job.SessionID,
		WordID:    job.WordID,
		Err:       fmt.Errorf("%w: %s: %w", ErrPersistenceWriteFailed, job.Op, err),
	})
}
