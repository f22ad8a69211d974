package ratelimiter

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	defaultErrorRetryDelay = 100 * time.Millisecond
	defaultIdleInterval    = 5 * time.Millisecond
	defaultJitterMax       = 25 * time.Millisecond
)

// Job is one unit of work admitted through the Limiter before it runs.
type Job struct {
	JobID   string
	LeaseID string

	Provider, Model string
	Requirements    []Requirement

	// Execute runs once the reservation is granted. The lease is completed
	// afterwards whatever Execute returns.
	Execute func(ctx context.Context) error
}

// SchedulerObserver sees reservation attempts. Calls arrive from worker
// goroutines and must not block.
type SchedulerObserver interface {
	OnReserveStart(job Job)
	OnReserveDenied(job Job, res Decision)
	OnReserveError(job Job, err error)
}

type nopObserver struct{}

func (nopObserver) OnReserveStart(Job)                  {}
func (nopObserver) OnReserveDenied(Job, Decision) {}
func (nopObserver) OnReserveError(Job, error)            {}

// Option tunes a Scheduler.
type Option func(*schedulerConfig)

// WithObserver reports reservation attempts to o.
func WithObserver(o SchedulerObserver) Option {
	return func(cfg *schedulerConfig) { cfg.observer = o }
}

type schedulerConfig struct {
	now             func() time.Time
	newLeaseID      func() string
	jitter          func(time.Duration) time.Duration
	errorRetryDelay time.Duration
	idleInterval    time.Duration
	observer        SchedulerObserver
}

// Scheduler runs jobs on a fixed worker pool. Jobs queue per provider/model
// and queues are served round-robin, so a throttled model never holds up
// another. Denied reservations are retried after the limiter's hint.
type Scheduler struct {
	limiter Limiter
	cfg     schedulerConfig

	submitCh  chan Job
	requeueCh chan delayedJob
	workCh    chan Job
	stopCh    chan struct{}
	doneCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

type delayedJob struct {
	job       Job
	notBefore time.Time
}

// NewScheduler starts a scheduler with workers goroutines.
func NewScheduler(limiter Limiter, workers int, opts ...Option) *Scheduler {
	cfg := schedulerConfig{jitter: randomJitter}
	for _, opt := range opts {
		opt(&cfg)
	}
	return newScheduler(limiter, workers, cfg)
}

func newScheduler(limiter Limiter, workers int, cfg schedulerConfig) *Scheduler {
	workers = max(workers, 1)
	if cfg.now == nil {
		cfg.now = time.Now
	}
	if cfg.newLeaseID == nil {
		cfg.newLeaseID = NewLeaseID
	}
	if cfg.jitter == nil {
		cfg.jitter = func(time.Duration) time.Duration { return 0 }
	}
	if cfg.errorRetryDelay <= 0 {
		cfg.errorRetryDelay = defaultErrorRetryDelay
	}
	if cfg.idleInterval <= 0 {
		cfg.idleInterval = defaultIdleInterval
	}
	if cfg.observer == nil {
		cfg.observer = nopObserver{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		limiter:   limiter,
		cfg:       cfg,
		submitCh:  make(chan Job, workers*4),
		requeueCh: make(chan delayedJob, workers*4),
		workCh:    make(chan Job, workers),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	go s.loop(newSchedulerState())
	s.wg.Add(workers)
	for range workers {
		go s.work()
	}
	return s
}

// Submit enqueues a job. Jobs submitted after Shutdown are dropped.
func (s *Scheduler) Submit(job Job) {
	select {
	case <-s.doneCh:
	case s.submitCh <- job:
	}
}

// Shutdown cancels running jobs and waits for the workers to return.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.cancel()
	})
	finished := make(chan struct{})
	go func() {
		<-s.doneCh
		s.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// randomJitter spreads retries of denied jobs by up to min(base, defaultJitterMax).
func randomJitter(base time.Duration) time.Duration {
	limit := defaultJitterMax
	if base > 0 && base < limit {
		limit = base
	}
	return time.Duration(rand.Int64N(int64(limit) + 1))
}
