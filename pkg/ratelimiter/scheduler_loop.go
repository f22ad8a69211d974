package ratelimiter

import (
	"context"
	"time"
)

// loop owns state: it queues submitted and requeued jobs and feeds workers.
func (s *Scheduler) loop(state *schedulerState) {
	timer := time.NewTimer(s.cfg.idleInterval)
	defer timer.Stop()
	for {
		now := s.cfg.now()
		state.wake(now)
		for len(s.workCh) < cap(s.workCh) {
			job, ok := state.pop()
			if !ok {
				break
			}
			s.workCh <- job
		}

		wait := s.cfg.idleInterval
		if next, ok := state.nextWake(); ok {
			wait = max(next.Sub(now), 0)
		}
		timer.Reset(wait)

		select {
		case <-s.stopCh:
			close(s.workCh)
			close(s.doneCh)
			return
		case job := <-s.submitCh:
			state.push(job)
		case d := <-s.requeueCh:
			state.delay(d.job, d.notBefore)
		case <-timer.C:
		}
	}
}

func (s *Scheduler) work() {
	defer s.wg.Done()
	for job := range s.workCh {
		s.attempt(job)
	}
}

// attempt reserves capacity for job, then runs and completes it. Denials and
// limiter errors put the job back on its queue.
func (s *Scheduler) attempt(job Job) {
	if job.LeaseID == "" {
		job.LeaseID = s.cfg.newLeaseID()
	}
	s.cfg.observer.OnReserveStart(job)
	res, err := s.limiter.Reserve(s.ctx, Reservation{LeaseID: job.LeaseID, JobID: job.JobID, Requirements: job.Requirements})
	switch {
	case err != nil:
		if s.ctx.Err() != nil {
			return
		}
		s.cfg.observer.OnReserveError(job, err)
		s.requeue(job, s.cfg.errorRetryDelay)
	case !res.Allowed:
		s.cfg.observer.OnReserveDenied(job, res)
		job.LeaseID = s.cfg.newLeaseID()
		delay := max(res.RetryAfter, 0)
		s.requeue(job, delay+max(s.cfg.jitter(delay), 0))
	default:
		if job.Execute != nil {
			_ = job.Execute(s.ctx)
		}
		_ = s.limiter.Complete(context.Background(), job.LeaseID)
	}
}

func (s *Scheduler) requeue(job Job, delay time.Duration) {
	select {
	case <-s.doneCh:
	case s.requeueCh <- delayedJob{job: job, notBefore: s.cfg.now().Add(delay)}:
	}
}
