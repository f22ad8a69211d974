package ratelimiter

import (
	"container/heap"
	"time"
)

// schedulerState is owned by the loop goroutine. Ready jobs wait in one FIFO
// per provider/model and are handed out round-robin, so a throttled model
// cannot starve another. Delayed jobs wait in a single heap until their time.
type schedulerState struct {
	ready   map[string][]Job
	order   []string
	turn    int
	delayed delayHeap
	seq     uint64
}

func newSchedulerState() *schedulerState {
	return &schedulerState{ready: map[string][]Job{}}
}

// push queues job as ready now.
func (s *schedulerState) push(job Job) {
	key := job.Provider + ":" + job.Model
	if _, ok := s.ready[key]; !ok {
		s.order = append(s.order, key)
	}
	s.ready[key] = append(s.ready[key], job)
}

// delay holds job back until notBefore.
func (s *schedulerState) delay(job Job, notBefore time.Time) {
	s.seq++
	heap.Push(&s.delayed, delayedEntry{job: job, notBefore: notBefore, seq: s.seq})
}

// wake moves every delayed job due at now onto its ready queue.
func (s *schedulerState) wake(now time.Time) {
	for len(s.delayed) > 0 && !s.delayed[0].notBefore.After(now) {
		s.push(heap.Pop(&s.delayed).(delayedEntry).job)
	}
}

// pop returns the next ready job, rotating across queues.
func (s *schedulerState) pop() (Job, bool) {
	for i := range s.order {
		idx := (s.turn + i) % len(s.order)
		key := s.order[idx]
		queue := s.ready[key]
		if len(queue) == 0 {
			continue
		}
		s.ready[key] = queue[1:]
		s.turn = (idx + 1) % len(s.order)
		return queue[0], true
	}
	return Job{}, false
}

// nextWake is when the earliest delayed job becomes ready.
func (s *schedulerState) nextWake() (time.Time, bool) {
	if len(s.delayed) == 0 {
		return time.Time{}, false
	}
	return s.delayed[0].notBefore, true
}

type delayedEntry struct {
	job       Job
	notBefore time.Time
	seq       uint64
}

// delayHeap orders entries by notBefore, then by insertion.
type delayHeap []delayedEntry

func (h delayHeap) Len() int { return len(h) }

func (h delayHeap) Less(i, j int) bool {
	if h[i].notBefore.Equal(h[j].notBefore) {
		return h[i].seq < h[j].seq
	}
	return h[i].notBefore.Before(h[j].notBefore)
}

func (h delayHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *delayHeap) Push(x any) { *h = append(*h, x.(delayedEntry)) }

func (h *delayHeap) Pop() any {
	old := *h
	last := old[len(old)-1]
	*h = old[:len(old)-1]
	return last
}
