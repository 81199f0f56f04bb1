// Package sched runs deferred single-shot tasks on simulation time.
//
// Tasks are keyed by owner and purpose. Scheduling a key that already has a
// pending task replaces it, so re-arming a timer (a second stun, a reapplied
// speed boost) never lets the older callback fire.
package sched

import (
	"time"
)

// Key identifies a pending task.
type Key struct {
	Owner   string
	Purpose string
}

func (k Key) String() string {
	return k.Owner + "/" + k.Purpose
}

type task struct {
	key Key
	due time.Duration
	seq uint64
	fn  func()
}

// Scheduler holds pending tasks and the current simulation time. It is not
// safe for concurrent use; the match serializes access.
type Scheduler struct {
	now   time.Duration
	seq   uint64
	tasks map[Key]*task
}

// New creates an empty scheduler at time zero.
func New() *Scheduler {
	return &Scheduler{tasks: make(map[Key]*task)}
}

// Now returns the elapsed simulation time.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// After schedules fn to run once d from now, replacing any task pending under key.
func (s *Scheduler) After(key Key, d time.Duration, fn func()) {
	if fn == nil {
		return
	}
	if d < 0 {
		d = 0
	}
	s.seq++
	s.tasks[key] = &task{key: key, due: s.now + d, seq: s.seq, fn: fn}
}

// Cancel drops the task pending under key. It reports whether one existed.
func (s *Scheduler) Cancel(key Key) bool {
	if _, ok := s.tasks[key]; !ok {
		return false
	}
	delete(s.tasks, key)
	return true
}

// CancelOwner drops every task belonging to owner and returns how many were removed.
func (s *Scheduler) CancelOwner(owner string) int {
	n := 0
	for k := range s.tasks {
		if k.Owner == owner {
			delete(s.tasks, k)
			n++
		}
	}
	return n
}

// CancelAll drops every pending task.
func (s *Scheduler) CancelAll() {
	s.tasks = make(map[Key]*task)
}

// Pending reports whether a task is scheduled under key.
func (s *Scheduler) Pending(key Key) bool {
	_, ok := s.tasks[key]
	return ok
}

// Remaining returns the time left before the task under key fires.
func (s *Scheduler) Remaining(key Key) (time.Duration, bool) {
	t, ok := s.tasks[key]
	if !ok {
		return 0, false
	}
	return t.due - s.now, true
}

// Len returns the number of pending tasks.
func (s *Scheduler) Len() int {
	return len(s.tasks)
}

// Advance moves simulation time forward by dt and runs every task that came
// due, earliest first, ties in scheduling order. Tasks scheduled by a running
// task fire in the same call if they fall due within the window. It returns
// the number of tasks run.
func (s *Scheduler) Advance(dt time.Duration) int {
	if dt < 0 {
		dt = 0
	}
	target := s.now + dt
	fired := 0
	for {
		next := s.nextDue(target)
		if next == nil {
			break
		}
		delete(s.tasks, next.key)
		s.now = next.due
		next.fn()
		fired++
	}
	s.now = target
	return fired
}

func (s *Scheduler) nextDue(target time.Duration) *task {
	var next *task
	for _, t := range s.tasks {
		if t.due > target {
			continue
		}
		if next == nil || t.due < next.due || (t.due == next.due && t.seq < next.seq) {
			next = t
		}
	}
	return next
}
