package queue

import (
	"sync"
	"time"
)

// manualScheduler queues tasks and timers until the test runs them,
// emulating a single-threaded host event loop.
type manualScheduler struct {
	mu     sync.Mutex
	tasks  []func()
	timers []*manualTimer
}

type manualTimer struct {
	mu      sync.Mutex
	delay   time.Duration
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

// take marks the timer consumed and reports whether it should run
func (t *manualTimer) take() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (s *manualScheduler) Go(f func()) {
	s.mu.Lock()
	s.tasks = append(s.tasks, f)
	s.mu.Unlock()
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &manualTimer{delay: d, f: f}
	s.mu.Lock()
	s.timers = append(s.timers, t)
	s.mu.Unlock()
	return t
}

// RunTasks runs queued tasks, including ones queued while running, and returns how many ran
func (s *manualScheduler) RunTasks() int {
	n := 0
	for {
		s.mu.Lock()
		if len(s.tasks) == 0 {
			s.mu.Unlock()
			return n
		}
		f := s.tasks[0]
		s.tasks = s.tasks[1:]
		s.mu.Unlock()
		f()
		n++
	}
}

// FireTimers runs every armed timer once and returns how many fired
func (s *manualScheduler) FireTimers() int {
	s.mu.Lock()
	timers := s.timers
	s.timers = nil
	s.mu.Unlock()

	n := 0
	for _, t := range timers {
		if t.take() {
			t.f()
			n++
		}
	}
	return n
}

// Armed counts timers that are neither stopped nor fired
func (s *manualScheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		t.mu.Lock()
		if !t.stopped {
			n++
		}
		t.mu.Unlock()
	}
	return n
}

func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
