// FILE: src/internal/queue/scheduler.go
package queue

import "time"

// Timer is a cancellable pending callback
type Timer interface {
	Stop() bool
}

// Scheduler runs deferred work for the queue
type Scheduler interface {
	// Go runs f asynchronously
	Go(f func())

	// AfterFunc runs f once after d unless the returned Timer is stopped first
	AfterFunc(d time.Duration, f func()) Timer
}

type goScheduler struct{}

// DefaultScheduler runs tasks on goroutines and timers on time.AfterFunc
func DefaultScheduler() Scheduler {
	return goScheduler{}
}

func (goScheduler) Go(f func()) {
	go f()
}

func (goScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
