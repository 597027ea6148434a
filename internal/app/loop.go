package app

import (
	"log/slog"
	"time"
)

// Loop is the single-goroutine actor that owns all mutable interaction
// state. Scheduled tasks run strictly in enqueue order and never
// concurrently; network-bound work runs on workers via Spawn and
// re-enters through Schedule.
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

// NewLoop creates a loop. Run must be called for tasks to execute.
func NewLoop() *Loop {
	return &Loop{
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
	}
}

// Run drains scheduled tasks until Stop is called. It blocks; call it
// from the goroutine that should own the state.
func (l *Loop) Run() {
	for {
		select {
		case f := <-l.tasks:
			l.runTask(f)
		case <-l.done:
			return
		}
	}
}

func (l *Loop) runTask(f func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduled task panicked", "panic", r)
		}
	}()
	f()
}

// Stop ends the loop after the current task.
func (l *Loop) Stop() {
	close(l.done)
}

// Schedule enqueues f onto the loop. After Stop the task is dropped.
func (l *Loop) Schedule(f func()) {
	select {
	case l.tasks <- f:
	case <-l.done:
	}
}

// Spawn runs one unit of background work on its own goroutine. A panic
// in the worker is logged, never propagated.
func (l *Loop) Spawn(name string, f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("worker panicked", "worker", name, "panic", r)
			}
		}()
		f()
	}()
}

// After schedules f onto the loop once d has elapsed.
func (l *Loop) After(d time.Duration, f func()) {
	time.AfterFunc(d, func() {
		l.Schedule(f)
	})
}
