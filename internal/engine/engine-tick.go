package engine

import (
	"context"
	"time"
)

// Tick advances the runtime by one step: it runs tasks queued through Do,
// takes back queues returned by async workers, gives every timed queue a
// slice, and ticks the deferred scheduler
func (e *Engine) Tick() {
	e.runTasks()
	e.exchange.Drain(e.resume)

	now := e.clock()
	for _, q := range e.live() {
		if q.IsAsync() || !q.IsTimed() {
			continue
		}
		q.Tick(now)
		e.settle(q)
	}
	e.deferred.Tick(now)
}

// Run calls Tick on the configured interval until ctx is done
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.config.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopped:
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Do runs fn on the tick goroutine and waits for it to finish
func (e *Engine) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	task := func() {
		defer close(done)
		fn()
	}
	select {
	case <-e.stopped:
		return ErrEngineStopped
	default:
	}
	select {
	case e.tasks <- task:
	case <-e.stopped:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-e.stopped:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) runTasks() {
	for {
		select {
		case task := <-e.tasks:
			task()
		default:
			return
		}
	}
}
