package engine

import (
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/kode4food/runq/internal/engine/queue"
	"github.com/kode4food/runq/internal/engine/scheduler"
	"github.com/kode4food/runq/internal/engine/script"
	"github.com/kode4food/runq/internal/engine/value"
	"github.com/kode4food/runq/pkg/api"
	"github.com/kode4food/runq/pkg/log"
)

// Start creates a queue for the requested script path and starts it. An
// instant queue runs on the calling goroutine until it finishes or has to
// wait; a timed queue runs its first slice on the next tick
func (e *Engine) Start(req api.StartRequest) (*queue.Queue, error) {
	ref := req.Script.WithDefaultPath()
	c, ok := e.scripts.Container(ref.Script)
	if !ok {
		return nil, fmt.Errorf("%w: %s", script.ErrScriptNotFound,
			ref.Script)
	}
	entries, err := e.scripts.EntriesFor(c.Name, ref.Path)
	if err != nil {
		return nil, err
	}
	speed, timed, err := e.speedFor(c, req)
	if err != nil {
		return nil, err
	}
	if req.ID != "" {
		if _, ok := e.Queue(req.ID); ok {
			return nil, fmt.Errorf("%w: %s", ErrQueueExists, req.ID)
		}
	}

	q := queue.New(queue.Config{
		ID:          req.ID,
		Script:      api.ScriptRef{Script: c.Name, Path: ref.Path},
		Timed:       timed,
		Speed:       speed,
		Definitions: req.Definitions,
		Context:     contextFor(req.Context),
		Reporter:    e.reporter,
		Clock:       queue.Clock(e.clock),
	})
	q.AddEntries(entries...)
	if req.Delay != "" {
		d, err := value.ParseDuration(req.Delay, e.config.TickInterval)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidDelay, err)
		}
		q.DelayUntil(e.clock().Add(d))
	}

	slog.Debug("Queue starting",
		log.QueueID(q.ID()),
		log.Script(q.Script().String()))

	if req.Async {
		q.SetAsync(true)
		if err := e.register(q); err != nil {
			return nil, err
		}
		e.exchange.Dispatch(q)
		return q, nil
	}

	q.Start()
	if q.State().IsDone() {
		return q, nil
	}
	if err := e.register(q); err != nil {
		q.Stop()
		return nil, err
	}
	e.settle(q)
	return q, nil
}

// speedFor decides whether a queue is timed. An explicit instant request
// wins, then a requested speed, then the container's speed; anything else
// runs instantly. A zero speed means instant
func (e *Engine) speedFor(
	c *script.Container, req api.StartRequest,
) (time.Duration, bool, error) {
	speed := e.config.DefaultSpeed
	if req.Instant {
		return speed, false, nil
	}
	src := req.Speed
	if src == "" {
		src = c.Speed
	}
	if src == "" {
		return speed, false, nil
	}
	d, err := value.ParseDuration(src, e.config.TickInterval)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s", ErrInvalidSpeed, err)
	}
	if d <= 0 {
		return speed, false, nil
	}
	return d, true, nil
}

// settle acts on a hand-off requested while the queue was running on the
// calling goroutine
func (e *Engine) settle(q *queue.Queue) {
	if q.TakeHandoff() == queue.ToWorker {
		e.exchange.Dispatch(q)
	}
}

// resume takes back a queue returned by an async worker
func (e *Engine) resume(q *queue.Queue) {
	if !q.IsTimed() {
		q.Run()
		e.settle(q)
	}
}

func (e *Engine) fireDeferred(r *scheduler.Record) error {
	_, err := e.Start(api.StartRequest{
		Script:      r.Script,
		Definitions: r.Definitions,
		Context:     r.Context,
	})
	return err
}

func contextFor(ctx map[string]string) queue.ContextFunc {
	if ctx == nil {
		return nil
	}
	return func() map[string]string {
		return maps.Clone(ctx)
	}
}
