package command

import "github.com/kode4food/runq/internal/engine/queue"

type (
	// Async moves the rest of its queue onto a worker goroutine
	Async struct{}

	// Sync returns an async queue to the tick thread
	Sync struct{}
)

// Parse implements queue.Command
func (Async) Parse(*queue.Entry) error {
	return nil
}

// Execute implements queue.Command
func (Async) Execute(e *queue.Entry) error {
	if q := e.Queue(); !q.IsAsync() {
		q.RequestHandoff(queue.ToWorker)
	}
	return nil
}

// Parse implements queue.Command
func (Sync) Parse(*queue.Entry) error {
	return nil
}

// Execute implements queue.Command
func (Sync) Execute(e *queue.Entry) error {
	if q := e.Queue(); q.IsAsync() {
		q.RequestHandoff(queue.ToTick)
	}
	return nil
}
