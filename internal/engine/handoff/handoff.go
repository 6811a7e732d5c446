// Package handoff moves queues between the tick goroutine and async
// workers. A queue is owned by exactly one side at a time
package handoff

import (
	"sync"

	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/topic"

	"github.com/kode4food/runq/internal/engine/queue"
	"github.com/kode4food/runq/pkg/api"
)

// Exchange runs async queues on worker goroutines and returns them to the
// tick goroutine when they need to wait or asked to sync
type Exchange struct {
	prod      topic.Producer[*queue.Queue]
	cons      topic.Consumer[*queue.Queue]
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates an Exchange
func New() *Exchange {
	returns := caravan.NewTopic[*queue.Queue]()
	return &Exchange{
		prod: returns.NewProducer(),
		cons: returns.NewConsumer(),
	}
}

// Dispatch hands q to a new worker goroutine. The caller must not touch
// the queue's entries again until it comes back through Drain
func (x *Exchange) Dispatch(q *queue.Queue) {
	q.SetAsync(true)
	x.wg.Go(func() {
		x.work(q)
	})
}

func (x *Exchange) work(q *queue.Queue) {
	if q.State() == api.QueueCreated {
		q.Start()
	} else {
		q.Run()
	}
	q.TakeHandoff()
	if q.State().IsDone() {
		q.SetAsync(false)
		return
	}
	x.prod.Send() <- q
}

// Drain passes every queue returned since the last call to fn, on the
// calling goroutine, without blocking
func (x *Exchange) Drain(fn func(*queue.Queue)) int {
	n := 0
	for {
		select {
		case q, ok := <-x.cons.Receive():
			if !ok {
				return n
			}
			q.SetAsync(false)
			fn(q)
			n++
		default:
			return n
		}
	}
}

// Wait blocks until every dispatched worker has returned its queue
func (x *Exchange) Wait() {
	x.wg.Wait()
}

// Close waits for workers and releases the underlying topic
func (x *Exchange) Close() {
	x.closeOnce.Do(func() {
		x.wg.Wait()
		x.prod.Close()
		x.cons.Close()
	})
}
