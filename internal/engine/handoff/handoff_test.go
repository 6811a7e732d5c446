package handoff_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/runq/internal/engine/handoff"
	"github.com/kode4food/runq/internal/engine/queue"
	"github.com/kode4food/runq/pkg/api"
)

type funcCommand func(e *queue.Entry) error

func (funcCommand) Parse(*queue.Entry) error {
	return nil
}

func (f funcCommand) Execute(e *queue.Entry) error {
	return f(e)
}

func entry(name string, fn func(e *queue.Entry) error) *queue.Entry {
	e := queue.NewEntry(name)
	_ = e.Bind(funcCommand(fn))
	return e
}

func drainUntil(t *testing.T, x *handoff.Exchange) *queue.Queue {
	t.Helper()
	var got *queue.Queue
	require.Eventually(t, func() bool {
		x.Drain(func(q *queue.Queue) { got = q })
		return got != nil
	}, time.Second, time.Millisecond)
	return got
}

func TestDispatchRunsToCompletion(t *testing.T) {
	x := handoff.New()
	defer x.Close()

	var ran atomic.Int32
	q := queue.New(queue.Config{Script: api.ScriptRef{Script: "test"}})
	q.AddEntries(
		entry("one", func(*queue.Entry) error { ran.Add(1); return nil }),
		entry("two", func(*queue.Entry) error { ran.Add(1); return nil }),
	)

	x.Dispatch(q)
	x.Wait()

	assert.Equal(t, int32(2), ran.Load())
	assert.Equal(t, api.QueueCompleted, q.State())
	assert.False(t, q.IsAsync())
	assert.Zero(t, x.Drain(func(*queue.Queue) {}))
}

func TestSyncReturnsQueue(t *testing.T) {
	x := handoff.New()
	defer x.Close()

	var after atomic.Bool
	q := queue.New(queue.Config{Script: api.ScriptRef{Script: "test"}})
	q.AddEntries(
		entry("sync", func(e *queue.Entry) error {
			e.Queue().RequestHandoff(queue.ToTick)
			return nil
		}),
		entry("after", func(*queue.Entry) error {
			after.Store(true)
			return nil
		}),
	)

	x.Dispatch(q)
	back := drainUntil(t, x)

	assert.Same(t, q, back)
	assert.False(t, back.IsAsync())
	assert.False(t, after.Load())
	assert.Equal(t, 1, back.Size())

	back.Run()
	assert.True(t, after.Load())
	assert.Equal(t, api.QueueCompleted, back.State())
}

func TestDelayedQueueComesBack(t *testing.T) {
	x := handoff.New()
	defer x.Close()

	q := queue.New(queue.Config{Script: api.ScriptRef{Script: "test"}})
	q.AddEntries(
		entry("wait", func(e *queue.Entry) error {
			e.Queue().Delay(queue.NewElapsed(time.Second))
			return nil
		}),
		entry("noop", func(*queue.Entry) error { return nil }),
	)

	x.Dispatch(q)
	back := drainUntil(t, x)

	assert.True(t, back.IsTimed())
	assert.True(t, back.IsDelayed())
	assert.Equal(t, api.QueueRunning, back.State())
}
