package assert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/runq/internal/config"
	"github.com/kode4food/runq/internal/engine/queue"
	"github.com/kode4food/runq/pkg/api"
)

// Wrapper wraps testify assertions with runtime-specific helpers
type Wrapper struct {
	*testing.T
	*assert.Assertions
	Require *assert.Assertions
}

// DefaultRetryInterval is the default polling interval for Eventually checks
const DefaultRetryInterval = 10 * time.Millisecond

// New creates a new test assertion wrapper with both assert and require from
// testify plus runtime-specific helpers
func New(t *testing.T) *Wrapper {
	return &Wrapper{
		T:          t,
		Assertions: assert.New(t),
		Require:    assert.New(t),
	}
}

// ConfigValid asserts that a configuration is valid
func (w *Wrapper) ConfigValid(cfg *config.Config) {
	w.Helper()
	w.NoError(cfg.Validate())
	w.True(cfg.APIPort > 0 && cfg.APIPort <= config.MaxTCPPort)
	w.True(cfg.TickInterval > 0)
}

// ConfigInvalid asserts that a configuration is invalid
func (w *Wrapper) ConfigInvalid(cfg *config.Config, contains string) {
	w.Helper()
	err := cfg.Validate()
	w.Error(err)
	if err != nil && contains != "" {
		w.Contains(err.Error(), contains)
	}
}

// QueueState asserts the lifecycle state of a queue
func (w *Wrapper) QueueState(q *queue.Queue, expected api.QueueState) {
	w.Helper()
	w.Equal(expected, q.State())
}

// Defined asserts that a queue binds name to the expected value
func (w *Wrapper) Defined(q *queue.Queue, name, expected string) {
	w.Helper()
	v, ok := q.Definition(name)
	w.True(ok, "queue should define %s", name)
	w.Equal(expected, v)
}

// Undefined asserts that a queue does not bind name
func (w *Wrapper) Undefined(q *queue.Queue, name string) {
	w.Helper()
	_, ok := q.Definition(name)
	w.False(ok, "queue should not define %s", name)
}

// Determined asserts a queue's determinations in order
func (w *Wrapper) Determined(q *queue.Queue, expected ...string) {
	w.Helper()
	w.Equal(expected, q.Determinations())
}

// EventuallyDone waits for a queue to reach a terminal state
func (w *Wrapper) EventuallyDone(q *queue.Queue, timeout time.Duration) {
	w.Helper()
	w.Eventually(func() bool {
		return q.State().IsDone()
	}, timeout, DefaultRetryInterval)
}
