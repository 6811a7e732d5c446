package command_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kode4food/runq/internal/assert"
	"github.com/kode4food/runq/internal/config"
	"github.com/kode4food/runq/internal/engine"
	"github.com/kode4food/runq/internal/engine/queue"
	"github.com/kode4food/runq/internal/engine/tag"
	"github.com/kode4food/runq/pkg/api"
)

type (
	recorder struct {
		mu       sync.Mutex
		narrated []string
		errors   []string
	}

	harness struct {
		*assert.Wrapper
		eng      *engine.Engine
		rec      *recorder
		resolver *tag.Default
		mu       sync.Mutex
		now      time.Time
		random   func(n int) int
	}
)

var start = time.Unix(1_700_000_000, 0)

const tick = config.DefaultTickInterval

func (r *recorder) Report(*queue.Entry, string) {}

func (r *recorder) Error(_ *queue.Queue, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

func (r *recorder) Narrate(_ *queue.Queue, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.narrated = append(r.narrated, text)
}

func (r *recorder) Narrated() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.narrated...)
}

func (r *recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

func newHarness(t *testing.T, src string) *harness {
	t.Helper()
	h := &harness{
		Wrapper:  assert.New(t),
		rec:      &recorder{},
		resolver: tag.NewDefault(),
		now:      start,
	}
	h.eng = engine.New(config.NewDefaultConfig(), engine.Dependencies{
		Resolver: h.resolver,
		Reporter: h.rec,
		Narrator: h.rec,
		Clock:    h.clock,
		Random: func(n int) int {
			if h.random != nil {
				return h.random(n)
			}
			return 0
		},
	})
	require.NoError(t, h.eng.Scripts().LoadBytes("test.yml", []byte(src)))
	return h
}

func (h *harness) clock() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now
}

func (h *harness) start(name string, defs ...string) *queue.Queue {
	h.Helper()
	d := api.Definitions{}
	for i := 0; i+1 < len(defs); i += 2 {
		d.Set(defs[i], defs[i+1])
	}
	q, err := h.eng.Start(api.StartRequest{
		Script:      api.ScriptRef{Script: name},
		Definitions: d,
	})
	require.NoError(h.T, err)
	return q
}

func (h *harness) advance(d time.Duration) {
	h.mu.Lock()
	h.now = h.now.Add(d)
	h.mu.Unlock()
	h.eng.Tick()
}

func (h *harness) noErrors() {
	h.Helper()
	h.Empty(h.rec.Errors())
}

func (h *harness) errorContains(text string) {
	h.Helper()
	for _, e := range h.rec.Errors() {
		if strings.Contains(e, text) {
			return
		}
	}
	h.Failf("missing error", "no error contains %q: %v", text,
		h.rec.Errors())
}
