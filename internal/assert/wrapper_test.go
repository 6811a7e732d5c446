package assert_test

import (
	"testing"
	"time"

	"github.com/kode4food/runq/internal/assert"
	"github.com/kode4food/runq/internal/config"
	"github.com/kode4food/runq/internal/engine/queue"
	"github.com/kode4food/runq/pkg/api"
)

func TestWrapperHelpers(t *testing.T) {
	as := assert.New(t)

	as.ConfigValid(config.NewDefaultConfig())

	cfg := config.NewDefaultConfig()
	cfg.APIPort = 0
	as.ConfigInvalid(cfg, "invalid API port")

	q := queue.New(queue.Config{Script: api.ScriptRef{Script: "test"}})
	q.Define("a", "1")
	q.Determine("x")
	as.Defined(q, "A", "1")
	as.Undefined(q, "b")
	as.Determined(q, "x")
	as.QueueState(q, api.QueueCreated)

	q.Start()
	as.EventuallyDone(q, time.Second)
	as.QueueState(q, api.QueueCompleted)
}
