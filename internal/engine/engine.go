package engine

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/kode4food/runq/internal/config"
	"github.com/kode4food/runq/internal/engine/command"
	"github.com/kode4food/runq/internal/engine/compare"
	"github.com/kode4food/runq/internal/engine/condition"
	"github.com/kode4food/runq/internal/engine/handoff"
	"github.com/kode4food/runq/internal/engine/queue"
	"github.com/kode4food/runq/internal/engine/scheduler"
	"github.com/kode4food/runq/internal/engine/script"
	"github.com/kode4food/runq/internal/engine/tag"
	"github.com/kode4food/runq/pkg/api"
)

type (
	// Engine runs script queues. Tick must be called from one goroutine;
	// Start may be called from any goroutine that currently owns a queue
	Engine struct {
		config   *config.Config
		env      *command.Env
		commands *command.Registry
		scripts  *script.Registry
		deferred *scheduler.Scheduler
		exchange *handoff.Exchange
		reporter queue.Reporter
		clock    Clock
		tasks    chan func()
		stopped  chan struct{}
		stopOnce sync.Once

		mu     sync.RWMutex
		queues map[api.QueueID]*queue.Queue
		order  []api.QueueID
	}

	// Dependencies are the collaborators an Engine is built from. Every
	// field is optional
	Dependencies struct {
		Resolver tag.Resolver
		Reporter queue.Reporter
		Narrator command.Narrator
		Matcher  compare.Matcher
		Store    scheduler.Store
		Clock    Clock
		Random   func(n int) int
	}

	// Clock returns the current time
	Clock func() time.Time
)

const taskBuffer = 64

var (
	ErrQueueExists     = errors.New("queue already exists")
	ErrQueueNotFound   = errors.New("queue not found")
	ErrShutdownTimeout = errors.New("shutdown timeout exceeded")
	ErrEngineStopped   = errors.New("engine stopped")
	ErrInvalidSpeed    = errors.New("invalid speed")
	ErrInvalidDelay    = errors.New("invalid delay")
)

// New creates an Engine with the built-in command set and an empty script
// registry
func New(cfg *config.Config, deps Dependencies) *Engine {
	e := &Engine{
		config:   cfg,
		reporter: deps.Reporter,
		clock:    deps.Clock,
		exchange: handoff.New(),
		tasks:    make(chan func(), taskBuffer),
		stopped:  make(chan struct{}),
		queues:   map[api.QueueID]*queue.Queue{},
	}
	if e.reporter == nil {
		e.reporter = queue.NewSlogReporter(nil)
	}
	if e.clock == nil {
		e.clock = time.Now
	}

	resolver := deps.Resolver
	if resolver == nil {
		resolver = tag.NewDefault()
	}
	narrator := deps.Narrator
	if narrator == nil {
		narrator = command.SlogNarrator{}
	}

	e.deferred = scheduler.New(scheduler.Config{
		Store:        deps.Store,
		Fire:         e.fireDeferred,
		Clock:        scheduler.Clock(e.clock),
		SaveInterval: cfg.Deferred.SaveInterval,
	})
	e.env = &command.Env{
		Resolver:  resolver,
		Evaluator: condition.New(compare.New(deps.Matcher)),
		Queues:    e,
		Deferred:  e.deferred,
		Narrator:  narrator,
		Random:    deps.Random,
		Tick:      cfg.TickInterval,
	}
	e.commands = command.NewRegistry(e.env)
	e.scripts = script.NewRegistryWithCache(
		e.commands.Lookup, cfg.ScriptCacheSize,
	)
	e.env.Scripts = e.scripts
	return e
}

// Scripts returns the registry scripts are loaded into
func (e *Engine) Scripts() *script.Registry {
	return e.scripts
}

// Commands returns the command registry, so hosts can add their own
func (e *Engine) Commands() *command.Registry {
	return e.commands
}

// TickInterval returns how often Run calls Tick
func (e *Engine) TickInterval() time.Duration {
	return e.config.TickInterval
}

// Deferred returns the deferred-run scheduler
func (e *Engine) Deferred() *scheduler.Scheduler {
	return e.deferred
}

// Queue returns a live queue by id
func (e *Engine) Queue(id api.QueueID) (*queue.Queue, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	q, ok := e.queues[id]
	return q, ok
}

// Queues describes every live queue in start order
func (e *Engine) Queues() []api.QueueInfo {
	live := e.live()
	res := make([]api.QueueInfo, 0, len(live))
	for _, q := range live {
		res = append(res, q.Info())
	}
	return res
}

// Len returns the number of live queues
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.queues)
}

// DeferredRuns describes every pending deferred run
func (e *Engine) DeferredRuns() []api.DeferredInfo {
	records := e.deferred.Records()
	res := make([]api.DeferredInfo, 0, len(records))
	for _, r := range records {
		res = append(res, api.DeferredInfo{
			ID:          r.ID,
			At:          r.At.UnixMilli(),
			Tier:        string(r.Tier),
			Script:      r.Script,
			Definitions: r.Definitions,
			Context:     r.Context,
		})
	}
	return res
}

func (e *Engine) register(q *queue.Queue) error {
	e.mu.Lock()
	if _, ok := e.queues[q.ID()]; ok {
		e.mu.Unlock()
		return ErrQueueExists
	}
	e.queues[q.ID()] = q
	e.order = append(e.order, q.ID())
	e.mu.Unlock()

	q.OnComplete(e.unregister)
	return nil
}

func (e *Engine) unregister(q *queue.Queue) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.queues[q.ID()] != q {
		return
	}
	delete(e.queues, q.ID())
	if i := slices.Index(e.order, q.ID()); i >= 0 {
		e.order = slices.Delete(e.order, i, i+1)
	}
}

func (e *Engine) live() []*queue.Queue {
	e.mu.RLock()
	defer e.mu.RUnlock()
	res := make([]*queue.Queue, 0, len(e.order))
	for _, id := range e.order {
		res = append(res, e.queues[id])
	}
	return res
}
