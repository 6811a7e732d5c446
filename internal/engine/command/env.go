// Package command implements the built-in script commands. Control-flow
// commands work only by splicing entries into and out of their own queue
package command

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/kode4food/runq/internal/engine/condition"
	"github.com/kode4food/runq/internal/engine/queue"
	"github.com/kode4food/runq/internal/engine/scheduler"
	"github.com/kode4food/runq/internal/engine/script"
	"github.com/kode4food/runq/internal/engine/tag"
	"github.com/kode4food/runq/internal/engine/value"
	"github.com/kode4food/runq/pkg/api"
	"github.com/kode4food/runq/pkg/log"
)

type (
	// Env carries the collaborators commands reach for while executing
	Env struct {
		Resolver  tag.Resolver
		Evaluator *condition.Evaluator
		Scripts   Scripts
		Queues    Queues
		Deferred  Deferred
		Narrator  Narrator
		Random    func(n int) int
		Tick      time.Duration
	}

	// Scripts resolves script containers and their entries
	Scripts interface {
		EntriesFor(name, path string) ([]*queue.Entry, error)
		Container(name string) (*script.Container, bool)
	}

	// Queues starts and finds running queues
	Queues interface {
		Start(req api.StartRequest) (*queue.Queue, error)
		Queue(id api.QueueID) (*queue.Queue, bool)
	}

	// Deferred accepts run-later requests
	Deferred interface {
		Schedule(r *scheduler.Record) error
		Remove(id string) bool
	}

	// Narrator receives the output of the narrate command
	Narrator interface {
		Narrate(q *queue.Queue, text string)
	}

	// SlogNarrator writes narration through a structured logger
	SlogNarrator struct {
		Logger *slog.Logger
	}
)

// Narrate implements Narrator
func (n SlogNarrator) Narrate(q *queue.Queue, text string) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info(text, log.QueueID(q.ID()))
}

func (env *Env) random(n int) int {
	if env.Random != nil {
		return env.Random(n)
	}
	return rand.IntN(n)
}

func (env *Env) resolve(e *queue.Entry, token string) string {
	return env.Resolver.Resolve(token, e.Queue())
}

func (env *Env) resolveAll(e *queue.Entry, tokens []string) []string {
	res := make([]string, len(tokens))
	for i, tok := range tokens {
		res[i] = env.resolve(e, tok)
	}
	return res
}

// evaluate runs a guard. Evaluation problems are reported and the guard
// is treated as false
func (env *Env) evaluate(e *queue.Entry, tokens []string) bool {
	q := e.Queue()
	ok, err := env.Evaluator.Evaluate(tokens, func(tok string) string {
		return env.Resolver.Resolve(tok, q)
	})
	if err != nil {
		q.Reporter().Error(q, fmt.Sprintf("%s: %s", e.Name, err))
		return false
	}
	return ok
}

func (env *Env) duration(e *queue.Entry, token string) (time.Duration, error) {
	return value.ParseDuration(env.resolve(e, token), env.Tick)
}
