package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/kode4food/runq/internal/engine/queue"
	"github.com/kode4food/runq/internal/engine/scheduler"
	"github.com/kode4food/runq/internal/engine/script"
	"github.com/kode4food/runq/internal/engine/value"
	"github.com/kode4food/runq/pkg/api"
)

type (
	// Run starts another script in a new queue. The waitable form holds
	// the current queue until the new one finishes
	Run struct {
		env *Env
	}

	// Inject splices another script path into the current queue
	Inject struct {
		env *Env
	}

	// RunLater files a deferred start with the scheduler, or cancels one
	RunLater struct {
		env *Env
	}
)

const (
	prefixPath   = "path"
	prefixDef    = "def"
	prefixDefDot = "def."
	prefixID     = "id"
	prefixSave   = "save"
	prefixCancel = "cancel"

	flagInstantly = "instantly"
	flagAsync     = "async"
)

var ErrDeferredNotFound = errors.New("deferred run not found")

// Parse implements queue.Command
func (*Run) Parse(e *queue.Entry) error {
	a := splitArgs(e.Args,
		[]string{
			prefixPath, prefixDef, prefixDefDot, prefixDelay, prefixSpeed,
			prefixID, prefixSave,
		},
		[]string{flagInstantly, flagAsync},
	)
	if len(a.positional) != 1 {
		return fmt.Errorf("%w: run needs one script name", ErrMissingArgument)
	}
	e.SetParsed(a)
	return nil
}

// Execute implements queue.Command
func (c *Run) Execute(e *queue.Entry) error {
	a := parsedArgs(e)
	q := e.Queue()
	ref, defs, err := c.env.target(e, a)
	if err != nil {
		return err
	}

	req := api.StartRequest{
		Script:      ref,
		Definitions: defs,
		Context:     q.ContextSnapshot(),
		Instant:     a.has(flagInstantly),
		Async:       a.has(flagAsync),
	}
	if v, ok := a.get(prefixID); ok {
		req.ID = api.QueueID(c.env.resolve(e, v))
	}
	if v, ok := a.get(prefixSpeed); ok {
		req.Speed = c.env.resolve(e, v)
	}
	if v, ok := a.get(prefixDelay); ok {
		req.Delay = c.env.resolve(e, v)
	}

	child, err := c.env.Queues.Start(req)
	if err != nil {
		return err
	}

	save := ""
	if v, ok := a.get(prefixSave); ok {
		save = c.env.resolve(e, v)
	}
	if !e.Waitable {
		if save != "" {
			q.Define(save, string(child.ID()))
		}
		return nil
	}

	if save != "" {
		child.OnComplete(func(done *queue.Queue) {
			q.Define(save, value.FormatList(done.Determinations()))
		})
	}
	if !child.State().IsDone() {
		q.Delay(queue.Until(func(time.Time) bool {
			return child.State().IsDone()
		}))
	}
	return nil
}

// Parse implements queue.Command
func (*Inject) Parse(e *queue.Entry) error {
	a := splitArgs(e.Args, []string{prefixPath}, []string{flagInstantly})
	if len(a.positional) != 1 {
		return fmt.Errorf("%w: inject needs one script name",
			ErrMissingArgument)
	}
	e.SetParsed(a)
	return nil
}

// Execute implements queue.Command
func (c *Inject) Execute(e *queue.Entry) error {
	a := parsedArgs(e)
	name := c.env.resolve(e, a.positional[0])
	path := ""
	if v, ok := a.get(prefixPath); ok {
		path = c.env.resolve(e, v)
	}
	entries, err := c.env.Scripts.EntriesFor(name, path)
	if err != nil {
		return err
	}
	if a.has(flagInstantly) {
		for _, ent := range entries {
			ent.Instant = true
		}
	}
	e.Queue().Inject(entries, 0)
	return nil
}

// Parse implements queue.Command
func (*RunLater) Parse(e *queue.Entry) error {
	a := splitArgs(e.Args,
		[]string{
			prefixPath, prefixDef, prefixDefDot, prefixDelay, prefixID,
			prefixCancel,
		}, nil,
	)
	if _, ok := a.get(prefixCancel); ok {
		e.SetParsed(a)
		return nil
	}
	if len(a.positional) != 1 {
		return fmt.Errorf("%w: runlater needs one script name",
			ErrMissingArgument)
	}
	if _, ok := a.get(prefixDelay); !ok {
		return fmt.Errorf("%w: runlater needs delay:", ErrMissingArgument)
	}
	e.SetParsed(a)
	return nil
}

// Execute implements queue.Command
func (c *RunLater) Execute(e *queue.Entry) error {
	a := parsedArgs(e)
	if v, ok := a.get(prefixCancel); ok {
		id := c.env.resolve(e, v)
		if !c.env.Deferred.Remove(id) {
			return fmt.Errorf("%w: %s", ErrDeferredNotFound, id)
		}
		return nil
	}

	src, _ := a.get(prefixDelay)
	d, err := c.env.duration(e, src)
	if err != nil {
		return err
	}
	ref, defs, err := c.env.target(e, a)
	if err != nil {
		return err
	}
	q := e.Queue()
	rec := &scheduler.Record{
		At:          q.Now().Add(d),
		Script:      ref,
		Definitions: defs,
		Context:     q.ContextSnapshot(),
	}
	if v, ok := a.get(prefixID); ok {
		rec.ID = c.env.resolve(e, v)
	}
	return c.env.Deferred.Schedule(rec)
}

// target resolves the script reference and definitions shared by run and
// runlater
func (env *Env) target(
	e *queue.Entry, a *args,
) (api.ScriptRef, api.Definitions, error) {
	name := env.resolve(e, a.positional[0])
	c, ok := env.Scripts.Container(name)
	if !ok {
		return api.ScriptRef{}, nil, fmt.Errorf("%w: %s",
			script.ErrScriptNotFound, name)
	}
	ref := api.ScriptRef{Script: c.Name}
	if v, ok := a.get(prefixPath); ok {
		ref.Path = env.resolve(e, v)
	}

	var defs api.Definitions
	if v, ok := a.get(prefixDef); ok {
		defs = c.BindDefinitions(value.SplitList(env.resolve(e, v)))
	} else {
		defs = api.Definitions{}
	}
	for name, v := range a.withPrefix(prefixDefDot) {
		defs.Set(name, env.resolve(e, v))
	}
	return ref, defs, nil
}
