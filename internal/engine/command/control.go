package command

import (
	"errors"
	"fmt"

	"github.com/kode4food/runq/internal/engine/queue"
	"github.com/kode4food/runq/pkg/api"
)

// QueueControl manipulates the current queue or another queue by id
type QueueControl struct {
	env *Env
}

const (
	actionStop   = "stop"
	actionClear  = "clear"
	actionPause  = "pause"
	actionResume = "resume"

	prefixDelay = "delay"
	prefixSpeed = "speed"
)

var ErrQueueNotFound = errors.New("queue not found")

// Parse implements queue.Command
func (*QueueControl) Parse(e *queue.Entry) error {
	a := splitArgs(e.Args,
		[]string{prefixDelay, prefixSpeed},
		[]string{actionStop, actionClear, actionPause, actionResume},
	)
	if len(a.positional) > 1 {
		return fmt.Errorf("%w: queue takes at most one id", ErrInvalidArgument)
	}
	if len(a.flags) == 0 && len(a.prefixed) == 0 {
		return fmt.Errorf("%w: queue needs an action", ErrMissingArgument)
	}
	e.SetParsed(a)
	return nil
}

// Execute implements queue.Command
func (c *QueueControl) Execute(e *queue.Entry) error {
	a := parsedArgs(e)
	target := e.Queue()
	if len(a.positional) == 1 {
		id := api.QueueID(c.env.resolve(e, a.positional[0]))
		q, ok := c.env.Queues.Queue(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrQueueNotFound, id)
		}
		target = q
	}

	if src, ok := a.get(prefixSpeed); ok {
		d, err := c.env.duration(e, src)
		if err != nil {
			return err
		}
		target.SetSpeed(d)
	}
	if src, ok := a.get(prefixDelay); ok {
		d, err := c.env.duration(e, src)
		if err != nil {
			return err
		}
		target.DelayUntil(target.Now().Add(d))
	}
	switch {
	case a.has(actionStop):
		target.Stop()
	case a.has(actionClear):
		target.Clear()
	case a.has(actionPause):
		target.Pause()
	case a.has(actionResume):
		target.Resume()
	}
	return nil
}
