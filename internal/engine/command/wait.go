package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/kode4food/runq/internal/engine/queue"
	"github.com/kode4food/runq/internal/engine/value"
)

type (
	// Wait holds the queue for a duration
	Wait struct {
		env *Env
	}

	// WaitUntil holds the queue until a condition passes, checking it at
	// a fixed rate and giving up after an optional maximum
	WaitUntil struct {
		env *Env
	}
)

const (
	defaultWait = "3s"

	prefixRate = "rate"
	prefixMax  = "max"
)

// Parse implements queue.Command
func (*Wait) Parse(e *queue.Entry) error {
	if len(e.Args) > 1 {
		return fmt.Errorf("%w: wait takes one duration", ErrInvalidArgument)
	}
	return nil
}

// Execute implements queue.Command. Tick durations count accumulated tick
// time; every other unit waits for a wall-clock deadline
func (c *Wait) Execute(e *queue.Entry) error {
	src := defaultWait
	if len(e.Args) == 1 {
		src = c.env.resolve(e, e.Args[0])
	}
	d, err := value.ParseDuration(src, c.env.Tick)
	if err != nil {
		return err
	}
	q := e.Queue()
	if strings.HasSuffix(strings.ToLower(strings.TrimSpace(src)), "t") {
		q.Delay(queue.NewElapsed(d))
		return nil
	}
	q.DelayUntil(q.Now().Add(d))
	return nil
}

// Parse implements queue.Command
func (*WaitUntil) Parse(e *queue.Entry) error {
	a := splitArgs(e.Args, []string{prefixRate, prefixMax}, nil)
	if len(a.positional) == 0 {
		return fmt.Errorf("%w: waituntil needs a condition",
			ErrMissingArgument)
	}
	e.SetParsed(a)
	return nil
}

// Execute implements queue.Command
func (c *WaitUntil) Execute(e *queue.Entry) error {
	a := parsedArgs(e)
	q := e.Queue()
	now := q.Now()

	st := &queue.PollState{Guard: a.positional, Rate: c.env.Tick}
	if src, ok := a.get(prefixRate); ok {
		rate, err := c.env.duration(e, src)
		if err != nil {
			return err
		}
		st.Rate = rate
	}
	if st.Rate <= 0 {
		st.Rate = time.Second
	}
	if src, ok := a.get(prefixMax); ok {
		limit, err := c.env.duration(e, src)
		if err != nil {
			return err
		}
		st.Deadline = now.Add(limit)
	}

	if c.env.evaluate(e, st.Guard) {
		return nil
	}
	st.Checks = 1
	st.Next = now.Add(st.Rate)
	e.SetData(st)
	q.Delay(queue.Until(func(now time.Time) bool {
		if !st.Deadline.IsZero() && !now.Before(st.Deadline) {
			return true
		}
		if now.Before(st.Next) {
			return false
		}
		st.Next = now.Add(st.Rate)
		st.Checks++
		return c.env.evaluate(e, st.Guard)
	}))
	return nil
}
