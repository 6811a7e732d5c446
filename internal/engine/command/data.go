package command

import (
	"fmt"
	"strings"

	"github.com/kode4food/runq/internal/engine/queue"
	"github.com/kode4food/runq/internal/engine/value"
)

type (
	// Define binds, removes, or adjusts a definition
	Define struct {
		env *Env
	}

	// Determine appends to the queue's determinations
	Determine struct {
		env *Env
	}

	// Narrate sends resolved text to the host
	Narrate struct {
		env *Env
	}

	// Debug sends resolved text to the queue's reporter
	Debug struct {
		env *Env
	}

	// Stop ends the current queue
	Stop struct{}

	defineOp uint8

	defineArgs struct {
		name  string
		value string
		op    defineOp
	}
)

const (
	defineSet defineOp = iota
	defineRemove
	defineAdd
	defineSubtract
)

const flagPassively = "passively"

// Parse implements queue.Command
func (*Define) Parse(e *queue.Entry) error {
	if err := requireArgs(e, 1); err != nil {
		return err
	}
	if len(e.Args) > 2 {
		return fmt.Errorf("%w: too many values, quote the value",
			ErrInvalidArgument)
	}
	if len(e.Args) == 2 {
		e.SetParsed(&defineArgs{name: e.Args[0], value: e.Args[1]})
		return nil
	}

	name, op, ok := strings.Cut(e.Args[0], ":")
	if !ok || name == "" {
		return fmt.Errorf("%w: define needs a value", ErrMissingArgument)
	}
	res := &defineArgs{name: name}
	switch {
	case op == "!":
		res.op = defineRemove
	case op == "++":
		res.op, res.value = defineAdd, "1"
	case op == "--":
		res.op, res.value = defineSubtract, "1"
	case strings.HasPrefix(op, "+:"):
		res.op, res.value = defineAdd, op[2:]
	case strings.HasPrefix(op, "-:"):
		res.op, res.value = defineSubtract, op[2:]
	default:
		res.value = op
	}
	e.SetParsed(res)
	return nil
}

// Execute implements queue.Command
func (c *Define) Execute(e *queue.Entry) error {
	a, ok := e.Parsed().(*defineArgs)
	if !ok {
		return ErrMissingArgument
	}
	q := e.Queue()
	name := c.env.resolve(e, a.name)
	switch a.op {
	case defineRemove:
		q.Undefine(name)
		return nil
	case defineAdd, defineSubtract:
		cur := 0.0
		if v, ok := q.Definition(name); ok && v != "" {
			n, ok := value.ParseNumber(v)
			if !ok {
				return fmt.Errorf("%w: %s is not a number", ErrInvalidArgument,
					name)
			}
			cur = n
		}
		delta, ok := value.ParseNumber(c.env.resolve(e, a.value))
		if !ok {
			return fmt.Errorf("%w: %s", ErrInvalidArgument, a.value)
		}
		if a.op == defineSubtract {
			delta = -delta
		}
		q.Define(name, value.FormatNumber(cur+delta))
		return nil
	default:
		q.Define(name, c.env.resolve(e, a.value))
		return nil
	}
}

// Parse implements queue.Command
func (*Determine) Parse(e *queue.Entry) error {
	a := splitArgs(e.Args, nil, []string{flagPassively})
	if len(a.positional) != 1 {
		return fmt.Errorf("%w: determine needs one value", ErrMissingArgument)
	}
	e.SetParsed(a)
	return nil
}

// Execute implements queue.Command. Without passively the queue ends
// once the value is recorded
func (c *Determine) Execute(e *queue.Entry) error {
	a := parsedArgs(e)
	if len(a.positional) == 0 {
		return ErrMissingArgument
	}
	q := e.Queue()
	q.Determine(c.env.resolve(e, a.positional[0]))
	if !a.has(flagPassively) {
		q.Clear()
	}
	return nil
}

// Parse implements queue.Command
func (*Narrate) Parse(e *queue.Entry) error {
	return requireArgs(e, 1)
}

// Execute implements queue.Command
func (c *Narrate) Execute(e *queue.Entry) error {
	text := strings.Join(c.env.resolveAll(e, e.Args), " ")
	n := c.env.Narrator
	if n == nil {
		n = SlogNarrator{}
	}
	n.Narrate(e.Queue(), text)
	return nil
}

// Parse implements queue.Command
func (*Debug) Parse(e *queue.Entry) error {
	return requireArgs(e, 1)
}

// Execute implements queue.Command
func (c *Debug) Execute(e *queue.Entry) error {
	text := strings.Join(c.env.resolveAll(e, e.Args), " ")
	e.Queue().Reporter().Report(e, text)
	return nil
}

// Parse implements queue.Command
func (*Stop) Parse(*queue.Entry) error {
	return nil
}

// Execute implements queue.Command
func (*Stop) Execute(e *queue.Entry) error {
	e.Queue().Stop()
	return nil
}
