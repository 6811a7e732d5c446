package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kode4food/runq/internal/engine/queue"
)

type (
	// Goto discards entries up to the named mark
	Goto struct{ env *Env }

	// Mark is a jump target and does nothing when executed
	Mark struct{}
)

const markCommand = "mark"

var ErrMarkNotFound = errors.New("mark not found")

// Parse implements queue.Command
func (*Goto) Parse(e *queue.Entry) error {
	return requireArgs(e, 1)
}

// Execute implements queue.Command
func (c *Goto) Execute(e *queue.Entry) error {
	q := e.Queue()
	name := c.env.resolve(e, e.Args[0])
	for i := range q.Size() {
		m := q.Entry(i)
		if m != nil && m.Name == markCommand &&
			strings.EqualFold(m.Arg(0), name) {
			q.RemoveRange(0, i)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrMarkNotFound, name)
}

// Parse implements queue.Command
func (Mark) Parse(e *queue.Entry) error {
	return requireArgs(e, 1)
}

// Execute implements queue.Command
func (Mark) Execute(*queue.Entry) error {
	return nil
}
