package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kode4food/runq/internal/engine/queue"
)

type (
	// If splices the first block whose guard passes. Else and else-if
	// entries are folded into its blocks when the script is parsed
	If struct{ env *Env }

	// Else only executes when it was not attached to an if chain
	Else struct{}

	// Choose splices the case block matching its resolved argument
	Choose struct{ env *Env }

	chooseTable struct {
		cases    map[string]int
		fallback int
	}
)

const labelDefault = "default"

var ErrStrayElse = errors.New("else without a preceding if")

// Parse implements queue.Command
func (*If) Parse(e *queue.Entry) error {
	if len(e.Args) == 0 {
		return fmt.Errorf("%w: if needs a condition", ErrMissingArgument)
	}
	if !e.HasBraces() {
		return ErrMissingBraces
	}
	return nil
}

// Execute implements queue.Command
func (c *If) Execute(e *queue.Entry) error {
	if !e.HasBraces() {
		return ErrMissingBraces
	}
	for i, b := range e.Braces.Blocks {
		if !c.passes(e, i, b) {
			continue
		}
		if len(b.Entries) == 0 {
			return ErrEmptyBlock
		}
		q := e.Queue()
		q.Inject(queue.CloneEntries(b.Entries, e.Instant), 0)
		return nil
	}
	return nil
}

func (c *If) passes(e *queue.Entry, i int, b *queue.Block) bool {
	switch {
	case i == 0:
		return c.env.evaluate(e, e.Args)
	case len(b.Args) == 0:
		return true
	default:
		return c.env.evaluate(e, b.Args)
	}
}

// Parse implements queue.Command
func (Else) Parse(*queue.Entry) error {
	return nil
}

// Execute implements queue.Command
func (Else) Execute(*queue.Entry) error {
	return ErrStrayElse
}

// Parse implements queue.Command
func (*Choose) Parse(e *queue.Entry) error {
	if err := requireArgs(e, 1); err != nil {
		return err
	}
	if e.Braces == nil {
		return ErrMissingBraces
	}
	return nil
}

// Execute implements queue.Command
func (c *Choose) Execute(e *queue.Entry) error {
	if e.Braces == nil {
		return ErrMissingBraces
	}
	table := e.Braces.Cached(func() any {
		return buildChooseTable(e.Braces)
	}).(*chooseTable)

	key := strings.ToLower(c.env.resolve(e, e.Args[0]))
	idx, ok := table.cases[key]
	if !ok {
		idx = table.fallback
	}
	b := e.Braces.Block(idx)
	if b == nil || len(b.Entries) == 0 {
		return nil
	}
	e.Queue().Inject(queue.CloneEntries(b.Entries, e.Instant), 0)
	return nil
}

func buildChooseTable(b *queue.Braces) *chooseTable {
	res := &chooseTable{
		cases:    map[string]int{},
		fallback: -1,
	}
	for i, blk := range b.Blocks {
		if blk.Label == labelDefault {
			if res.fallback < 0 {
				res.fallback = i
			}
			continue
		}
		for _, v := range blk.Args {
			key := strings.ToLower(v)
			if _, ok := res.cases[key]; !ok {
				res.cases[key] = i
			}
		}
	}
	return res
}
