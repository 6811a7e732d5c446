package command

import (
	"fmt"
	"slices"
	"sync"

	"github.com/kode4food/runq/internal/engine/queue"
	"github.com/kode4food/runq/internal/engine/value"
)

// Random picks one option, either from its braced block or from the
// entries that immediately follow it. It avoids repeating any of its
// last few picks when it can
type Random struct {
	env     *Env
	mu      sync.Mutex
	history []int
}

const (
	randomHistory = 3
	randomRetries = 10
)

// NewRandom creates a Random command drawing from the Env's source
func NewRandom(env *Env) *Random {
	return &Random{env: env}
}

// Parse implements queue.Command
func (*Random) Parse(e *queue.Entry) error {
	if e.HasBraces() {
		_, err := firstBlock(e)
		return err
	}
	return requireArgs(e, 1)
}

// Execute implements queue.Command
func (r *Random) Execute(e *queue.Entry) error {
	q := e.Queue()
	if e.HasBraces() {
		options, err := firstBlock(e)
		if err != nil {
			return err
		}
		pick := options[r.pick(len(options))].Clone()
		pick.Instant = true
		q.InjectEntry(pick, 0)
		return nil
	}

	src := r.env.resolve(e, e.Args[0])
	n, ok := value.ParseInt(src)
	if !ok || n < 1 {
		return fmt.Errorf("%w: random count %s", ErrInvalidArgument, src)
	}
	if n > q.Size() {
		return fmt.Errorf("%w: random %d with %d entries left",
			ErrInvalidArgument, n, q.Size())
	}
	idx := r.pick(n)
	for i := n - 1; i >= 0; i-- {
		if i != idx {
			q.Remove(i)
		}
	}
	return nil
}

func (r *Random) pick(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	sel := r.env.random(n)
	for try := 0; n > 1 && try < randomRetries; try++ {
		if !slices.Contains(r.history, sel) {
			break
		}
		sel = r.env.random(n)
	}
	r.history = append(r.history, sel)
	if len(r.history) > randomHistory {
		r.history = r.history[1:]
	}
	return sel
}
