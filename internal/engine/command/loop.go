package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kode4food/runq/internal/engine/queue"
	"github.com/kode4food/runq/internal/engine/value"
)

// Loop implements repeat, foreach, and while. Each iteration splices a
// fresh copy of the body followed by a callback entry; the callback reads
// the loop's state through its owner handle and either splices the next
// iteration or restores the definitions the loop shadowed
type Loop struct {
	env  *Env
	kind queue.LoopKind
}

const (
	// loopCallback cannot be produced by the argument splitter
	loopCallback = "\x00callback"

	loopStop = "stop"
	loopNext = "next"

	prefixAs   = "as"
	prefixFrom = "from"
	prefixKey  = "key"

	loopIndexDef   = "loop_index"
	defaultLoopVar = "value"
	defaultKeyVar  = "key"
)

var (
	ErrNotInLoop     = errors.New("not inside a matching loop")
	ErrLoopStateLost = errors.New("loop state no longer available")
)

// Parse implements queue.Command
func (l *Loop) Parse(e *queue.Entry) error {
	if isLoopControl(e) || e.Arg(0) == loopCallback {
		return nil
	}
	var a *args
	switch l.kind {
	case queue.RepeatLoop:
		a = splitArgs(e.Args, []string{prefixAs, prefixFrom}, nil)
	case queue.ForeachLoop:
		a = splitArgs(e.Args, []string{prefixAs, prefixKey}, nil)
	default:
		a = &args{positional: e.Args}
	}
	if len(a.positional) == 0 {
		return fmt.Errorf("%w: %s needs a %s", ErrMissingArgument, e.Name,
			l.subject())
	}
	if l.kind != queue.WhileLoop && len(a.positional) > 1 {
		return fmt.Errorf("%w: %s takes one %s", ErrInvalidArgument, e.Name,
			l.subject())
	}
	if _, err := firstBlock(e); err != nil {
		return err
	}
	e.SetParsed(a)
	return nil
}

func (l *Loop) subject() string {
	switch l.kind {
	case queue.RepeatLoop:
		return "count"
	case queue.ForeachLoop:
		return "list"
	default:
		return "condition"
	}
}

// Execute implements queue.Command
func (l *Loop) Execute(e *queue.Entry) error {
	switch {
	case e.Arg(0) == loopCallback:
		return l.callback(e)
	case isLoopControl(e):
		return l.control(e, strings.ToLower(e.Arg(0)))
	default:
		return l.start(e)
	}
}

func (l *Loop) start(e *queue.Entry) error {
	body, err := firstBlock(e)
	if err != nil {
		return err
	}
	a := parsedArgs(e)
	if len(a.positional) == 0 {
		return ErrMissingArgument
	}

	st := &queue.LoopState{Kind: l.kind, Body: body, Index: 1}
	switch l.kind {
	case queue.RepeatLoop:
		if err := l.prepareRepeat(e, a, st); err != nil {
			return err
		}
	case queue.ForeachLoop:
		l.prepareForeach(e, a, st)
	case queue.WhileLoop:
		st.Guard = a.positional
		if !l.env.evaluate(e, st.Guard) {
			return nil
		}
	}
	if l.kind != queue.WhileLoop && st.Total == 0 {
		return nil
	}

	q := e.Queue()
	st.Shadow(q, st.Var, st.KeyVar, loopIndexDef)
	ref := q.Pin(e)
	e.SetData(st)
	l.iterate(q, e, ref, st)
	return nil
}

func (l *Loop) prepareRepeat(
	e *queue.Entry, a *args, st *queue.LoopState,
) error {
	src := l.env.resolve(e, a.positional[0])
	n, ok := value.ParseInt(src)
	if !ok || n < 0 {
		return fmt.Errorf("%w: repeat count %s", ErrInvalidArgument, src)
	}
	st.Total = n
	st.From = 1
	if v, ok := a.get(prefixFrom); ok {
		from, ok := value.ParseInt(l.env.resolve(e, v))
		if !ok {
			return fmt.Errorf("%w: from:%s", ErrInvalidArgument, v)
		}
		st.From = from
	}
	st.Var = defaultLoopVar
	if v, ok := a.get(prefixAs); ok {
		st.Var = l.env.resolve(e, v)
	}
	return nil
}

func (l *Loop) prepareForeach(e *queue.Entry, a *args, st *queue.LoopState) {
	src := l.env.resolve(e, a.positional[0])
	if keys, values, ok := value.ParseMap(src); ok {
		st.Keys = keys
		st.Items = values
		st.KeyVar = defaultKeyVar
		if v, ok := a.get(prefixKey); ok {
			st.KeyVar = l.env.resolve(e, v)
		}
	} else {
		st.Items = value.SplitList(src)
	}
	st.Total = len(st.Items)
	st.Var = defaultLoopVar
	if v, ok := a.get(prefixAs); ok {
		st.Var = l.env.resolve(e, v)
	}
}

// iterate binds the loop variables for the current index and splices the
// body plus a callback at the front of the queue
func (l *Loop) iterate(
	q *queue.Queue, owner *queue.Entry, ref queue.Ref, st *queue.LoopState,
) {
	q.Define(loopIndexDef, strconv.Itoa(st.Index))
	switch st.Kind {
	case queue.RepeatLoop:
		q.Define(st.Var, strconv.Itoa(st.From+st.Index-1))
	case queue.ForeachLoop:
		q.Define(st.Var, st.Items[st.Index-1])
		if st.Keys != nil {
			q.Define(st.KeyVar, st.Keys[st.Index-1])
		}
	}

	cb := owner.Clone()
	cb.Args = []string{loopCallback}
	cb.Braces = nil
	cb.Instant = owner.Instant
	cb.SetOwner(ref)
	q.Inject(append(queue.CloneEntries(st.Body, true), cb), 0)
}

func (l *Loop) callback(e *queue.Entry) error {
	q := e.Queue()
	ref := e.OwnerRef()
	owner := e.Owner()
	if owner == nil {
		return ErrLoopStateLost
	}
	st, ok := owner.Data().(*queue.LoopState)
	if !ok {
		return ErrLoopStateLost
	}

	st.Index++
	if l.more(e, st) {
		l.iterate(q, owner, ref, st)
		return nil
	}
	st.Restore(q)
	q.Release(ref)
	return nil
}

func (l *Loop) more(e *queue.Entry, st *queue.LoopState) bool {
	if st.Kind == queue.WhileLoop {
		return l.env.evaluate(e, st.Guard)
	}
	return st.Index <= st.Total
}

// control handles "stop" and "next" by scanning ahead for the nearest
// callback of the same loop command. Inner loops skipped over on the way
// are unwound innermost first
func (l *Loop) control(e *queue.Entry, op string) error {
	q := e.Queue()
	for i := range q.Size() {
		cb := q.Entry(i)
		if cb == nil || cb.Name != e.Name || cb.Arg(0) != loopCallback {
			continue
		}
		end := i
		if op == loopStop {
			end = i + 1
		}
		var inner []*queue.Entry
		for j := range end {
			if c := q.Entry(j); c != nil && c.Arg(0) == loopCallback {
				inner = append(inner, c)
			}
		}
		q.RemoveRange(0, end)
		for _, c := range inner {
			unwind(q, c)
		}
		return nil
	}
	return fmt.Errorf("%w: %s %s", ErrNotInLoop, e.Name, op)
}

func unwind(q *queue.Queue, cb *queue.Entry) {
	ref := cb.OwnerRef()
	if owner := cb.Owner(); owner != nil {
		if st, ok := owner.Data().(*queue.LoopState); ok {
			st.Restore(q)
		}
	}
	q.Release(ref)
}

func isLoopControl(e *queue.Entry) bool {
	if len(e.Args) != 1 || e.HasBraces() {
		return false
	}
	arg := strings.ToLower(e.Args[0])
	return arg == loopStop || arg == loopNext
}
