package queue

import "time"

type (
	// Data is the per-run scratch state attached to an entry. The set of
	// implementations is closed: one per command family that needs state
	Data interface {
		data()
	}

	// LoopKind identifies which loop command owns a LoopState
	LoopKind uint8

	// LoopState is the scratch state of repeat, foreach, and while
	LoopState struct {
		Kind   LoopKind
		Index  int
		Total  int
		From   int
		Items  []string
		Keys   []string
		Var    string
		KeyVar string
		Guard  []string
		Body   []*Entry
		Saved  []Binding
	}

	// PollState is the scratch state of waituntil
	PollState struct {
		Guard    []string
		Rate     time.Duration
		Deadline time.Time
		Next     time.Time
		Checks   int
	}

	// Binding remembers a definition a loop shadows so it can be restored
	Binding struct {
		Name  string
		Value string
		Bound bool
	}
)

const (
	RepeatLoop LoopKind = iota
	ForeachLoop
	WhileLoop
)

var loopKindNames = [...]string{
	RepeatLoop:  "repeat",
	ForeachLoop: "foreach",
	WhileLoop:   "while",
}

func (*LoopState) data() {}
func (*PollState) data() {}

func (k LoopKind) String() string {
	if int(k) < len(loopKindNames) {
		return loopKindNames[k]
	}
	return "loop"
}

// Shadow records the current binding of each name before the loop
// overwrites it
func (s *LoopState) Shadow(q *Queue, names ...string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		v, ok := q.Definition(name)
		s.Saved = append(s.Saved, Binding{Name: name, Value: v, Bound: ok})
	}
}

// Restore puts every shadowed definition back the way it was
func (s *LoopState) Restore(q *Queue) {
	for _, b := range s.Saved {
		if b.Bound {
			q.Define(b.Name, b.Value)
		} else {
			q.Undefine(b.Name)
		}
	}
	s.Saved = nil
}
