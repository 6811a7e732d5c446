package queue

type (
	// Ref is a generation-checked handle to an entry pinned in a queue's
	// arena. The zero Ref refers to nothing
	Ref struct {
		index uint32
		gen   uint32
	}

	// arena keeps entries that still carry live state after they have
	// been popped, such as a loop whose callbacks are still pending
	arena struct {
		slots []arenaSlot
		free  []uint32
	}

	arenaSlot struct {
		entry *Entry
		gen   uint32
	}
)

// IsZero reports whether the handle refers to nothing
func (r Ref) IsZero() bool {
	return r.index == 0
}

func (a *arena) pin(e *Entry) Ref {
	if !e.self.IsZero() && a.get(e.self) == e {
		return e.self
	}
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, arenaSlot{})
		idx = uint32(len(a.slots))
	}
	s := &a.slots[idx-1]
	s.gen++
	s.entry = e
	e.self = Ref{index: idx, gen: s.gen}
	return e.self
}

func (a *arena) get(r Ref) *Entry {
	if r.IsZero() || int(r.index) > len(a.slots) {
		return nil
	}
	s := a.slots[r.index-1]
	if s.gen != r.gen {
		return nil
	}
	return s.entry
}

func (a *arena) release(r Ref) {
	e := a.get(r)
	if e == nil {
		return
	}
	s := &a.slots[r.index-1]
	s.entry = nil
	s.gen++
	a.free = append(a.free, r.index)
	e.self = Ref{}
	e.data = nil
}

func (a *arena) len() int {
	return len(a.slots) - len(a.free)
}

// reset drops every slot without touching the pinned entries, which may
// still be in use by the goroutine driving the queue
func (a *arena) reset() {
	for i := range a.slots {
		s := &a.slots[i]
		if s.entry != nil {
			s.entry = nil
			s.gen++
			a.free = append(a.free, uint32(i+1))
		}
	}
}
