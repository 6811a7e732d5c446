package queue

import (
	"strings"
	"sync"
)

type (
	// Command is one script command. Parse runs once when a script is
	// loaded and may cache structured arguments on the entry; Execute runs
	// every time the entry is popped from a queue
	Command interface {
		Parse(e *Entry) error
		Execute(e *Entry) error
	}

	// Entry is one parsed command invocation
	Entry struct {
		Name     string
		Args     []string
		Braces   *Braces
		Script   string
		Instant  bool
		Waitable bool

		command Command
		parsed  any
		owner   Ref
		self    Ref
		data    Data
		queue   *Queue
	}

	// Block is a labeled braced block: the nested entries of an if branch,
	// a choose case, a loop body, and so on. Args holds whatever the label
	// carries, such as an else-if guard or a case value
	Block struct {
		Label   string
		Args    []string
		Entries []*Entry
	}

	// Braces holds the blocks parsed for one command. It is shared by every
	// clone of that command's entry
	Braces struct {
		Blocks []*Block

		once   sync.Once
		cached any
	}
)

// NewEntry creates an unbound entry for the named command
func NewEntry(name string, args ...string) *Entry {
	name, waitable := strings.CutPrefix(name, "~")
	return &Entry{
		Name:     strings.ToLower(name),
		Args:     args,
		Waitable: waitable,
	}
}

// Bind attaches the implementation that executes this entry and runs its
// Parse step
func (e *Entry) Bind(cmd Command) error {
	e.command = cmd
	return cmd.Parse(e)
}

// Command returns the bound implementation, or nil
func (e *Entry) Command() Command {
	return e.command
}

// Parsed returns the argument cache stored by Parse
func (e *Entry) Parsed() any {
	return e.parsed
}

// SetParsed stores the argument cache. Clones share it, so it must not be
// mutated after parsing
func (e *Entry) SetParsed(v any) {
	e.parsed = v
}

// Queue returns the queue this entry is running in
func (e *Entry) Queue() *Queue {
	return e.queue
}

// Data returns the per-run scratch state
func (e *Entry) Data() Data {
	return e.data
}

// SetData replaces the per-run scratch state
func (e *Entry) SetData(d Data) {
	e.data = d
}

// Owner resolves the entry that spliced this one in. It returns nil when
// there is no owner or the owner has since been released
func (e *Entry) Owner() *Entry {
	if e.queue == nil {
		return nil
	}
	return e.queue.Resolve(e.owner)
}

// OwnerRef returns the handle of the owning entry
func (e *Entry) OwnerRef() Ref {
	return e.owner
}

// SetOwner records the handle of the entry that spliced this one in
func (e *Entry) SetOwner(r Ref) {
	e.owner = r
}

// Arg returns the argument at i, or the empty string
func (e *Entry) Arg(i int) string {
	if i < 0 || i >= len(e.Args) {
		return ""
	}
	return e.Args[i]
}

// HasBraces reports whether at least one block was parsed for the entry
func (e *Entry) HasBraces() bool {
	return e.Braces != nil && len(e.Braces.Blocks) > 0
}

// Clone copies the entry for another run. Parsed arguments and braces are
// shared; queue binding, owner, and scratch state are not
func (e *Entry) Clone() *Entry {
	return &Entry{
		Name:     e.Name,
		Args:     e.Args,
		Braces:   e.Braces,
		Script:   e.Script,
		Instant:  e.Instant,
		Waitable: e.Waitable,
		command:  e.command,
		parsed:   e.parsed,
	}
}

func (e *Entry) String() string {
	var sb strings.Builder
	if e.Waitable {
		sb.WriteByte('~')
	}
	sb.WriteString(e.Name)
	for _, a := range e.Args {
		sb.WriteByte(' ')
		if strings.ContainsAny(a, " \t") {
			sb.WriteByte('"')
			sb.WriteString(a)
			sb.WriteByte('"')
			continue
		}
		sb.WriteString(a)
	}
	return sb.String()
}

// CloneEntries copies a block of entries, optionally marking every copy
// instant
func CloneEntries(entries []*Entry, instant bool) []*Entry {
	res := make([]*Entry, len(entries))
	for i, e := range entries {
		c := e.Clone()
		if instant {
			c.Instant = true
		}
		res[i] = c
	}
	return res
}

// Block returns the block at i, or nil
func (b *Braces) Block(i int) *Block {
	if b == nil || i < 0 || i >= len(b.Blocks) {
		return nil
	}
	return b.Blocks[i]
}

// Cached builds a derived value from the blocks exactly once and returns it
// on every later call
func (b *Braces) Cached(build func() any) any {
	b.once.Do(func() {
		b.cached = build()
	})
	return b.cached
}
