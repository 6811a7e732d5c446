package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kode4food/runq/internal/engine/queue"
	"github.com/kode4food/runq/internal/engine/script"
	"github.com/kode4food/runq/internal/util"
)

// args is the parse-time split of an entry's raw arguments. Values are
// still unresolved; tags are substituted at execution time
type args struct {
	positional []string
	prefixed   map[string]string
	flags      util.Set[string]
}

var (
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMissingBraces   = errors.New("missing braces")
	ErrEmptyBlock      = errors.New("empty braced block")
)

// splitArgs sorts raw arguments into recognized prefix:value pairs,
// recognized bare flags, and everything else. Prefixes ending in a dot
// match any name after the dot
func splitArgs(raw []string, prefixes, flags []string) *args {
	res := &args{
		prefixed: map[string]string{},
		flags:    util.Set[string]{},
	}
	known := util.SetOf(prefixes...)
	flagSet := util.SetOf(flags...)
	for _, a := range raw {
		if p, v := script.SplitPrefix(a); p != "" && matchPrefix(known, p) {
			res.prefixed[p] = v
			continue
		}
		if lower := strings.ToLower(a); flagSet.Contains(lower) {
			res.flags.Add(lower)
			continue
		}
		res.positional = append(res.positional, a)
	}
	return res
}

func matchPrefix(known util.Set[string], p string) bool {
	if known.Contains(p) {
		return true
	}
	if dot := strings.IndexByte(p, '.'); dot > 0 {
		return known.Contains(p[:dot+1])
	}
	return false
}

func (a *args) get(prefix string) (string, bool) {
	v, ok := a.prefixed[prefix]
	return v, ok
}

func (a *args) has(flag string) bool {
	return a.flags.Contains(flag)
}

// withPrefix returns name:value pairs for every prefix starting with p
func (a *args) withPrefix(p string) map[string]string {
	res := map[string]string{}
	for k, v := range a.prefixed {
		if name, ok := strings.CutPrefix(k, p); ok && name != "" {
			res[name] = v
		}
	}
	return res
}

func parsedArgs(e *queue.Entry) *args {
	if a, ok := e.Parsed().(*args); ok {
		return a
	}
	return &args{prefixed: map[string]string{}, flags: util.Set[string]{}}
}

func requireArgs(e *queue.Entry, n int) error {
	if len(e.Args) < n {
		return fmt.Errorf("%w: %s needs %d", ErrMissingArgument, e.Name, n)
	}
	return nil
}

func firstBlock(e *queue.Entry) ([]*queue.Entry, error) {
	b := e.Braces.Block(0)
	if b == nil {
		return nil, ErrMissingBraces
	}
	if len(b.Entries) == 0 {
		return nil, ErrEmptyBlock
	}
	return b.Entries, nil
}
