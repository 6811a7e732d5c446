package command

import (
	"maps"
	"slices"
	"strings"

	"github.com/kode4food/runq/internal/engine/queue"
)

// Registry maps command names to their implementations. It is built once
// and read concurrently afterwards
type Registry struct {
	commands map[string]queue.Command
}

// NewRegistry creates a registry holding every built-in command
func NewRegistry(env *Env) *Registry {
	loops := func(kind queue.LoopKind) *Loop {
		return &Loop{env: env, kind: kind}
	}
	return &Registry{
		commands: map[string]queue.Command{
			"define":    &Define{env: env},
			"determine": &Determine{env: env},
			"narrate":   &Narrate{env: env},
			"debug":     &Debug{env: env},
			"wait":      &Wait{env: env},
			"waituntil": &WaitUntil{env: env},
			"queue":     &QueueControl{env: env},
			"stop":      &Stop{},
			"run":       &Run{env: env},
			"inject":    &Inject{env: env},
			"runlater":  &RunLater{env: env},
			"repeat":    loops(queue.RepeatLoop),
			"foreach":   loops(queue.ForeachLoop),
			"while":     loops(queue.WhileLoop),
			"if":        &If{env: env},
			"else":      &Else{},
			"choose":    &Choose{env: env},
			"random":    NewRandom(env),
			"goto":      &Goto{env: env},
			"mark":      &Mark{},
			"async":     &Async{},
			"sync":      &Sync{},
		},
	}
}

// Register adds or replaces a command
func (r *Registry) Register(name string, cmd queue.Command) {
	r.commands[strings.ToLower(name)] = cmd
}

// Lookup finds a command by name
func (r *Registry) Lookup(name string) (queue.Command, bool) {
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// Names returns every registered command name in sorted order
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.commands))
}
