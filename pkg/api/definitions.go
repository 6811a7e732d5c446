package api

import (
	"maps"
	"slices"
	"strings"
)

// Definitions is a case-insensitive map of queue-scoped variables. Keys are
// always stored lower-cased
type Definitions map[string]string

// Get returns the value bound to name
func (d Definitions) Get(name string) (string, bool) {
	v, ok := d[strings.ToLower(name)]
	return v, ok
}

// Set binds name to value
func (d Definitions) Set(name, value string) {
	d[strings.ToLower(name)] = value
}

// Remove unbinds name
func (d Definitions) Remove(name string) {
	delete(d, strings.ToLower(name))
}

// Has reports whether name is bound
func (d Definitions) Has(name string) bool {
	_, ok := d[strings.ToLower(name)]
	return ok
}

// Clone returns an independent copy, never nil
func (d Definitions) Clone() Definitions {
	if d == nil {
		return Definitions{}
	}
	return maps.Clone(d)
}

// Names returns the bound names in sorted order
func (d Definitions) Names() []string {
	return slices.Sorted(maps.Keys(d))
}

// Merge copies every binding of other into d, overwriting
func (d Definitions) Merge(other Definitions) {
	for k, v := range other {
		d[strings.ToLower(k)] = v
	}
}
