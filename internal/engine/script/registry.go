// Package script loads YAML script containers and turns their command
// lists into queue entries
package script

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/kode4food/runq/internal/engine/queue"
	"github.com/kode4food/runq/internal/util"
	"github.com/kode4food/runq/pkg/api"
	"github.com/kode4food/runq/pkg/log"
)

type (
	// Registry holds every loaded container and caches parsed paths
	Registry struct {
		mu         sync.RWMutex
		containers map[string]*Container
		lookup     Lookup
		cache      *util.LRUCache[[]*queue.Entry]
	}
)

// DefaultCacheSize bounds the number of parsed paths kept in memory
const DefaultCacheSize = 1024

var (
	ErrScriptNotFound = errors.New("script not found")
	ErrPathNotFound   = errors.New("script path not found")
)

var scriptExtensions = util.SetOf(".yml", ".yaml", ".rq")

// NewRegistry creates an empty registry that binds commands through lookup
func NewRegistry(lookup Lookup) *Registry {
	return NewRegistryWithCache(lookup, DefaultCacheSize)
}

// NewRegistryWithCache creates an empty registry keeping at most size
// parsed paths
func NewRegistryWithCache(lookup Lookup, size int) *Registry {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Registry{
		containers: map[string]*Container{},
		lookup:     lookup,
		cache:      util.NewLRUCache[[]*queue.Entry](size),
	}
}

// LoadBytes adds or replaces the containers defined in one document
func (r *Registry) LoadBytes(file string, data []byte) error {
	containers, err := ParseContainers(file, data)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range containers {
		r.containers[c.Name] = c
	}
	r.cache.Purge()
	return nil
}

// LoadFile adds or replaces the containers defined in a file
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return r.LoadBytes(path, data)
}

// LoadDir loads every script file below dir
func (r *Registry) LoadDir(dir string) error {
	var errs []error
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !scriptExtensions.Contains(strings.ToLower(filepath.Ext(p))) {
			return nil
		}
		if err := r.LoadFile(p); err != nil {
			errs = append(errs, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return errors.Join(errs...)
}

// Remove drops a container
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.containers, strings.ToLower(name))
	r.cache.Purge()
}

// Container returns the named container
func (r *Registry) Container(name string) (*Container, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.containers[strings.ToLower(name)]
	return c, ok
}

// Names returns every container name in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.containers))
}

// EntriesFor returns fresh entries for a script path, ready to be added to
// a queue. An empty path selects the default path
func (r *Registry) EntriesFor(name, path string) ([]*queue.Entry, error) {
	c, ok := r.Container(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, name)
	}
	if path == "" {
		path = api.DefaultPath
	}
	path = strings.ToLower(path)
	if !c.HasPath(path) {
		return nil, fmt.Errorf("%w: %s.%s", ErrPathNotFound, c.Name, path)
	}

	key := c.Name + "." + path
	tmpl, err := r.cache.Get(key, func() ([]*queue.Entry, error) {
		entries, err := c.Parse(path, r.lookup)
		if err != nil {
			slog.Warn("Script path has invalid lines",
				log.Script(key),
				log.Error(err))
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return queue.CloneEntries(tmpl, false), nil
}

// Check parses every path of every container and returns all problems
func (r *Registry) Check() error {
	r.mu.RLock()
	containers := slices.Collect(maps.Values(r.containers))
	r.mu.RUnlock()

	var errs []error
	for _, c := range containers {
		for _, p := range c.Paths() {
			if _, err := c.Parse(p, r.lookup); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
