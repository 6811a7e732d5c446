// Package engine composes the runtime: it owns the running queues, the
// script registry, the command set, and the deferred scheduler, and it
// advances all of them from a single tick goroutine
package engine
