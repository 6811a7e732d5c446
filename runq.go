// Package runq is a script queue runtime: scripts run as queues of
// commands, instantly or on a tick, with deferred starts that survive
// restarts
package runq

const (
	Name    = "runq"
	Version = "0.1.0"
)
