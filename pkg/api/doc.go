// Package api holds the value types shared between the runtime core, its
// persistence layer, and the host-facing surfaces
package api
