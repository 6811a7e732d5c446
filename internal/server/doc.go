// Package server implements the HTTP admin API for the runtime
//
// Every handler hands its work to the engine's tick goroutine, so the API
// never touches a queue another goroutine is running
package server
