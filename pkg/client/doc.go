// Package client talks to a running runq daemon over its HTTP admin API
package client
