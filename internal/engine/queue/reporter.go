package queue

import (
	"log/slog"

	"github.com/kode4food/runq/pkg/log"
)

type (
	// Reporter receives per-entry debug output and script errors. It must
	// never panic
	Reporter interface {
		Report(e *Entry, summary string)
		Error(q *Queue, msg string)
	}

	// SlogReporter writes through a structured logger
	SlogReporter struct {
		logger *slog.Logger
	}
)

var _ Reporter = (*SlogReporter)(nil)

// NewSlogReporter creates a reporter; a nil logger uses slog.Default
func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogReporter{logger: logger}
}

// Report implements Reporter
func (r *SlogReporter) Report(e *Entry, summary string) {
	attrs := []any{log.Command(e.Name)}
	if q := e.Queue(); q != nil {
		attrs = append(attrs, log.QueueID(q.ID()))
	}
	if e.Script != "" {
		attrs = append(attrs, log.Script(e.Script))
	}
	r.logger.Debug(summary, attrs...)
}

// Error implements Reporter
func (r *SlogReporter) Error(q *Queue, msg string) {
	if q == nil {
		r.logger.Error("Script error", log.ErrorString(msg))
		return
	}
	r.logger.Error("Script error",
		log.QueueID(q.ID()),
		log.Script(q.Script().String()),
		log.ErrorString(msg))
}
