package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kode4food/runq/internal/engine/scheduler"
	"github.com/kode4food/runq/pkg/log"
)

// Load restores persisted deferred runs. A missing document is not an
// error
func (e *Engine) Load(ctx context.Context) error {
	err := e.deferred.Load(ctx)
	if errors.Is(err, scheduler.ErrDocumentNotFound) {
		return nil
	}
	return err
}

// Stop stops every queue the tick goroutine owns, waits for async workers,
// and writes the deferred runs to the store
func (e *Engine) Stop(ctx context.Context) error {
	e.stopOnce.Do(func() {
		close(e.stopped)
	})

	for _, q := range e.live() {
		if !q.IsAsync() {
			q.Stop()
		}
	}

	done := make(chan struct{})
	go func() {
		e.exchange.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ErrShutdownTimeout
	}

	if err := e.deferred.Flush(ctx); err != nil {
		slog.Error("Failed to save deferred runs",
			log.Error(err))
		return err
	}
	slog.Info("Engine stopped")
	return nil
}
