package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kode4food/runq/internal/engine"
	"github.com/kode4food/runq/internal/engine/queue"
	"github.com/kode4food/runq/pkg/api"
)

type (
	runOptions struct {
		defs    []string
		speed   string
		timeout time.Duration
	}

	// printNarrator writes narration lines to the command's output
	printNarrator struct {
		w io.Writer
	}
)

func newRunCmd(opts *options) *cobra.Command {
	ro := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <script> [path]",
		Short: "Run one script until every queue it starts has finished",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			eng := engine.New(cfg, engine.Dependencies{
				Narrator: printNarrator{w: cmd.OutOrStdout()},
			})
			if err := eng.Scripts().LoadDir(cfg.ScriptsDir); err != nil {
				return fmt.Errorf("%w: %w", ErrLoadScripts, err)
			}
			req, err := ro.request(args)
			if err != nil {
				return err
			}
			return runOnce(cmd.Context(), eng, req, ro.timeout)
		},
	}
	flags := cmd.Flags()
	flags.StringArrayVarP(&ro.defs, "def", "d", nil,
		"definition as name=value (repeatable)")
	flags.StringVar(&ro.speed, "speed", "", "queue speed, e.g. 1t or 500ms")
	flags.DurationVar(&ro.timeout, "timeout", 0,
		"give up after this long (0 waits forever)")
	return cmd
}

func (ro *runOptions) request(args []string) (api.StartRequest, error) {
	req := api.StartRequest{
		Script:      api.ScriptRef{Script: args[0]},
		Definitions: api.Definitions{},
		Speed:       ro.speed,
	}
	if len(args) > 1 {
		req.Script.Path = args[1]
	}
	for _, d := range ro.defs {
		name, value, ok := strings.Cut(d, "=")
		if !ok || name == "" {
			return req, fmt.Errorf("invalid definition %q: want name=value", d)
		}
		req.Definitions.Set(name, value)
	}
	return req, nil
}

// runOnce starts the script and ticks the engine until nothing is left
// running. Deferred runs are not waited for
func runOnce(
	ctx context.Context, eng *engine.Engine, req api.StartRequest,
	timeout time.Duration,
) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if _, err := eng.Start(req); err != nil {
		return err
	}

	ticker := time.NewTicker(eng.TickInterval())
	defer ticker.Stop()
	for eng.Len() > 0 {
		select {
		case <-ctx.Done():
			_ = eng.Stop(context.Background())
			return ctx.Err()
		case <-ticker.C:
			eng.Tick()
		}
	}
	return eng.Stop(ctx)
}

// Narrate implements command.Narrator
func (n printNarrator) Narrate(_ *queue.Queue, text string) {
	_, _ = fmt.Fprintln(n.w, text)
}
