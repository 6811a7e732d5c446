package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kode4food/runq/internal/engine"
)

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [dir]",
		Short: "Parse every script and report problems",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.ScriptsDir = args[0]
			}
			eng := engine.New(cfg, engine.Dependencies{})
			scripts := eng.Scripts()
			if err := scripts.LoadDir(cfg.ScriptsDir); err != nil {
				return fmt.Errorf("%w: %w", ErrLoadScripts, err)
			}
			if err := scripts.Check(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d scripts ok\n",
				len(scripts.Names()))
			return nil
		},
	}
}
