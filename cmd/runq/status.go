package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kode4food/runq/pkg/api"
	"github.com/kode4food/runq/pkg/client"
)

type statusOptions struct {
	url     string
	timeout time.Duration
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	tableStyle = lipgloss.NormalBorder()
)

func newStatusCmd() *cobra.Command {
	so := &statusOptions{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the queues and deferred runs of a running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := client.NewClient(so.url, so.timeout)
			ctx := cmd.Context()

			health, err := c.Health(ctx)
			if err != nil {
				return err
			}
			queues, err := c.ListQueues(ctx)
			if err != nil {
				return err
			}
			deferred, err := c.ListDeferred(ctx)
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), health, queues, deferred)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&so.url, "url", client.DefaultURL, "daemon base URL")
	flags.DurationVar(&so.timeout, "timeout", client.DefaultTimeout,
		"request timeout")
	return cmd
}

func printStatus(
	w io.Writer, health *api.HealthResponse, queues *api.QueuesListResponse,
	deferred *api.DeferredListResponse,
) {
	_, _ = fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s %s: %s",
		health.Service, health.Version, health.Status)))

	qt := table.New().Border(tableStyle).
		Headers("QUEUE", "SCRIPT", "STATE", "PENDING")
	for _, q := range queues.Queues {
		qt.Row(string(q.ID), q.Script.String(), string(q.State),
			strconv.Itoa(q.Pending))
	}
	_, _ = fmt.Fprintln(w, qt.String())

	dt := table.New().Border(tableStyle).
		Headers("DEFERRED", "SCRIPT", "TIER", "AT")
	for _, d := range deferred.Deferred {
		at := time.UnixMilli(d.At).UTC().Format(time.RFC3339)
		dt.Row(d.ID, d.Script.String(), d.Tier, at)
	}
	_, _ = fmt.Fprintln(w, dt.String())
}
