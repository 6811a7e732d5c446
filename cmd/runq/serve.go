package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kode4food/runq/internal/config"
	"github.com/kode4food/runq/internal/engine"
	"github.com/kode4food/runq/internal/server"
	"github.com/kode4food/runq/internal/store"
	"github.com/kode4food/runq/pkg/log"
)

type daemon struct {
	cfg        *config.Config
	store      store.Closer
	engine     *engine.Engine
	apiServer  *server.Server
	httpServer *http.Server
	cancel     context.CancelFunc
	ticking    chan struct{}
	quit       chan os.Signal
}

var (
	ErrOpenStore   = errors.New("failed to open deferred store")
	ErrLoadScripts = errors.New("failed to load scripts")
	ErrLoadRuns    = errors.New("failed to load deferred runs")
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the engine and the HTTP admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			d := &daemon{
				cfg:  cfg,
				quit: make(chan os.Signal, 1),
			}
			return d.run(cmd.Context())
		},
	}
}

func (d *daemon) run(ctx context.Context) error {
	slog.Info("Configuration loaded",
		slog.String("scripts_dir", d.cfg.ScriptsDir),
		slog.String("deferred_store", d.cfg.Deferred.Store),
		slog.Duration("tick_interval", d.cfg.TickInterval),
		slog.String("api_host", d.cfg.APIHost),
		slog.Int("api_port", d.cfg.APIPort))

	if err := d.initializeStore(ctx); err != nil {
		return err
	}
	if err := d.initializeEngine(ctx); err != nil {
		_ = d.store.Close()
		return err
	}
	d.startServer()

	signal.Notify(d.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(d.quit)
	<-d.quit

	d.shutdown()
	return nil
}

func (d *daemon) initializeStore(ctx context.Context) error {
	st, err := store.Open(ctx, d.cfg.Deferred)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	d.store = st
	return nil
}

func (d *daemon) initializeEngine(ctx context.Context) error {
	d.engine = engine.New(d.cfg, engine.Dependencies{
		Store: d.store,
	})
	if err := d.engine.Scripts().LoadDir(d.cfg.ScriptsDir); err != nil {
		return fmt.Errorf("%w: %w", ErrLoadScripts, err)
	}
	if err := d.engine.Load(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrLoadRuns, err)
	}

	tickCtx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.ticking = make(chan struct{})
	go func() {
		defer close(d.ticking)
		d.engine.Run(tickCtx)
	}()

	slog.Info("Engine started",
		slog.Int("scripts", len(d.engine.Scripts().Names())),
		slog.Int("deferred", d.engine.Deferred().Len()))
	return nil
}

func (d *daemon) startServer() {
	d.apiServer = server.NewServer(d.engine)
	d.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", d.cfg.APIHost, d.cfg.APIPort),
		Handler: d.apiServer.SetupRoutes(),
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", d.httpServer.Addr))
		err := d.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (d *daemon) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), d.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := d.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	d.cancel()
	<-d.ticking

	if err := d.engine.Stop(ctx); err != nil {
		slog.Error("Engine shutdown failed", log.Error(err))
	}
	_ = d.store.Close()

	slog.Info("Server exited")
}
