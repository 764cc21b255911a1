package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vanderheijden86/trustmap/pkg/debug"
	"github.com/vanderheijden86/trustmap/pkg/loader"
	"github.com/vanderheijden86/trustmap/pkg/server"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	var addr, title string
	var maxConns int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the map over HTTP and WebSocket",
		Long: `Serve exposes the map at /api/graph, /graph.svg, /graph.png and
/render/{format}. Clients on /ws drive their own zoom, pan and selection.
Prometheus metrics are at /metrics. Changes to the data file are pushed to
every open WebSocket.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags, addr, title, maxConns)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config, "+server.DefaultAddr+")")
	cmd.Flags().StringVar(&title, "title", "", "title drawn on rendered images")
	cmd.Flags().IntVar(&maxConns, "max-conns", server.DefaultMaxConns, "maximum simultaneous connections")
	return cmd
}

func runServe(cmd *cobra.Command, flags *globalFlags, addr, title string, maxConns int) error {
	a, err := flags.setup("stderr")
	if err != nil {
		return err
	}
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// srv is set before the watcher starts, the only other caller of the
	// swap hook.
	var srv *server.Server
	store, err := a.load(ctx, loader.WithOnSwap(func(l *loader.Loaded) {
		if srv != nil {
			srv.GraphChanged(l.Graph)
		}
	}))
	if err != nil {
		return err
	}
	defer store.Close()

	srv = server.New(store, server.Options{
		Addr:     addr,
		MaxConns: maxConns,
		Viewport: a.cfg.ViewportConfig(),
		Title:    title,
		Legend:   a.cfg.Render.Legend,
		Overview: a.cfg.Render.Overview,
	})

	stopWatch, err := a.watch(ctx, store)
	if err != nil {
		debug.L().Warn("live reload disabled", zap.Error(err))
		stopWatch = func() {}
	}
	defer stopWatch()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", a.src.Name(), srv.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
