package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Sternrassler/bgg-xml-client/pkg/config"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	listen string
	watch  bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := serveOptions{watch: true}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the BGG XML API as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, root, opts)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.listen, "listen", "", "http listen address (overrides server.listen)")
	fs.BoolVar(&opts.watch, "watch", true, "reload the config file when it changes")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, opts serveOptions) error {
	a, err := newApp(root)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
	}

	if path := strings.TrimSpace(root.cfgPath); path != "" && opts.watch {
		closer, err := a.source.Watch(ctx, path, config.DefaultReloadDebounce, a.logger)
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer func() { _ = closer.Close() }()
	}

	cfg := a.source.Load()
	listen := cfg.Server.Listen
	if opts.listen != "" {
		listen = opts.listen
	}

	srv := &http.Server{
		Addr:              listen,
		Handler:           newRouter(a.api, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().
			Str("listen", listen).
			Str("base_url", cfg.API.BaseURL).
			Str("user_agent", cfg.API.UserAgent).
			Int("concurrency_limit", cfg.Admission.ConcurrencyLimit).
			Int("window_limit", cfg.Admission.WindowLimit).
			Dur("window_size", cfg.Admission.WindowSize).
			Msg("Starting BGG proxy server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
