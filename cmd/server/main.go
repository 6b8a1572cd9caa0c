// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/valpere/tatooine/internal/browser"
	"github.com/valpere/tatooine/internal/config"
	"github.com/valpere/tatooine/internal/monitoring"
	"github.com/valpere/tatooine/internal/scraper"
	"github.com/valpere/tatooine/internal/utils"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var settings, addr string

	cmd := &cobra.Command{
		Use:           "tatooine-server",
		Short:         "Serve the tatooine dispatcher over HTTP",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadAppConfig(settings)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&settings, "settings", "", "runtime settings file (YAML)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides settings)")
	return cmd
}

func serve(ctx context.Context, cfg *config.AppConfig) error {
	logger, err := utils.NewLoggerWithConfig(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	metrics := monitoring.NewMetricsManager(cfg.Metrics)

	srv := newServer(newDispatcher(cfg, metrics, logger), metrics, &cfg.Server.URLPolicy, logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("tatooine server %s listening on %s", version, cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// newDispatcher builds the dispatcher serving API requests. Redirects are
// held to the same URL policy as the schemas themselves.
func newDispatcher(cfg *config.AppConfig, metrics *monitoring.MetricsManager, logger utils.Logger) *scraper.Dispatcher {
	httpConfig := cfg.HTTP
	httpConfig.CheckRedirect = cfg.Server.URLPolicy.CheckURL

	opts := []scraper.Option{
		scraper.WithFetcher(scraper.NewRestyFetcher(httpConfig)),
		scraper.WithLauncher(browser.NewChromeLauncher(&cfg.Browser, logger)),
		scraper.WithLogger(logger),
		scraper.WithMetrics(metrics),
	}
	if cfg.Server.StrictEngines {
		opts = append(opts, scraper.WithStrictEngines())
	}
	return scraper.NewDispatcher(opts...)
}
