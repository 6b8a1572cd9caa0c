// cmd/tatooine/run.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/valpere/tatooine/internal/browser"
	"github.com/valpere/tatooine/internal/config"
	clierrors "github.com/valpere/tatooine/internal/errors"
	"github.com/valpere/tatooine/internal/output"
	"github.com/valpere/tatooine/internal/scraper"
	"github.com/valpere/tatooine/pkg/types"
)

type runOptions struct {
	format      string
	output      string
	strict      bool
	watch       bool
	failOnError bool
}

func newRunCmd(global *globalFlags) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <schemas.yaml>",
		Short: "Run every schema of a schema file and write the envelopes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSchemas(ctx, cmd, global, opts, args[0], nil)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", string(output.FormatJSON), "output format: json, yaml or csv")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when a schema names an unknown engine")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "run again whenever the schema file changes")
	cmd.Flags().BoolVar(&opts.failOnError, "fail-on-error", false, "exit with an error when any schema fails")

	return cmd
}

// runSchemas wires the dispatcher from settings and runs the file.
// collaborators are applied last and override the configured ones.
func runSchemas(ctx context.Context, cmd *cobra.Command, global *globalFlags, opts *runOptions, path string, collaborators []scraper.Option) error {
	format := output.OutputFormat(opts.format)
	if !format.IsValid() {
		return clierrors.Wrap(clierrors.KindOutput, "run", fmt.Errorf("unsupported output format: %s", opts.format))
	}

	cfg, err := global.loadSettings()
	if err != nil {
		return clierrors.Wrap(clierrors.KindConfig, "load settings", err)
	}

	logger, err := global.newLogger(cfg)
	if err != nil {
		return clierrors.Wrap(clierrors.KindConfig, "create logger", err)
	}
	defer logger.Sync()

	file, err := loadSchemaFile(path)
	if err != nil {
		return err
	}

	dispatcherOpts := []scraper.Option{
		scraper.WithFetcher(scraper.NewRestyFetcher(cfg.HTTP)),
		scraper.WithLauncher(browser.NewChromeLauncher(&cfg.Browser, logger)),
		scraper.WithLogger(logger),
	}
	if opts.strict {
		dispatcherOpts = append(dispatcherOpts, scraper.WithStrictEngines())
	}
	dispatcher := scraper.NewDispatcher(append(dispatcherOpts, collaborators...)...)

	manager, err := output.NewManager(output.Config{Format: format, File: opts.output})
	if err != nil {
		return clierrors.Wrap(clierrors.KindOutput, "run", err)
	}
	manager.SetStdout(cmd.OutOrStdout())

	hints := clierrors.NewService()
	runOnce := func(file *config.SchemaFile) error {
		logger.Infof("running %d schemas from %s", len(file.Schemas), path)

		envelopes, err := dispatcher.Dispatch(ctx, file.Schemas)
		if err != nil {
			return clierrors.Wrap(clierrors.KindGeneral, "dispatch", err)
		}

		if err := manager.Write(envelopes); err != nil {
			return clierrors.Wrap(clierrors.KindOutput, "write results", err)
		}

		failed := reportFailures(cmd.ErrOrStderr(), hints, envelopes)
		if failed > 0 && opts.failOnError {
			return fmt.Errorf("%d of %d schemas failed", failed, len(envelopes))
		}
		return nil
	}

	if err := runOnce(file); err != nil || !opts.watch {
		return err
	}

	watcher, err := config.NewSchemaWatcher(path, logger)
	if err != nil {
		return clierrors.Wrap(clierrors.KindConfig, "watch schemas", err)
	}
	defer watcher.Close()

	reloads := make(chan *config.SchemaFile, 1)
	watcher.OnChange(func(file *config.SchemaFile) {
		select {
		case reloads <- file:
		default:
			// a run is pending already, it will pick up the latest file
			select {
			case <-reloads:
			default:
			}
			reloads <- file
		}
	})

	logger.Infof("watching %s for changes", path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case file := <-reloads:
			if err := runOnce(file); err != nil {
				logger.Errorf("run failed: %v", err)
			}
		}
	}
}

func loadSchemaFile(path string) (*config.SchemaFile, error) {
	file, err := config.LoadFromFile(path)
	if err != nil {
		return nil, clierrors.Wrap(clierrors.KindConfig, "load schemas", err)
	}
	if err := file.Validate(); err != nil {
		return nil, clierrors.Wrap(clierrors.KindValidation, "validate schemas", err)
	}
	return file, nil
}

// reportFailures prints one line per failed envelope and returns the count
func reportFailures(w io.Writer, hints *clierrors.Service, envelopes []*types.Envelope) int {
	failed := 0
	for i, envelope := range envelopes {
		if !envelope.Failed() {
			continue
		}
		failed++
		fmt.Fprintf(w, "schema %d failed: %s", i, envelope.Error)
		if hint := hints.Hint(envelope.Error); hint != "" {
			fmt.Fprintf(w, " (%s)", hint)
		}
		fmt.Fprintln(w)
	}
	return failed
}
