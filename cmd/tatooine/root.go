// cmd/tatooine/root.go
package main

import (
	"github.com/spf13/cobra"
	"github.com/valpere/tatooine/internal/config"
	"github.com/valpere/tatooine/internal/utils"
)

type globalFlags struct {
	settings string
	logLevel string
	verbose  bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "tatooine",
		Short: "tatooine extracts records from APIs, web pages and single-page apps",
		Long: `tatooine runs batches of extraction schemas. Each schema names an engine
(json, markup or spa), the request to make and the selectors to apply, and
produces one result envelope.

Usage:
  tatooine run <schemas.yaml> [flags]`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flags.settings, "settings", "", "runtime settings file (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(
		newRunCmd(flags),
		newValidateCmd(),
		newTemplateCmd(),
		newVersionCmd(),
	)

	return cmd
}

// loadSettings resolves runtime settings from the settings file, the
// environment and the command line, in increasing priority
func (f *globalFlags) loadSettings() (*config.AppConfig, error) {
	cfg, err := config.LoadAppConfig(f.settings)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	} else if f.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func (f *globalFlags) newLogger(cfg *config.AppConfig) (utils.Logger, error) {
	return utils.NewLoggerWithConfig(cfg.Log)
}
