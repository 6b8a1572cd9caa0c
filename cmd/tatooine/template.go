// cmd/tatooine/template.go
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valpere/tatooine/internal/config"
	clierrors "github.com/valpere/tatooine/internal/errors"
	"github.com/valpere/tatooine/pkg/types"
)

func newTemplateCmd() *cobra.Command {
	var kind, outputFile string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Print an example schema file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !types.IsBuiltinEngine(kind) {
				return clierrors.Wrap(clierrors.KindConfig, "template",
					fmt.Errorf("unknown template type %q, expected one of: %s", kind, strings.Join(config.TemplateKinds(), ", ")))
			}

			file := config.GenerateTemplate(kind)
			if outputFile != "" {
				if err := config.SaveToFile(&file, outputFile); err != nil {
					return clierrors.Wrap(clierrors.KindOutput, "template", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Template written to %s\n", outputFile)
				return nil
			}
			return config.SaveToWriter(&file, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&kind, "type", "t", types.EngineMarkup, "template type: json, markup or spa")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "write the template to a file")
	return cmd
}
