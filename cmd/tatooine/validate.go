// cmd/tatooine/validate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valpere/tatooine/internal/config"
	clierrors "github.com/valpere/tatooine/internal/errors"
)

func newValidateCmd() *cobra.Command {
	var engines []string

	cmd := &cobra.Command{
		Use:   "validate <schemas.yaml>",
		Short: "Check a schema file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := config.LoadFromFile(args[0])
			if err != nil {
				return clierrors.Wrap(clierrors.KindConfig, "load schemas", err)
			}

			result := file.ValidateWithDetails(engines...)
			out := cmd.OutOrStdout()
			for _, warning := range result.Warnings {
				fmt.Fprintf(out, "warning: %s\n", warning)
			}
			if !result.Valid {
				return clierrors.Wrap(clierrors.KindValidation, "validate schemas", file.Validate(engines...))
			}

			fmt.Fprintf(out, "✓ Schema file '%s' is valid (%d schemas)\n", args[0], len(file.Schemas))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&engines, "engine", nil, "additional custom engine names to accept")
	return cmd
}
