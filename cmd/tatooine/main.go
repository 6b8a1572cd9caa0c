// cmd/tatooine/main.go
package main

import (
	"fmt"
	"os"

	clierrors "github.com/valpere/tatooine/internal/errors"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		verbose, _ := root.PersistentFlags().GetBool("verbose")
		service := clierrors.NewService().WithVerbose(verbose)
		fmt.Fprint(os.Stderr, service.FormatErrorForCLI(err))
		os.Exit(service.GetExitCode(err))
	}
}
