// Command cgbench calibrates and times a preconditioned conjugate gradient
// solver on a 27-point stencil problem and writes a benchmark report.
package main

import (
	"context"
	"os"

	"github.com/agbru/cgbench/internal/app"
	apperrors "github.com/agbru/cgbench/internal/errors"
)

func main() {
	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		os.Exit(apperrors.ExitSuccess)
	}

	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			os.Exit(apperrors.ExitSuccess)
		}
		os.Exit(apperrors.ExitErrorConfig)
	}
	os.Exit(application.Run(context.Background(), os.Stdout))
}
