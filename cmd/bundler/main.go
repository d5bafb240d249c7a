// Package main is the entry point for the bundler CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tribunales-evau/bundler/internal/cmd"
	oerrors "github.com/tribunales-evau/bundler/internal/errors"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		var exitErr *oerrors.ExitError
		if errors.As(err, &exitErr) {
			// The command layer may have rendered it already.
			if !exitErr.Printed {
				fmt.Fprintln(os.Stderr, err)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(oerrors.ExitCodeFromError(err))
	}
}
