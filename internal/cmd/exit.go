package cmd

import (
	"errors"
	"fmt"

	"github.com/tribunales-evau/bundler/internal/build/module"
	oerrors "github.com/tribunales-evau/bundler/internal/errors"
	"github.com/tribunales-evau/bundler/internal/output"
)

// exitError wraps err with the exit code derived from it.
func exitError(err error, printed bool) error {
	return &oerrors.ExitError{Err: err, Code: oerrors.ExitCodeFromError(err), Printed: printed}
}

// reportBuildError logs a build failure with its phase and path, then
// returns it wrapped for the exit code.
func reportBuildError(err error) error {
	var be module.BuildError
	if errors.As(err, &be) {
		output.Error(fmt.Sprintf("%s failed", be.Phase()), "path", be.Path(), "error", err)
		return exitError(err, true)
	}

	var detail *oerrors.DetailError
	if errors.As(err, &detail) {
		output.Details(detail.Error())
		return exitError(err, true)
	}

	output.Error("build failed", "error", err)
	return exitError(err, true)
}
