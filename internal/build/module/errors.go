package module

import (
	"fmt"

	oerrors "github.com/tribunales-evau/bundler/internal/errors"
)

// Build phases reported by errors.
const (
	PhaseResolve   = "resolve"
	PhaseParse     = "parse"
	PhaseTransform = "transform"
	PhaseEmit      = "emit"
)

// BuildError is implemented by every error that aborts a build.
type BuildError interface {
	error

	// Phase returns the build phase the error occurred in.
	Phase() string

	// Path returns the file the error is about.
	Path() string
}

// NotFoundError indicates a specifier could not be resolved, or a resolved
// file could not be read.
type NotFoundError struct {
	// Importer is the module containing the reference. Empty for entry points.
	Importer string

	// Specifier is the unresolved import string.
	Specifier string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("module not found: %q", e.Specifier)
	if e.Importer != "" {
		msg = fmt.Sprintf("%s (imported from %s)", msg, e.Importer)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *NotFoundError) Phase() string { return PhaseResolve }

func (e *NotFoundError) Path() string {
	if e.Importer != "" {
		return e.Importer
	}
	return e.Specifier
}

func (e *NotFoundError) Unwrap() []error {
	if e.Cause != nil {
		return []error{oerrors.ErrNotFound, e.Cause}
	}
	return []error{oerrors.ErrNotFound}
}

// ParseError indicates a module's code could not be scanned.
type ParseError struct {
	File   string
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
}

func (e *ParseError) Phase() string { return PhaseParse }

func (e *ParseError) Path() string { return e.File }

func (e *ParseError) Unwrap() error { return oerrors.ErrParse }

// TransformError indicates a plugin failed on a module.
type TransformError struct {
	File   string
	Plugin string
	Cause  error
}

func (e *TransformError) Error() string {
	if e.Plugin == "" {
		return fmt.Sprintf("%s: %v", e.File, e.Cause)
	}
	return fmt.Sprintf("%s: plugin %q: %v", e.File, e.Plugin, e.Cause)
}

func (e *TransformError) Phase() string { return PhaseTransform }

func (e *TransformError) Path() string { return e.File }

func (e *TransformError) Unwrap() []error {
	return []error{oerrors.ErrTransform, e.Cause}
}

// EmitError indicates an artifact could not be written.
type EmitError struct {
	File  string
	Cause error
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.File, e.Cause)
}

func (e *EmitError) Phase() string { return PhaseEmit }

func (e *EmitError) Path() string { return e.File }

func (e *EmitError) Unwrap() []error {
	return []error{oerrors.ErrEmit, e.Cause}
}
