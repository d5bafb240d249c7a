package output

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh/spinner"
)

// SpinnerOption configures a spinner.
type SpinnerOption func(*spinnerConfig)

type spinnerConfig struct {
	title   string
	enabled bool
}

// WithTitle sets the spinner title.
func WithTitle(title string) SpinnerOption {
	return func(c *spinnerConfig) {
		c.title = title
	}
}

// WithSpinner turns the spinner on or off. Debug output and spinners do not
// mix, so callers disable it in verbose mode.
func WithSpinner(enabled bool) SpinnerOption {
	return func(c *spinnerConfig) {
		c.enabled = enabled
	}
}

// RunWithSpinner executes action while showing a spinner on a terminal.
// Returns the action's error if any.
func RunWithSpinner(ctx context.Context, action func(context.Context) error, opts ...SpinnerOption) error {
	cfg := &spinnerConfig{
		title:   "Working...",
		enabled: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if !cfg.enabled || !IsTTY() {
		return action(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- action(ctx)
	}()

	var actionErr error
	spinnerErr := spinner.New().
		Title(cfg.title).
		Context(ctx).
		Action(func() {
			actionErr = <-errCh
		}).
		Run()
	if spinnerErr != nil {
		return fmt.Errorf("spinner error: %w", spinnerErr)
	}
	return actionErr
}
