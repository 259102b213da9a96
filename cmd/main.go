package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/pathfinder/internal/session"
	"github.com/desertthunder/pathfinder/internal/shared"
	"github.com/desertthunder/pathfinder/internal/tasks"
)

// Exit codes returned by the pathfinder binary.
const (
	exitOK       = 0
	exitError    = 1
	exitUsage    = 2
	exitAuth     = 3
	exitUpstream = 4
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.Close()

	app := newApp(runner)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.Run(ctx, os.Args)
	stop()

	if code := exitCode(err); code != exitOK {
		logger.Error(displayMessage(err))
		runner.Close()
		os.Exit(code)
	}
}

// newApp builds the root command around r.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "pathfinder",
		Usage:   "Upload your CV and browse matching jobs",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file with PATHFINDER_* overrides",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error); overrides the config file",
			},
		},
		Before:   r.Before,
		Commands: r.register(),
	}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, shared.ErrNotImplemented), errors.Is(err, context.Canceled):
		return exitOK
	case errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrPasswordMismatch),
		errors.Is(err, shared.ErrUnsupportedFileType), errors.Is(err, shared.ErrFileTooLarge),
		errors.Is(err, shared.ErrInvalidConfig):
		return exitUsage
	case errors.Is(err, shared.ErrAuthFailed), errors.Is(err, shared.ErrNotAuthenticated),
		errors.Is(err, shared.ErrTooManyAttempts):
		return exitAuth
	case errors.Is(err, shared.ErrAPIRequest), errors.Is(err, shared.ErrMalformedResponse),
		errors.Is(err, shared.ErrServiceUnavailable):
		return exitUpstream
	default:
		return exitError
	}
}

// displayMessage prefers the user-facing message carried by workflow errors.
func displayMessage(err error) string {
	var authErr *session.AuthError
	var noticeErr *tasks.NoticeError
	switch {
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.As(err, &noticeErr):
		return noticeErr.Message
	default:
		return fmt.Sprintf("application error: %v", err)
	}
}
