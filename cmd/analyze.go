package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/pathfinder/internal/formatter"
	"github.com/desertthunder/pathfinder/internal/models"
	"github.com/desertthunder/pathfinder/internal/shared"
	"github.com/desertthunder/pathfinder/internal/tasks"
)

// Analyze stages a PDF, submits it for analysis and prints the job matches.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: a PDF file is required", shared.ErrMissingArgument)
	}
	format := cmd.String("format")
	if _, err := formatter.Render(&models.AnalysisResult{}, format); err != nil {
		return err
	}

	if err := r.connect(ctx); err != nil {
		return err
	}
	if !r.session.Authenticated() {
		return &tasks.NoticeError{Message: tasks.LoginRequiredMessage, Err: shared.ErrNotAuthenticated}
	}

	source := models.SourcePicker
	if cmd.Bool("drop") {
		source = models.SourceDragDrop
	}

	if err := r.uploader.SelectFile(ctx, path, source); err != nil {
		if msg := r.lastMessage(); msg != "" {
			return &tasks.NoticeError{Message: msg, Err: err}
		}
		return err
	}
	if err := r.waitReady(ctx); err != nil {
		return err
	}

	result, err := r.uploader.Analyze(ctx)
	if err != nil {
		return err
	}
	r.printUpdates()

	if out := cmd.String("output"); out != "" {
		written, err := formatter.WriteExport(result, format, out)
		if err != nil {
			return err
		}
		r.logger.Info("matches exported", "path", written)
	}

	return r.render(result, format)
}

// waitReady prints staging progress until the candidate is ready or staging fails.
func (r *Runner) waitReady(ctx context.Context) error {
	ready := make(chan error, 1)
	go func() { ready <- r.uploader.WaitReady(ctx) }()

	for {
		select {
		case u := <-r.updates:
			r.printUpdate(u)
		case err := <-ready:
			r.printUpdates()
			return err
		}
	}
}

// printUpdates prints queued progress updates without blocking.
func (r *Runner) printUpdates() {
	for {
		select {
		case u := <-r.updates:
			r.printUpdate(u)
		default:
			return
		}
	}
}

func (r *Runner) printUpdate(u tasks.ProgressUpdate) {
	if u.Message == "" {
		return
	}
	r.logger.Debug("upload", "state", u.State, "percent", u.Percent)
	r.writePlain("%s\n", u.Message)
}

// lastMessage drains the queued updates and returns the last message, which carries a rejection's alert.
func (r *Runner) lastMessage() string {
	msg := ""
	for {
		select {
		case u := <-r.updates:
			if u.Message != "" {
				msg = u.Message
			}
		default:
			return msg
		}
	}
}

func (r *Runner) render(result *models.AnalysisResult, format string) error {
	out, err := formatter.Render(result, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
