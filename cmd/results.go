package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/pathfinder/internal/formatter"
	"github.com/desertthunder/pathfinder/internal/models"
	"github.com/desertthunder/pathfinder/internal/shared"
)

// ResultsShow prints the cached job matches. Nothing is shown when logged out.
func (r *Runner) ResultsShow(ctx context.Context, cmd *cli.Command) error {
	result, err := r.cachedResult(ctx)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}

	format := cmd.String("format")
	if out := cmd.String("output"); out != "" {
		written, err := formatter.WriteExport(result, format, out)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %d listings to %s\n", result.TotalListings(), written)
	}
	return r.render(result, format)
}

// ResultsOpen opens the share link of a listing, addressed by 1-based group and listing numbers.
func (r *Runner) ResultsOpen(ctx context.Context, cmd *cli.Command) error {
	group, err := positiveArg(cmd.StringArg("group"), "group")
	if err != nil {
		return err
	}
	index, err := positiveArg(cmd.StringArg("listing"), "listing")
	if err != nil {
		return err
	}

	result, err := r.cachedResult(ctx)
	if err != nil || result == nil {
		return err
	}

	listing, ok := result.Listing(group, index)
	if !ok {
		return fmt.Errorf("%w: no listing %d in group %d", shared.ErrInvalidArgument, index, group)
	}
	if err := r.open(listing.Link); err != nil {
		return err
	}
	return r.writePlain("✓ Opened %s at %s\n", listing.Title, listing.Company)
}

// cachedResult returns the cached result, or nil after printing why there is none.
func (r *Runner) cachedResult(ctx context.Context) (*models.AnalysisResult, error) {
	if err := r.connect(ctx); err != nil {
		return nil, err
	}
	if !r.session.Authenticated() {
		return nil, r.writePlain("Log in to see your job matches\n")
	}

	result, err := r.cache.Read(ctx)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, r.writePlain("No job matches yet. Run 'pathfinder analyze <file.pdf>'\n")
	}
	return result, nil
}

func positiveArg(value, name string) (int, error) {
	if value == "" {
		return 0, fmt.Errorf("%w: %s number is required", shared.ErrMissingArgument, name)
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive number, got %q", shared.ErrInvalidArgument, name, value)
	}
	return n, nil
}
