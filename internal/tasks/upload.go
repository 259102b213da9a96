// package tasks implements the CV upload workflow: selection, staging progress and submission for analysis.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/pathfinder/internal/models"
	"github.com/desertthunder/pathfinder/internal/services"
	"github.com/desertthunder/pathfinder/internal/shared"
)

// Gate exposes the session state the controller needs before submitting.
type Gate interface {
	Authenticated() bool
	Token() string
}

// ResultWriter persists a successful analysis for the session identified by token.
type ResultWriter interface {
	Write(ctx context.Context, token string, result *models.AnalysisResult) error
}

// NoticeError is an upload workflow failure whose Error text is meant for display.
type NoticeError struct {
	Message string
	Err     error
}

func (e *NoticeError) Error() string { return e.Message }

func (e *NoticeError) Unwrap() error { return e.Err }

// UploadController owns the [models.UploadCandidate] and its [models.UploadProgress].
//
// State machine: NoFile → Selecting → InProgress → Ready → Submitting → {Succeeded → NoFile, Failed → Ready}.
type UploadController struct {
	analyzer services.Analyzer
	gate     Gate
	results  ResultWriter
	source   ProgressSource
	maxSize  int64
	updates  chan<- ProgressUpdate
	logger   *log.Logger

	mu        sync.Mutex
	state     State
	candidate *models.UploadCandidate
	progress  models.UploadProgress
	run       int
	cancel    context.CancelFunc
	done      chan struct{}
	runErr    error
	analyzing bool
}

// UploadOption configures an [UploadController].
type UploadOption func(*UploadController)

// WithProgressSource replaces the default [StagedProgress].
func WithProgressSource(src ProgressSource) UploadOption {
	return func(c *UploadController) { c.source = src }
}

// WithMaxSize sets the size limit in bytes. 0 disables it.
func WithMaxSize(n int64) UploadOption {
	return func(c *UploadController) { c.maxSize = n }
}

// WithUpdates sets the channel receiving [ProgressUpdate] values. Sends never block.
func WithUpdates(ch chan<- ProgressUpdate) UploadOption {
	return func(c *UploadController) { c.updates = ch }
}

// WithUploadLogger sets the controller's logger.
func WithUploadLogger(l *log.Logger) UploadOption {
	return func(c *UploadController) { c.logger = l }
}

// NewUploadController creates a controller in the NoFile state with a 10 MB limit.
func NewUploadController(analyzer services.Analyzer, gate Gate, results ResultWriter, opts ...UploadOption) *UploadController {
	c := &UploadController{
		analyzer: analyzer,
		gate:     gate,
		results:  results,
		source:   StagedProgress{},
		maxSize:  10 << 20,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// sendProgress sends a progress update through the channel without blocking.
func (c *UploadController) sendProgress(update ProgressUpdate) {
	if c.updates == nil {
		return
	}
	select {
	case c.updates <- update:
	default:
	}
}

// State returns the controller state.
func (c *UploadController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Candidate returns a copy of the staged candidate without its content, or nil.
func (c *UploadController) Candidate() *models.UploadCandidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.candidate == nil {
		return nil
	}
	cp := *c.candidate
	cp.Content = nil
	return &cp
}

// Progress returns the staging progress.
func (c *UploadController) Progress() models.UploadProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// SelectFile stages the PDF at path, replacing any previous candidate.
//
// A rejected file leaves the controller untouched and starts no progress run.
func (c *UploadController) SelectFile(ctx context.Context, path string, source models.SelectionSource) error {
	candidate, err := NewCandidate(path, source, c.maxSize)
	if err != nil {
		c.reject(err)
		return err
	}

	if pages, err := CountPages(path); err != nil {
		c.logger.Debug("could not count pages", "file", candidate.Name, "error", err)
	} else {
		candidate.Pages = pages
	}

	c.mu.Lock()
	if c.analyzing {
		c.mu.Unlock()
		return shared.ErrInFlight
	}
	c.stopRun()

	runCtx, cancel := context.WithCancel(ctx)
	c.run++
	gen := c.run
	c.cancel = cancel
	c.done = make(chan struct{})
	c.runErr = nil
	c.candidate = candidate
	c.state = InProgress
	c.progress = models.UploadProgress{Percent: 0, Phase: models.PhaseInProgress}
	done := c.done
	c.mu.Unlock()

	c.logger.Info("file selected", "file", candidate.Name, "size", candidate.Size, "pages", candidate.Pages, "source", source)
	c.sendProgress(selectingUpdate(candidate))
	c.sendProgress(stagingUpdate(0))

	go c.stage(runCtx, gen, done, candidate)
	return nil
}

func (c *UploadController) reject(err error) {
	c.mu.Lock()
	state, progress := c.state, c.progress
	c.mu.Unlock()

	update := rejectedUpdate(state, progress, err)
	if errors.Is(err, shared.ErrUnsupportedFileType) {
		update.Message = PDFOnlyMessage
	}
	c.logger.Warn("file rejected", "error", err)
	c.sendProgress(update)
}

// stopRun cancels the active progress run. Callers hold c.mu.
func (c *UploadController) stopRun() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *UploadController) stage(ctx context.Context, gen int, done chan struct{}, candidate *models.UploadCandidate) {
	defer close(done)

	report := func(pct int) {
		c.mu.Lock()
		if gen != c.run || pct <= c.progress.Percent || pct >= 100 {
			c.mu.Unlock()
			return
		}
		c.progress.Percent = pct
		c.mu.Unlock()
		c.sendProgress(stagingUpdate(pct))
	}

	content, err := c.source.Run(ctx, candidate.Path, candidate.Size, report)

	c.mu.Lock()
	if gen != c.run {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.runErr = err
		c.candidate = nil
		c.state = NoFile
		c.progress = models.UploadProgress{}
		c.cancel = nil
		c.mu.Unlock()

		c.logger.Error("staging failed", "file", candidate.Name, "error", err)
		c.sendProgress(stagingFailedUpdate(err))
		return
	}

	c.candidate.Content = content
	c.progress = models.UploadProgress{Percent: 100, Phase: models.PhaseComplete}
	c.state = Ready
	c.cancel = nil
	ready := *c.candidate
	c.mu.Unlock()

	ready.Content = nil
	c.sendProgress(stagingUpdate(100))
	c.sendProgress(readyUpdate(&ready))
}

// WaitReady blocks until the current progress run finishes.
//
// It returns [shared.ErrNotReady] when there is no candidate or the run ended without completing.
func (c *UploadController) WaitReady(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return shared.ErrNotReady
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runErr != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotReady, c.runErr)
	}
	if !c.progress.Complete() {
		return shared.ErrNotReady
	}
	return nil
}

// RemoveFile clears the candidate and resets progress to {0, Idle}.
func (c *UploadController) RemoveFile() error {
	c.mu.Lock()
	if c.analyzing {
		c.mu.Unlock()
		return shared.ErrInFlight
	}
	c.stopRun()
	c.run++
	c.candidate = nil
	c.state = NoFile
	c.progress = models.UploadProgress{}
	c.mu.Unlock()

	c.sendProgress(removedUpdate())
	return nil
}

// Analyze submits the ready candidate to the analysis service.
//
// Preconditions are checked in order: no analysis in flight ([shared.ErrInFlight]), an authenticated session
// ([shared.ErrNotAuthenticated], no request is sent) and a complete candidate ([shared.ErrNotReady]).
//
// On success the result is written to the cache and the candidate is cleared. On failure the cache is untouched and
// the candidate stays Ready for another attempt. A result that arrives after the session ended or changed is discarded
// and reported as a failure wrapping [shared.ErrNotAuthenticated].
func (c *UploadController) Analyze(ctx context.Context) (*models.AnalysisResult, error) {
	c.mu.Lock()
	if c.analyzing {
		c.mu.Unlock()
		return nil, shared.ErrInFlight
	}
	if !c.gate.Authenticated() {
		state, progress := c.state, c.progress
		c.mu.Unlock()

		err := &NoticeError{Message: LoginRequiredMessage, Err: shared.ErrNotAuthenticated}
		c.sendProgress(rejectedUpdate(state, progress, err))
		return nil, err
	}
	if c.candidate == nil || !c.progress.Complete() || c.state != Ready {
		c.mu.Unlock()
		return nil, shared.ErrNotReady
	}

	c.analyzing = true
	c.state = Submitting
	candidate := *c.candidate
	token := c.gate.Token()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.analyzing = false
		c.mu.Unlock()
	}()

	c.sendProgress(submittingUpdate(&candidate))
	c.logger.Info("submitting cv", "file", candidate.Name)

	result, err := c.analyzer.AnalyzeCV(ctx, token, candidate.Name, candidate.Content)
	if err == nil {
		err = c.results.Write(ctx, token, result)
	}
	if err != nil {
		c.mu.Lock()
		c.state = Ready
		c.mu.Unlock()

		c.logger.Error("analysis failed", "file", candidate.Name, "error", err)
		c.sendProgress(failedUpdate())
		return nil, &NoticeError{Message: AnalyzeFailedMessage, Err: err}
	}

	c.mu.Lock()
	c.run++
	c.candidate = nil
	c.state = NoFile
	c.progress = models.UploadProgress{}
	c.mu.Unlock()

	c.logger.Info("analysis complete", "groups", len(result.Jobs), "listings", result.TotalListings())
	c.sendProgress(succeededUpdate(result))
	return result, nil
}
