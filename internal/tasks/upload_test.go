package tasks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/pathfinder/internal/models"
	"github.com/desertthunder/pathfinder/internal/repositories"
	"github.com/desertthunder/pathfinder/internal/results"
	"github.com/desertthunder/pathfinder/internal/shared"
	tu "github.com/desertthunder/pathfinder/internal/testing"
)

type fakeGate struct {
	authenticated bool
	token         string
}

func (g *fakeGate) Authenticated() bool { return g.authenticated }
func (g *fakeGate) Token() string       { return g.token }

type fakeAnalyzer struct {
	calls  atomic.Int32
	result *models.AnalysisResult
	err    error
	block  chan struct{}
	gotTok string
	gotLen int
}

func (f *fakeAnalyzer) AnalyzeCV(ctx context.Context, token, filename string, content []byte) (*models.AnalysisResult, error) {
	f.calls.Add(1)
	f.gotTok, f.gotLen = token, len(content)
	if f.block != nil {
		<-f.block
	}
	return f.result, f.err
}

// blockingSource reports 10% for paths containing "slow" and then waits for cancellation.
type blockingSource struct{ next ProgressSource }

func (b blockingSource) Run(ctx context.Context, path string, size int64, report func(int)) ([]byte, error) {
	if strings.Contains(path, "slow") {
		report(10)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return b.next.Run(ctx, path, size, report)
}

func developerResult() *models.AnalysisResult {
	return &models.AnalysisResult{Jobs: []models.JobGroup{{
		Category:     "developer",
		MatchPercent: 82,
		Listings: []models.JobListing{{
			Title:      "Backend Developer",
			Company:    "Initech",
			Location:   "Austin, TX",
			Link:       "https://jobs.example.com/backend",
			Extensions: models.DetectedExtensions{ScheduleType: "Full-time", Salary: "90K-120K a year"},
		}},
	}}}
}

type fixture struct {
	kv       repositories.Store
	cache    *results.Cache
	gate     *fakeGate
	analyzer *fakeAnalyzer
	updates  chan ProgressUpdate
	ctrl     *UploadController
	dir      string
}

func newFixture(t *testing.T, opts ...UploadOption) *fixture {
	t.Helper()
	kv, err := repositories.OpenStore(context.Background(), shared.StorageConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	require.NoError(t, kv.Set(context.Background(), repositories.KeyAccessToken, []byte("tok")))

	f := &fixture{
		kv:       kv,
		gate:     &fakeGate{authenticated: true, token: "tok"},
		analyzer: &fakeAnalyzer{result: developerResult()},
		updates:  make(chan ProgressUpdate, 512),
		dir:      t.TempDir(),
	}
	f.cache = results.NewCache(kv, f.gate, log.New(io.Discard))

	opts = append([]UploadOption{WithUpdates(f.updates), WithUploadLogger(log.New(io.Discard))}, opts...)
	f.ctrl = NewUploadController(f.analyzer, f.gate, f.cache, opts...)
	return f
}

func (f *fixture) file(t *testing.T, name string, content []byte) string {
	t.Helper()
	return tu.MustWriteFile(t, filepath.Join(f.dir, name), content)
}

func (f *fixture) drain() []ProgressUpdate {
	var out []ProgressUpdate
	for {
		select {
		case u := <-f.updates:
			out = append(out, u)
		default:
			return out
		}
	}
}

func (f *fixture) ready(t *testing.T, name string, content []byte) {
	t.Helper()
	require.NoError(t, f.ctrl.SelectFile(context.Background(), f.file(t, name, content), models.SourcePicker))
	require.NoError(t, f.ctrl.WaitReady(context.Background()))
}

func TestSelectFile(t *testing.T) {
	t.Run("RejectsNonPDF", func(t *testing.T) {
		f := newFixture(t)
		path := f.file(t, "resume.docx", []byte("PK\x03\x04"))

		err := f.ctrl.SelectFile(context.Background(), path, models.SourcePicker)
		assert.ErrorIs(t, err, shared.ErrUnsupportedFileType)
		assert.Nil(t, f.ctrl.Candidate())
		assert.Equal(t, NoFile, f.ctrl.State())
		assert.Equal(t, models.UploadProgress{}, f.ctrl.Progress())

		updates := f.drain()
		require.Len(t, updates, 1, "only the alert is published, no progress run starts")
		assert.Equal(t, PDFOnlyMessage, updates[0].Message)
		assert.ErrorIs(t, f.ctrl.WaitReady(context.Background()), shared.ErrNotReady)
	})

	t.Run("RejectionKeepsExistingCandidate", func(t *testing.T) {
		f := newFixture(t)
		f.ready(t, "cv.pdf", tu.BuildPDF("Go developer"))

		err := f.ctrl.SelectFile(context.Background(), f.file(t, "photo.png", []byte{0x89}), models.SourceDragDrop)
		assert.ErrorIs(t, err, shared.ErrUnsupportedFileType)
		assert.Equal(t, "cv.pdf", f.ctrl.Candidate().Name)
		assert.Equal(t, Ready, f.ctrl.State())
	})

	t.Run("RejectsOversized", func(t *testing.T) {
		f := newFixture(t, WithMaxSize(64))
		err := f.ctrl.SelectFile(context.Background(), f.file(t, "big.pdf", bytes.Repeat([]byte("x"), 65)), models.SourcePicker)
		assert.ErrorIs(t, err, shared.ErrFileTooLarge)
		assert.Nil(t, f.ctrl.Candidate())
	})

	t.Run("NoLimit", func(t *testing.T) {
		f := newFixture(t, WithMaxSize(0))
		f.ready(t, "big.pdf", bytes.Repeat([]byte("x"), 2048))
		assert.Equal(t, int64(2048), f.ctrl.Candidate().Size)
	})

	t.Run("MissingFile", func(t *testing.T) {
		f := newFixture(t)
		err := f.ctrl.SelectFile(context.Background(), filepath.Join(f.dir, "nope.pdf"), models.SourcePicker)
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
	})

	t.Run("RecordsSourceAndPages", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.ctrl.SelectFile(context.Background(), f.file(t, "CV.PDF", tu.BuildPDF("one", "two")), models.SourceDragDrop))
		require.NoError(t, f.ctrl.WaitReady(context.Background()))

		c := f.ctrl.Candidate()
		assert.Equal(t, models.SourceDragDrop, c.Source)
		assert.Equal(t, models.MIMEPDF, c.MIMEType)
		assert.Equal(t, 2, c.Pages)
	})

	t.Run("ReselectionCancelsPreviousRun", func(t *testing.T) {
		f := newFixture(t, WithProgressSource(blockingSource{next: StagedProgress{}}))
		ctx := context.Background()

		require.NoError(t, f.ctrl.SelectFile(ctx, f.file(t, "slow.pdf", []byte("%PDF-slow")), models.SourcePicker))
		require.NoError(t, f.ctrl.SelectFile(ctx, f.file(t, "fast.pdf", []byte("%PDF-fast")), models.SourcePicker))
		require.NoError(t, f.ctrl.WaitReady(ctx))

		assert.Equal(t, "fast.pdf", f.ctrl.Candidate().Name)
		assert.Equal(t, models.UploadProgress{Percent: 100, Phase: models.PhaseComplete}, f.ctrl.Progress())
	})
}

func TestProgressIsMonotonic(t *testing.T) {
	sources := map[string]ProgressSource{
		"Staged":    StagedProgress{ChunkSize: 4096},
		"Simulated": SimulatedProgress{Step: 7, Interval: time.Millisecond},
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, WithProgressSource(src))
			f.ready(t, "resume.pdf", bytes.Repeat([]byte("a"), 500*1024))

			var percents []int
			for _, u := range f.drain() {
				if u.State == InProgress {
					percents = append(percents, u.Percent)
				}
			}

			require.NotEmpty(t, percents)
			for i := 1; i < len(percents); i++ {
				assert.GreaterOrEqual(t, percents[i], percents[i-1], "progress went backwards at %d", i)
			}
			assert.Equal(t, 100, percents[len(percents)-1])
		})
	}
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()

	t.Run("UnauthenticatedSendsNothing", func(t *testing.T) {
		f := newFixture(t)
		f.ready(t, "cv.pdf", tu.BuildPDF("cv"))
		f.gate.authenticated = false

		_, err := f.ctrl.Analyze(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
		assert.Equal(t, LoginRequiredMessage, err.Error())
		assert.Zero(t, f.analyzer.calls.Load())
		assert.Equal(t, Ready, f.ctrl.State())
	})

	t.Run("NotReady", func(t *testing.T) {
		f := newFixture(t, WithProgressSource(blockingSource{next: StagedProgress{}}))

		_, err := f.ctrl.Analyze(ctx)
		assert.ErrorIs(t, err, shared.ErrNotReady)

		require.NoError(t, f.ctrl.SelectFile(ctx, f.file(t, "slow.pdf", []byte("%PDF")), models.SourcePicker))
		_, err = f.ctrl.Analyze(ctx)
		assert.ErrorIs(t, err, shared.ErrNotReady, "submission must be rejected below 100 percent")
		assert.Zero(t, f.analyzer.calls.Load())
		require.NoError(t, f.ctrl.RemoveFile())
	})

	t.Run("SuccessCachesResult", func(t *testing.T) {
		f := newFixture(t)
		f.ready(t, "resume.pdf", bytes.Repeat([]byte("a"), 500*1024))

		got, err := f.ctrl.Analyze(ctx)
		require.NoError(t, err)
		assert.Equal(t, developerResult(), got)
		assert.Equal(t, "tok", f.analyzer.gotTok)
		assert.Equal(t, 500*1024, f.analyzer.gotLen)

		cached, err := f.cache.Read(ctx)
		require.NoError(t, err)
		require.NotNil(t, cached)
		assert.Equal(t, developerResult().Jobs, cached.Jobs)

		_, err = f.kv.Get(ctx, repositories.KeyJobResult)
		assert.NoError(t, err)

		assert.Nil(t, f.ctrl.Candidate(), "candidate is cleared after success")
		assert.Equal(t, NoFile, f.ctrl.State())

		var messages []string
		for _, u := range f.drain() {
			messages = append(messages, u.Message)
		}
		assert.Contains(t, messages, AnalyzeSucceededMessage)
	})

	t.Run("FailureKeepsPriorResult", func(t *testing.T) {
		f := newFixture(t)
		prior := &models.AnalysisResult{Jobs: []models.JobGroup{{Category: "QA", MatchPercent: 40}}}
		require.NoError(t, f.cache.Write(ctx, "tok", prior))

		f.ready(t, "cv.pdf", tu.BuildPDF("cv"))
		f.analyzer.result, f.analyzer.err = nil, errors.New("connection reset")

		_, err := f.ctrl.Analyze(ctx)
		require.Error(t, err)
		assert.Equal(t, AnalyzeFailedMessage, err.Error())
		assert.Equal(t, Ready, f.ctrl.State(), "failed analysis returns to Ready")
		assert.NotNil(t, f.ctrl.Candidate())

		cached, err := f.cache.Read(ctx)
		require.NoError(t, err)
		require.NotNil(t, cached)
		assert.Equal(t, prior.Jobs, cached.Jobs)

		f.analyzer.result, f.analyzer.err = developerResult(), nil
		_, err = f.ctrl.Analyze(ctx)
		assert.NoError(t, err, "resubmission is allowed after failure")
	})

	t.Run("SessionEndedWhileSubmitting", func(t *testing.T) {
		f := newFixture(t)
		f.ready(t, "cv.pdf", tu.BuildPDF("cv"))
		f.analyzer.block = make(chan struct{})

		done := make(chan error, 1)
		go func() {
			_, err := f.ctrl.Analyze(ctx)
			done <- err
		}()
		require.Eventually(t, func() bool { return f.analyzer.calls.Load() == 1 }, time.Second, time.Millisecond)

		// another process logs out while the request is in flight
		require.NoError(t, f.kv.Update(ctx, func(w repositories.Writer) error {
			return w.Delete(repositories.KeyAccessToken, repositories.KeyUser, repositories.KeyJobResult)
		}))
		close(f.analyzer.block)

		err := <-done
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
		assert.Equal(t, AnalyzeFailedMessage, err.Error())
		assert.Equal(t, Ready, f.ctrl.State())

		_, err = f.kv.Get(ctx, repositories.KeyJobResult)
		assert.ErrorIs(t, err, shared.ErrKeyNotFound)
	})

	t.Run("SecondCallWhileInFlight", func(t *testing.T) {
		f := newFixture(t)
		f.ready(t, "cv.pdf", tu.BuildPDF("cv"))
		f.analyzer.block = make(chan struct{})

		first := make(chan error, 1)
		go func() {
			_, err := f.ctrl.Analyze(ctx)
			first <- err
		}()

		require.Eventually(t, func() bool { return f.analyzer.calls.Load() == 1 }, time.Second, time.Millisecond)

		_, err := f.ctrl.Analyze(ctx)
		assert.ErrorIs(t, err, shared.ErrInFlight)
		assert.ErrorIs(t, f.ctrl.RemoveFile(), shared.ErrInFlight)
		assert.Equal(t, Submitting, f.ctrl.State())

		close(f.analyzer.block)
		require.NoError(t, <-first)
		assert.Equal(t, int32(1), f.analyzer.calls.Load())
	})
}

func TestRemoveFile(t *testing.T) {
	f := newFixture(t)
	f.ready(t, "cv.pdf", tu.BuildPDF("cv"))

	require.NoError(t, f.ctrl.RemoveFile())
	assert.Nil(t, f.ctrl.Candidate())
	assert.Equal(t, NoFile, f.ctrl.State())
	assert.Equal(t, models.UploadProgress{Percent: 0, Phase: models.PhaseIdle}, f.ctrl.Progress())
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", HumanSize(512))
	assert.Equal(t, "1.5 KB", HumanSize(1536))
	assert.Equal(t, "10.0 MB", HumanSize(10<<20))
}
