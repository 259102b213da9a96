package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/desertthunder/pathfinder/internal/repositories"
	"github.com/desertthunder/pathfinder/internal/results"
	"github.com/desertthunder/pathfinder/internal/services"
	"github.com/desertthunder/pathfinder/internal/session"
	"github.com/desertthunder/pathfinder/internal/shared"
	"github.com/desertthunder/pathfinder/internal/tasks"
)

const updatesBuffer = 64

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The storage-backed stack (session, result cache, upload controller) is built on first use by [Runner.connect].
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client
	open       func(string) error

	kv        repositories.Store
	ownsStore bool
	auth      services.Authenticator
	analyzer  services.Analyzer
	session   *session.Store
	cache     *results.Cache
	uploader  *tasks.UploadController
	updates   chan tasks.ProgressUpdate
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Store, Auth and Analyzer replace the configured backends when set.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client
	Store      repositories.Store
	Auth       services.Authenticator
	Analyzer   services.Analyzer
	Open       func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
		open:       opts.Open,
		kv:         opts.Store,
		auth:       opts.Auth,
		analyzer:   opts.Analyzer,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, analyzeCommand, resultsCommand, tuiCommand, devServerCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the config file (when present) and .env overrides, then applies the log level.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	r.configPath = cmd.String("config")

	config, err := shared.LoadConfig(r.configPath)
	switch {
	case err == nil:
		r.config = config
	case errors.Is(err, fs.ErrNotExist):
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	default:
		return ctx, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	if err := shared.ApplyEnv(r.config, cmd.String("env-file")); err != nil {
		return ctx, err
	}

	level := r.config.Log.Level
	if l := cmd.String("log-level"); l != "" {
		level = l
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))
	return ctx, nil
}

// SetLogger replaces the runner's logger. Call before [Runner.connect].
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// connect opens storage and wires the session store, result cache and upload controller.
//
// The persisted session is restored before it returns.
func (r *Runner) connect(ctx context.Context) error {
	if r.session != nil {
		return nil
	}

	if r.kv == nil {
		kv, err := repositories.OpenStore(ctx, r.config.Storage)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		r.kv = kv
		r.ownsStore = true
	}

	if r.auth == nil || r.analyzer == nil {
		client := r.httpClient
		if client == nil {
			client = &http.Client{Timeout: r.config.API.Timeout()}
		}
		api := services.NewAPIService(r.config.API.BaseURL, client)
		if r.auth == nil {
			r.auth = services.NewAuthService(api)
		}
		if r.analyzer == nil {
			r.analyzer = services.NewAnalysisService(api)
		}
	}

	burst := max(r.config.Auth.AttemptBurst, 1)
	limiter := rate.NewLimiter(rate.Every(r.config.Auth.AttemptInterval()), burst)

	store := session.NewStore(r.kv, r.auth,
		session.WithLimiter(limiter),
		session.WithLogger(shared.WithLogger(r.logger, "component", "session")),
	)
	cache := results.NewCache(r.kv, store, shared.WithLogger(r.logger, "component", "results"))
	store.Attach(cache)

	upload := r.config.Upload
	updates := make(chan tasks.ProgressUpdate, updatesBuffer)
	uploader := tasks.NewUploadController(r.analyzer, store, cache,
		tasks.WithProgressSource(tasks.NewProgressSource(upload.Progress, upload.ProgressStep, upload.ProgressInterval())),
		tasks.WithMaxSize(upload.MaxSizeBytes()),
		tasks.WithUpdates(updates),
		tasks.WithUploadLogger(shared.WithLogger(r.logger, "component", "upload")),
	)

	if err := store.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	r.session, r.cache, r.uploader, r.updates = store, cache, uploader, updates
	return nil
}

// Close releases storage opened by [Runner.connect]. It is safe to call more than once.
func (r *Runner) Close() error {
	if r.kv == nil || !r.ownsStore {
		return nil
	}
	err := r.kv.Close()
	r.kv, r.ownsStore = nil, false
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
