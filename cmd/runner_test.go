package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/desertthunder/pathfinder/internal/models"
	"github.com/desertthunder/pathfinder/internal/repositories"
	"github.com/desertthunder/pathfinder/internal/server"
	"github.com/desertthunder/pathfinder/internal/session"
	"github.com/desertthunder/pathfinder/internal/shared"
	"github.com/desertthunder/pathfinder/internal/tasks"
	tu "github.com/desertthunder/pathfinder/internal/testing"
)

const backendCV = "Experienced Golang developer with PostgreSQL, Docker, Kubernetes, REST API and gRPC microservices on AWS"

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Fatal("expected default config to be set")
			}
			if runner.config.API.BaseURL != "http://localhost:5000" {
				t.Errorf("unexpected default base url %q", runner.config.API.BaseURL)
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("close without storage", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if err := runner.Close(); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := make([]string, 0, len(commands))
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names = append(names, cmd.Name)
		}
		assert.Equal(t, []string{"setup", "auth", "analyze", "results", "tui", "devserver"}, names)
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"not implemented", shared.ErrNotImplemented, exitOK},
		{"bad argument", fmt.Errorf("%w: group", shared.ErrInvalidArgument), exitUsage},
		{"wrong file type", &tasks.NoticeError{Message: tasks.PDFOnlyMessage, Err: shared.ErrUnsupportedFileType}, exitUsage},
		{"login failed", &session.AuthError{Message: "Invalid email or password", Cause: shared.ErrAPIRequest}, exitAuth},
		{"login required", &tasks.NoticeError{Message: tasks.LoginRequiredMessage, Err: shared.ErrNotAuthenticated}, exitAuth},
		{"upstream", fmt.Errorf("%w: 502", shared.ErrAPIRequest), exitUpstream},
		{"other", errors.New("disk on fire"), exitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}

	t.Run("display message", func(t *testing.T) {
		assert.Equal(t, "Invalid email or password", displayMessage(&session.AuthError{Message: "Invalid email or password"}))
		assert.Equal(t, tasks.LoginRequiredMessage, displayMessage(fmt.Errorf("wrapped: %w", &tasks.NoticeError{Message: tasks.LoginRequiredMessage})))
		assert.Equal(t, "application error: boom", displayMessage(errors.New("boom")))
	})
}

// cliHarness runs commands against a dev server and an in-memory store.
type cliHarness struct {
	runner *Runner
	output *bytes.Buffer
	opened []string
	dir    string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	ctx := context.Background()

	db, err := shared.NewDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, shared.RunMigrations(db))

	srv, err := server.NewDevServer(server.DevConfig{DB: db, BcryptCost: bcrypt.MinCost, Logger: log.New(io.Discard)})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	kv, err := repositories.OpenStore(ctx, shared.StorageConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	config := shared.DefaultConfig()
	config.API.BaseURL = ts.URL

	h := &cliHarness{output: &bytes.Buffer{}, dir: t.TempDir()}
	h.runner = NewRunner(RunnerOpts{
		Config: config,
		Logger: log.New(io.Discard),
		Output: h.output,
		Store:  kv,
		Open: func(u string) error {
			h.opened = append(h.opened, u)
			return nil
		},
	})
	return h
}

// run executes args as a pathfinder command line and returns what it printed.
func (h *cliHarness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	h.output.Reset()
	argv := append([]string{"pathfinder", "--config", filepath.Join(h.dir, "missing.toml"), "--env-file", ""}, args...)
	err := newApp(h.runner).Run(context.Background(), argv)
	return h.output.String(), err
}

func TestCommands(t *testing.T) {
	h := newCLIHarness(t)
	cv := tu.MustWriteFile(t, filepath.Join(h.dir, "cv.pdf"), tu.BuildPDF(backendCV))

	t.Run("StatusLoggedOut", func(t *testing.T) {
		out, err := h.run(t, "auth", "status")
		require.NoError(t, err)
		assert.Contains(t, out, "Log In · Sign Up")
	})

	t.Run("AnalyzeRequiresLogin", func(t *testing.T) {
		_, err := h.run(t, "analyze", cv)
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
		assert.Equal(t, tasks.LoginRequiredMessage, displayMessage(err))
	})

	t.Run("RegisterPasswordMismatch", func(t *testing.T) {
		_, err := h.run(t, "auth", "register", "--fullname", "Ada Lovelace", "--email", "ada@example.com",
			"--password", "analytical", "--confirm", "different")
		assert.ErrorIs(t, err, shared.ErrPasswordMismatch)
	})

	t.Run("RegisterAndLogin", func(t *testing.T) {
		out, err := h.run(t, "auth", "register", "--fullname", "Ada Lovelace", "--email", "ada@example.com", "--password", "analytical")
		require.NoError(t, err)
		assert.Contains(t, out, "Registration successful")

		out, err = h.run(t, "auth", "login", "-e", "ada@example.com", "-p", "analytical")
		require.NoError(t, err)
		assert.Contains(t, out, "Logged in as Ada Lovelace")

		out, err = h.run(t, "auth", "status")
		require.NoError(t, err)
		assert.Contains(t, out, "Email: ada@example.com")
	})

	t.Run("LoginWhileLoggedIn", func(t *testing.T) {
		_, err := h.run(t, "auth", "login", "-e", "someone@example.com", "-p", "whatever")
		assert.ErrorIs(t, err, shared.ErrAlreadyAuthenticated)
		assert.Equal(t, session.LoggedInMessage, displayMessage(err))
		assert.Equal(t, exitAuth, exitCode(err))

		out, err := h.run(t, "auth", "status")
		require.NoError(t, err)
		assert.Contains(t, out, "Email: ada@example.com")
	})

	t.Run("RejectsNonPDF", func(t *testing.T) {
		notes := tu.MustWriteFile(t, filepath.Join(h.dir, "notes.txt"), []byte("hello"))
		_, err := h.run(t, "analyze", notes)

		assert.ErrorIs(t, err, shared.ErrUnsupportedFileType)
		assert.Equal(t, tasks.PDFOnlyMessage, displayMessage(err))
	})

	t.Run("AnalyzePrintsMatches", func(t *testing.T) {
		export := filepath.Join(h.dir, "matches.md")
		out, err := h.run(t, "analyze", cv, "--format", "markdown", "--output", export)
		require.NoError(t, err)

		assert.Contains(t, out, tasks.AnalyzeSucceededMessage)
		assert.Contains(t, out, "Backend Developer")
		tu.AssertFileExists(t, export)
	})

	t.Run("ResultsShowReadsCache", func(t *testing.T) {
		out, err := h.run(t, "results", "show", "--format", "csv")
		require.NoError(t, err)
		assert.Contains(t, out, "Backend Developer")
	})

	t.Run("ResultsOpen", func(t *testing.T) {
		out, err := h.run(t, "results", "open", "1", "1")
		require.NoError(t, err)
		require.Len(t, h.opened, 1)
		assert.True(t, strings.HasPrefix(h.opened[0], "https://"), "got %q", h.opened[0])
		assert.Contains(t, out, "Opened")

		_, err = h.run(t, "results", "open", "99", "1")
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)

		_, err = h.run(t, "results", "open", "zero", "1")
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
	})

	t.Run("LogoutClearsResults", func(t *testing.T) {
		out, err := h.run(t, "auth", "logout")
		require.NoError(t, err)
		assert.Contains(t, out, "Logged out")

		out, err = h.run(t, "results", "show")
		require.NoError(t, err)
		assert.Contains(t, out, "Log in to see your job matches")

		_, err = h.runner.kv.Get(context.Background(), repositories.KeyJobResult)
		assert.ErrorIs(t, err, shared.ErrKeyNotFound)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := h.run(t, "auth", "login", "-e", "ada@example.com", "-p", "wrong")
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrAuthFailed)
		assert.Equal(t, "Invalid email or password", displayMessage(err))
	})
}

func TestDevServerAdmin(t *testing.T) {
	h := newCLIHarness(t)
	dbPath := filepath.Join(h.dir, "dev.db")

	db, err := shared.NewDatabase(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, shared.RunMigrations(db))
	accounts := repositories.NewAccountRepository(db)

	hash, err := bcrypt.GenerateFromPassword([]byte("analytical"), bcrypt.MinCost)
	require.NoError(t, err)
	ada := models.NewAccount(0, "Ada Lovelace", "ada@example.com", string(hash))
	require.NoError(t, accounts.Create(ada))
	token, err := accounts.IssueToken(ada.ID())
	require.NoError(t, err)

	dev := func(args ...string) (string, error) {
		return h.run(t, append([]string{"devserver", "--db", dbPath}, args...)...)
	}

	t.Run("List", func(t *testing.T) {
		out, err := dev("accounts", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "Ada Lovelace <ada@example.com>")
		assert.Contains(t, out, ada.ID())

		out, err = dev("accounts", "list", "--json")
		require.NoError(t, err)
		var views []accountView
		require.NoError(t, json.Unmarshal([]byte(out), &views))
		require.Len(t, views, 1)
		assert.Equal(t, "ada@example.com", views[0].Email)
		assert.NotContains(t, out, "password")

		out, err = dev("accounts", "list", "--email", "nobody@example.com")
		require.NoError(t, err)
		assert.Contains(t, out, "No accounts")
	})

	t.Run("Show", func(t *testing.T) {
		out, err := dev("accounts", "show", ada.ID())
		require.NoError(t, err)
		assert.Contains(t, out, "Ada Lovelace")

		_, err = dev("accounts", "show")
		assert.ErrorIs(t, err, shared.ErrMissingArgument)

		_, err = dev("accounts", "show", "missing-id")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		out, err := dev("accounts", "update", "--fullname", "Ada King", ada.ID())
		require.NoError(t, err)
		assert.Contains(t, out, "Updated Ada King")

		got, err := accounts.Get(ada.ID())
		require.NoError(t, err)
		assert.Equal(t, "Ada King", got.Fullname())

		_, err = dev("accounts", "update", "--password", "short", ada.ID())
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = dev("accounts", "update", "--password", "difference-engine", ada.ID())
		require.NoError(t, err)
		got, err = accounts.Get(ada.ID())
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash()), []byte("difference-engine")))

		_, err = dev("accounts", "update", ada.ID())
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
	})

	t.Run("Revoke", func(t *testing.T) {
		out, err := dev("accounts", "revoke", token)
		require.NoError(t, err)
		assert.Contains(t, out, "Token revoked")

		_, err = accounts.Authenticate(token)
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
	})

	t.Run("Delete", func(t *testing.T) {
		_, err := dev("accounts", "delete", ada.ID())
		require.NoError(t, err)

		_, err = accounts.Get(ada.ID())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = dev("accounts", "delete", ada.ID())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("Rollback", func(t *testing.T) {
		out, err := dev("rollback")
		require.NoError(t, err)
		assert.Contains(t, out, "Rolled back")

		var tables int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'accounts'`).Scan(&tables))
		assert.Zero(t, tables)
	})
}
