package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/pathfinder/internal/analysis"
	"github.com/desertthunder/pathfinder/internal/repositories"
	"github.com/desertthunder/pathfinder/internal/shared"
)

const shutdownTimeout = 5 * time.Second

// DevConfig configures a [DevServer].
type DevConfig struct {
	Addr       string
	DB         *sql.DB // migrated with [shared.RunMigrations]
	MaxUpload  int64   // request body limit for uploads; 0 disables it
	BcryptCost int     // 0 uses bcrypt.DefaultCost
	Logger     *log.Logger
}

// DevServer is a local stand-in for the PathFinder auth and analysis services.
type DevServer struct {
	router *BasicRouter
	srv    *http.Server
	logger *log.Logger
}

// NewDevServer wires accounts, the default job catalogue, and middleware into a router.
func NewDevServer(cfg DevConfig) (*DevServer, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("%w: dev server requires a database", shared.ErrMissingConfig)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	matcher, err := analysis.NewMatcher(analysis.DefaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("failed to build matcher: %w", err)
	}
	accounts := repositories.NewAccountRepository(cfg.DB)

	router := NewBasicRouter()
	router.Use(
		RequestIDMiddleware(),
		LoggingMiddleware(cfg.Logger),
		RecoverMiddleware(cfg.Logger),
		CORSMiddleware(),
	)
	router.Handler(NewAccountHandler(accounts, cfg.BcryptCost, cfg.Logger))
	router.Handler(NewUploadHandler(accounts, matcher, cfg.MaxUpload, cfg.Logger))
	router.Handle(http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))

	return &DevServer{
		router: router,
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: cfg.Logger,
	}, nil
}

// Handler returns the fully wired router.
func (s *DevServer) Handler() http.Handler { return s.router }

// Serve accepts connections on l until ctx is cancelled, then shuts down gracefully.
func (s *DevServer) Serve(ctx context.Context, l net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev server listening", "addr", l.Addr().String())
		errCh <- s.srv.Serve(l)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("dev server shutdown: %w", err)
		}
		<-errCh
		return nil
	}
}

// ListenAndServe listens on the configured address and calls [DevServer.Serve].
func (s *DevServer) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, l)
}
