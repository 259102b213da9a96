package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/pathfinder/internal/models"
	"github.com/desertthunder/pathfinder/internal/repositories"
	"github.com/desertthunder/pathfinder/internal/services"
	"github.com/desertthunder/pathfinder/internal/shared"
)

// Invalidator is state that must be cleared in the same transaction that ends a session.
type Invalidator interface {
	Invalidate(w repositories.Writer) error
}

// Store owns the authenticated [models.Session].
type Store struct {
	kv      repositories.Store
	auth    services.Authenticator
	limiter *rate.Limiter
	logger  *log.Logger

	mu           sync.RWMutex
	session      models.Session
	inFlight     bool
	invalidators []Invalidator

	subs subscribers
}

// Option configures a [Store].
type Option func(*Store)

// WithLimiter throttles login and registration attempts.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Store) { s.limiter = l }
}

// WithLogger sets the store's logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates an unauthenticated [Store]. Call [Store.Initialize] to restore a persisted session.
//
// Attempts are limited to a burst of 3 refilled once per second unless [WithLimiter] is given.
func NewStore(kv repositories.Store, auth services.Authenticator, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		auth:    auth,
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach registers state cleared when a session starts or ends.
func (s *Store) Attach(inv Invalidator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidators = append(s.invalidators, inv)
}

// Subscribe returns a channel of session events and a func that unsubscribes and closes it.
func (s *Store) Subscribe() (<-chan Event, func()) {
	return s.subs.add()
}

// Initialize restores the persisted session.
//
// Missing or malformed data leaves the store unauthenticated; only storage failures are returned.
func (s *Store) Initialize(ctx context.Context) error {
	session, err := s.load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	s.logger.Debug("session initialized", "state", session.State())
	s.publish(session)
	return nil
}

func (s *Store) load(ctx context.Context) (models.Session, error) {
	token, err := s.kv.Get(ctx, repositories.KeyAccessToken)
	if errors.Is(err, shared.ErrKeyNotFound) {
		return models.Session{}, nil
	} else if err != nil {
		return models.Session{}, fmt.Errorf("failed to read access token: %w", err)
	}

	raw, err := s.kv.Get(ctx, repositories.KeyUser)
	if errors.Is(err, shared.ErrKeyNotFound) {
		s.logger.Warn("access token without user, treating session as logged out")
		return models.Session{}, nil
	} else if err != nil {
		return models.Session{}, fmt.Errorf("failed to read user: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		s.logger.Warn("persisted user is malformed, treating session as logged out", "error", err)
		return models.Session{}, nil
	}
	if !user.Valid() || strings.TrimSpace(string(token)) == "" {
		s.logger.Warn("persisted session is incomplete, treating session as logged out")
		return models.Session{}, nil
	}

	return models.Session{User: &user, AccessToken: string(token)}, nil
}

// begin takes the in-flight latch, then a limiter token.
func (s *Store) begin() (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return nil, shared.ErrInFlight
	}
	if s.limiter != nil && !s.limiter.Allow() {
		return nil, shared.ErrTooManyAttempts
	}
	s.inFlight = true

	return func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}, nil
}

// Login authenticates against the auth service and persists the token and user together. Attached [Invalidator]s run
// in the same transaction so no state from an earlier session survives.
//
// Switching accounts requires a [Store.Logout] first: while authenticated Login fails with an [*AuthError] matching
// [shared.ErrAlreadyAuthenticated] and no request is made. On failure nothing is written and the returned
// [*AuthError] carries the message to display.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if s.Authenticated() {
		return &AuthError{Message: LoggedInMessage, Cause: shared.ErrAlreadyAuthenticated}
	}

	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()

	payload, err := s.auth.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		s.logger.Warn("login failed", "email", email, "error", err)
		return newAuthError(err, LoginFailedMessage)
	}

	raw, err := json.Marshal(payload.User)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	err = s.kv.Update(ctx, func(w repositories.Writer) error {
		if err := s.invalidate(w); err != nil {
			return err
		}
		if err := w.Set(repositories.KeyAccessToken, []byte(payload.AccessToken)); err != nil {
			return err
		}
		return w.Set(repositories.KeyUser, raw)
	})
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	user := *payload.User
	session := models.Session{User: &user, AccessToken: payload.AccessToken}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	s.logger.Info("logged in", "user", user.Fullname)
	s.publish(session)
	return nil
}

// Register creates an account. The session is not changed.
//
// A password mismatch is rejected locally with [shared.ErrPasswordMismatch].
func (s *Store) Register(ctx context.Context, fullname, email, password, confirmPassword string) error {
	if password != confirmPassword {
		return shared.ErrPasswordMismatch
	}
	if strings.TrimSpace(fullname) == "" || strings.TrimSpace(email) == "" || password == "" {
		return fmt.Errorf("%w: fullname, email and password are required", shared.ErrInvalidInput)
	}

	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := s.auth.Register(ctx, strings.TrimSpace(fullname), strings.TrimSpace(email), password); err != nil {
		s.logger.Warn("registration failed", "email", email, "error", err)
		return newAuthError(err, RegisterFailedMessage)
	}

	s.logger.Info("registered", "email", email)
	return nil
}

// Logout removes the token, the user and every attached [Invalidator]'s state in one transaction.
//
// No network call is made. If the transaction fails the session is left as it was.
func (s *Store) Logout(ctx context.Context) error {
	err := s.kv.Update(ctx, func(w repositories.Writer) error {
		if err := w.Delete(repositories.KeyAccessToken, repositories.KeyUser); err != nil {
			return err
		}
		return s.invalidate(w)
	})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.mu.Lock()
	s.session = models.Session{}
	s.mu.Unlock()

	s.logger.Info("logged out")
	s.publish(models.Session{})
	return nil
}

// invalidate stages every attached [Invalidator] on w.
func (s *Store) invalidate(w repositories.Writer) error {
	s.mu.RLock()
	invalidators := append([]Invalidator(nil), s.invalidators...)
	s.mu.RUnlock()

	for _, inv := range invalidators {
		if err := inv.Invalidate(w); err != nil {
			return err
		}
	}
	return nil
}

// Authenticated reports whether a user is logged in.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.State() == models.Authenticated
}

// Token returns the access token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.AccessToken
}

// User returns a copy of the logged-in user, or nil.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session.User == nil {
		return nil
	}
	u := *s.session.User
	return &u
}

// State returns the current [models.AuthState].
func (s *Store) State() models.AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.State()
}

func (s *Store) publish(session models.Session) {
	ev := Event{State: session.State()}
	if session.User != nil {
		u := *session.User
		ev.User = &u
	}
	s.subs.publish(ev)
}
