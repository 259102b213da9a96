// Package results persists the last job-match [models.AnalysisResult].
//
// Reads are gated by the session: while logged out the cache reports no result even if one is stored. Writes are bound
// to the access token the analysis was submitted with, so a result that arrives after logout or a change of account is
// discarded. The key is removed by [Cache.Invalidate], which runs inside the session store's login and logout
// transactions.
package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/pathfinder/internal/models"
	"github.com/desertthunder/pathfinder/internal/repositories"
	"github.com/desertthunder/pathfinder/internal/shared"
)

// Gate reports the session's authentication state.
type Gate interface {
	Authenticated() bool
}

// Cache owns the persisted analysis result.
type Cache struct {
	kv     repositories.Store
	gate   Gate
	logger *log.Logger
}

// NewCache creates a [Cache] over kv gated by gate.
func NewCache(kv repositories.Store, gate Gate, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{kv: kv, gate: gate, logger: logger}
}

// Write replaces the persisted result if token is still the persisted access token.
//
// The server's raw payload is stored when the result carries one, so fields the client does not model survive. When
// the session has ended or changed since submission the result is dropped and [shared.ErrNotAuthenticated] returned.
func (c *Cache) Write(ctx context.Context, token string, result *models.AnalysisResult) error {
	if result == nil {
		return fmt.Errorf("%w: result is nil", shared.ErrInvalidArgument)
	}
	if token == "" || !c.gate.Authenticated() {
		return fmt.Errorf("%w: result discarded", shared.ErrNotAuthenticated)
	}

	raw := []byte(result.Raw)
	if len(raw) == 0 {
		var err error
		if raw, err = json.Marshal(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	}

	err := c.kv.SetIf(ctx, repositories.KeyJobResult, raw, repositories.KeyAccessToken, []byte(token))
	if errors.Is(err, shared.ErrKeyChanged) {
		c.logger.Warn("session changed during analysis, discarding result")
		return fmt.Errorf("%w: session changed during analysis: %w", shared.ErrNotAuthenticated, err)
	}
	if err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}

	c.logger.Debug("result cached", "groups", len(result.Jobs), "listings", result.TotalListings())
	return nil
}

// Read returns the persisted result, or nil when there is none or the session is not authenticated.
//
// A malformed stored value is treated as absent.
func (c *Cache) Read(ctx context.Context) (*models.AnalysisResult, error) {
	if !c.gate.Authenticated() {
		return nil, nil
	}

	raw, err := c.kv.Get(ctx, repositories.KeyJobResult)
	if errors.Is(err, shared.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read result: %w", err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Warn("cached result is malformed, ignoring", "error", err)
		return nil, nil
	}
	result.Raw = raw
	return &result, nil
}

// Invalidate stages deletion of the persisted result on w.
func (c *Cache) Invalidate(w repositories.Writer) error {
	return w.Delete(repositories.KeyJobResult)
}
