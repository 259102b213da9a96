package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/pathfinder/internal/shared"
)

// Persisted keys shared by the session store and the result cache.
const (
	KeyAccessToken = "accessToken"
	KeyUser        = "user"
	KeyJobResult   = "jobResult"
)

// Writer stages mutations inside a [Store.Update] transaction.
type Writer interface {
	Set(key string, value []byte) error
	Delete(keys ...string) error
}

// Store is the persisted key-value storage shared by the client's units.
//
// Get returns [shared.ErrKeyNotFound] for absent keys. Update applies every mutation staged by fn atomically, or none
// of them when fn returns an error. SetIf stores value under key only while guardKey still holds guard, and returns
// [shared.ErrKeyChanged] without writing otherwise.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetIf(ctx context.Context, key string, value []byte, guardKey string, guard []byte) error
	Update(ctx context.Context, fn func(Writer) error) error
	Close() error
}

// OpenStore opens the backend named by cfg.Driver.
func OpenStore(ctx context.Context, cfg shared.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		db, err := shared.NewDatabase(cfg.Path)
		if err != nil {
			return nil, err
		}
		shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return NewSQLiteStore(db), nil
	case "redis":
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", shared.ErrInvalidConfig, cfg.Driver)
	}
}
