package repositories

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/desertthunder/pathfinder/internal/models"
	"github.com/desertthunder/pathfinder/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func storeContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		if _, err := store.Get(ctx, "missing"); !errors.Is(err, shared.ErrKeyNotFound) {
			t.Errorf("expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("SetOverwrites", func(t *testing.T) {
		if err := store.Set(ctx, KeyAccessToken, []byte("one")); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		if err := store.Set(ctx, KeyAccessToken, []byte("two")); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		got, err := store.Get(ctx, KeyAccessToken)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if string(got) != "two" {
			t.Errorf("expected %q, got %q", "two", got)
		}
	})

	t.Run("UpdateCommits", func(t *testing.T) {
		err := store.Update(ctx, func(w Writer) error {
			if err := w.Set(KeyUser, []byte(`{"id":"1"}`)); err != nil {
				return err
			}
			return w.Set(KeyJobResult, []byte(`{"jobs":[]}`))
		})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}

		for _, key := range []string{KeyUser, KeyJobResult} {
			if _, err := store.Get(ctx, key); err != nil {
				t.Errorf("expected %s to be stored: %v", key, err)
			}
		}
	})

	t.Run("UpdateRollsBack", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.Update(ctx, func(w Writer) error {
			if err := w.Delete(KeyUser, KeyJobResult); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected fn error, got %v", err)
		}

		if _, err := store.Get(ctx, KeyUser); err != nil {
			t.Errorf("delete should not have been applied: %v", err)
		}
	})

	t.Run("UpdateDeletes", func(t *testing.T) {
		err := store.Update(ctx, func(w Writer) error {
			return w.Delete(KeyAccessToken, KeyUser, KeyJobResult, "never-set")
		})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}

		for _, key := range []string{KeyAccessToken, KeyUser, KeyJobResult} {
			if _, err := store.Get(ctx, key); !errors.Is(err, shared.ErrKeyNotFound) {
				t.Errorf("expected %s to be deleted, got %v", key, err)
			}
		}
	})

	t.Run("SetIfGuardMatches", func(t *testing.T) {
		if err := store.Set(ctx, KeyAccessToken, []byte("tok")); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		for _, value := range []string{`{"jobs":[1]}`, `{"jobs":[2]}`} {
			if err := store.SetIf(ctx, KeyJobResult, []byte(value), KeyAccessToken, []byte("tok")); err != nil {
				t.Fatalf("guarded set failed: %v", err)
			}
		}
		got, err := store.Get(ctx, KeyJobResult)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if string(got) != `{"jobs":[2]}` {
			t.Errorf("expected second value, got %q", got)
		}
	})

	t.Run("SetIfGuardChanged", func(t *testing.T) {
		if err := store.Set(ctx, KeyAccessToken, []byte("other")); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		err := store.SetIf(ctx, KeyJobResult, []byte(`{"jobs":[3]}`), KeyAccessToken, []byte("tok"))
		if !errors.Is(err, shared.ErrKeyChanged) {
			t.Fatalf("expected ErrKeyChanged, got %v", err)
		}
		if got, _ := store.Get(ctx, KeyJobResult); string(got) != `{"jobs":[2]}` {
			t.Errorf("guarded set must not write, got %q", got)
		}
	})

	t.Run("SetIfGuardMissing", func(t *testing.T) {
		if err := store.Update(ctx, func(w Writer) error { return w.Delete(KeyAccessToken, KeyJobResult) }); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		err := store.SetIf(ctx, KeyJobResult, []byte(`{"jobs":[]}`), KeyAccessToken, []byte("tok"))
		if !errors.Is(err, shared.ErrKeyChanged) {
			t.Fatalf("expected ErrKeyChanged, got %v", err)
		}
		if _, err := store.Get(ctx, KeyJobResult); !errors.Is(err, shared.ErrKeyNotFound) {
			t.Errorf("expected no result, got %v", err)
		}
	})
}

func TestSQLiteStore(t *testing.T) {
	storeContract(t, NewSQLiteStore(setupTestDB(t)))
}

// TestRedisStore runs against a live server when PATHFINDER_TEST_REDIS_ADDR is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("PATHFINDER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PATHFINDER_TEST_REDIS_ADDR not set")
	}

	store, err := NewRedisStore(context.Background(), addr, 0, "pathfinder-test:"+shared.GenerateID()+":")
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer store.Close()

	storeContract(t, store)
}

func TestOpenStore(t *testing.T) {
	t.Run("SQLite", func(t *testing.T) {
		store, err := OpenStore(context.Background(), shared.StorageConfig{Driver: "sqlite", Path: ":memory:"})
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		defer store.Close()

		if _, ok := store.(*SQLiteStore); !ok {
			t.Errorf("expected *SQLiteStore, got %T", store)
		}
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		_, err := OpenStore(context.Background(), shared.StorageConfig{Driver: "etcd"})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("RedisMissingAddr", func(t *testing.T) {
		_, err := OpenStore(context.Background(), shared.StorageConfig{Driver: "redis"})
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "accounts")
		if err != nil {
			t.Fatalf("NextSequence failed: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for table without sequence")
	}
}

func TestAccountRepository(t *testing.T) {
	newAccount := func(email string) *models.Account {
		return models.NewAccount(0, "Ada Lovelace", email, "$2a$10$hash")
	}

	t.Run("Create", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		account := newAccount("Ada@Example.com ")

		if err := repo.Create(account); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}
		if account.ID() == "" {
			t.Error("account ID should be set after creation")
		}
		if account.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", account.Sequence())
		}
		if account.Email() != "ada@example.com" {
			t.Errorf("expected normalized email, got %s", account.Email())
		}
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		if err := repo.Create(newAccount("ada@example.com")); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}

		err := repo.Create(newAccount("ada@example.com"))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("ValidationError", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		if err := repo.Create(models.NewAccount(0, "", "ada@example.com", "hash")); err == nil {
			t.Error("expected validation error for empty fullname")
		}
		if err := repo.Create(newAccount("not-an-email")); err == nil {
			t.Error("expected validation error for invalid email")
		}
	})

	t.Run("GetAndGetByEmail", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		account := newAccount("ada@example.com")
		if err := repo.Create(account); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}

		byID, err := repo.Get(account.ID())
		if err != nil {
			t.Fatalf("failed to get account: %v", err)
		}
		if byID.Fullname() != "Ada Lovelace" {
			t.Errorf("expected fullname Ada Lovelace, got %s", byID.Fullname())
		}

		byEmail, err := repo.GetByEmail("ADA@example.com")
		if err != nil {
			t.Fatalf("failed to get account by email: %v", err)
		}
		if byEmail.ID() != account.ID() {
			t.Errorf("expected ID %s, got %s", account.ID(), byEmail.ID())
		}

		if _, err := repo.Get("nonexistent"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		account := newAccount("ada@example.com")
		if err := repo.Create(account); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}

		account.SetFullname("Augusta Ada King")
		account.SetAvatar("https://example.com/ada.png")
		if err := repo.Update(account); err != nil {
			t.Fatalf("failed to update account: %v", err)
		}

		got, err := repo.Get(account.ID())
		if err != nil {
			t.Fatalf("failed to get account: %v", err)
		}
		if got.Fullname() != "Augusta Ada King" || got.Avatar() != "https://example.com/ada.png" {
			t.Errorf("update not persisted: %s %s", got.Fullname(), got.Avatar())
		}

		ghost := newAccount("ghost@example.com")
		ghost.SetID("ghost")
		if err := repo.Update(ghost); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Tokens", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		account := newAccount("ada@example.com")
		if err := repo.Create(account); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}

		token, err := repo.IssueToken(account.ID())
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		resolved, err := repo.Authenticate(token)
		if err != nil {
			t.Fatalf("failed to authenticate: %v", err)
		}
		if resolved.ID() != account.ID() {
			t.Errorf("expected account %s, got %s", account.ID(), resolved.ID())
		}

		if err := repo.RevokeToken(token); err != nil {
			t.Fatalf("failed to revoke token: %v", err)
		}
		if _, err := repo.Authenticate(token); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated after revoke, got %v", err)
		}
	})

	t.Run("DeleteRevokesTokens", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		account := newAccount("ada@example.com")
		if err := repo.Create(account); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}
		token, err := repo.IssueToken(account.ID())
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		if err := repo.Delete(account.ID()); err != nil {
			t.Fatalf("failed to delete account: %v", err)
		}
		if _, err := repo.Authenticate(token); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if err := repo.Delete(account.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		for _, email := range []string{"a@example.com", "b@example.com"} {
			if err := repo.Create(newAccount(email)); err != nil {
				t.Fatalf("failed to create account: %v", err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 2 || all[0].Email() != "a@example.com" {
			t.Errorf("unexpected list result: %d accounts", len(all))
		}

		filtered, err := repo.List(map[string]any{"email": "B@example.com"})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(filtered) != 1 {
			t.Errorf("expected 1 account, got %d", len(filtered))
		}
	})
}
