package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/pathfinder/internal/models"
	"github.com/desertthunder/pathfinder/internal/repositories"
	"github.com/desertthunder/pathfinder/internal/server"
	"github.com/desertthunder/pathfinder/internal/shared"
)

// accountView is the JSON shape printed by the account admin commands. Password hashes are never shown.
type accountView struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	Fullname  string    `json:"fullname"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newAccountView(a *models.Account) accountView {
	return accountView{
		ID:        a.ID(),
		Sequence:  a.Sequence(),
		Fullname:  a.Fullname(),
		Email:     a.Email(),
		CreatedAt: a.CreatedAt(),
		UpdatedAt: a.UpdatedAt(),
	}
}

// devDatabasePath resolves --db against the [server] section.
func (r *Runner) devDatabasePath(cmd *cli.Command) string {
	if path := cmd.String("db"); path != "" {
		return path
	}
	return r.config.Server.DatabasePath
}

// openDevDatabase opens and migrates the dev server database.
func (r *Runner) openDevDatabase(cmd *cli.Command) (*sql.DB, error) {
	db, err := shared.NewDatabase(r.devDatabasePath(cmd))
	if err != nil {
		return nil, err
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// withAccounts runs fn against the dev server's account repository.
func (r *Runner) withAccounts(cmd *cli.Command, fn func(*repositories.AccountRepository) error) error {
	db, err := r.openDevDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(repositories.NewAccountRepository(db))
}

func requiredArg(value, name string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return value, nil
}

// DevServer runs the development auth and analysis server until interrupted.
func (r *Runner) DevServer(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	db, err := r.openDevDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	maxUpload := r.config.Upload.MaxSizeBytes()
	if maxUpload > 0 {
		maxUpload += 1 << 20 // multipart overhead
	}

	srv, err := server.NewDevServer(server.DevConfig{
		Addr:      addr,
		DB:        db,
		MaxUpload: maxUpload,
		Logger:    shared.WithLogger(r.logger, "component", "devserver"),
	})
	if err != nil {
		return err
	}

	r.writePlainHeader("PathFinder dev server")
	r.writePlain("Listening on http://%s (database %s)\n", addr, r.devDatabasePath(cmd))
	r.writePlain("Point the client at it with [api] base_url = \"http://%s\"\n", addr)
	return srv.ListenAndServe(ctx)
}

// DevAccountsList prints the dev server's active accounts in registration order.
func (r *Runner) DevAccountsList(ctx context.Context, cmd *cli.Command) error {
	return r.withAccounts(cmd, func(accounts *repositories.AccountRepository) error {
		list, err := accounts.List(map[string]any{"email": cmd.String("email")})
		if err != nil {
			return err
		}

		if cmd.Bool("json") {
			views := make([]accountView, 0, len(list))
			for _, a := range list {
				views = append(views, newAccountView(a))
			}
			return r.writeJSON(views, true)
		}

		if len(list) == 0 {
			return r.writePlain("No accounts\n")
		}
		for _, a := range list {
			r.writePlain("#%-3d %s  %s <%s>\n", a.Sequence(), a.ID(), a.Fullname(), a.Email())
		}
		return nil
	})
}

// DevAccountsShow prints one account.
func (r *Runner) DevAccountsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requiredArg(cmd.StringArg("id"), "account id")
	if err != nil {
		return err
	}

	return r.withAccounts(cmd, func(accounts *repositories.AccountRepository) error {
		account, err := accounts.Get(id)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(newAccountView(account), true)
		}

		r.writePlain("ID:         %s\n", account.ID())
		r.writePlain("Name:       %s\n", account.Fullname())
		r.writePlain("Email:      %s\n", account.Email())
		return r.writePlain("Registered: %s\n", account.CreatedAt().Format(time.RFC3339))
	})
}

// DevAccountsUpdate changes an account's name or resets its password.
func (r *Runner) DevAccountsUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := requiredArg(cmd.StringArg("id"), "account id")
	if err != nil {
		return err
	}
	fullname, password := cmd.String("fullname"), cmd.String("password")
	if fullname == "" && password == "" {
		return fmt.Errorf("%w: --fullname or --password", shared.ErrMissingArgument)
	}

	return r.withAccounts(cmd, func(accounts *repositories.AccountRepository) error {
		account, err := accounts.Get(id)
		if err != nil {
			return err
		}
		if fullname != "" {
			account.SetFullname(fullname)
		}
		if password != "" {
			hash, err := server.HashPassword(password, 0)
			if err != nil {
				return err
			}
			account.SetPasswordHash(hash)
		}
		if err := accounts.Update(account); err != nil {
			return err
		}
		return r.writePlain("✓ Updated %s <%s>\n", account.Fullname(), account.Email())
	})
}

// DevAccountsDelete soft-deletes an account and revokes its tokens.
func (r *Runner) DevAccountsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requiredArg(cmd.StringArg("id"), "account id")
	if err != nil {
		return err
	}

	return r.withAccounts(cmd, func(accounts *repositories.AccountRepository) error {
		if err := accounts.Delete(id); err != nil {
			return err
		}
		return r.writePlain("✓ Deleted account %s\n", id)
	})
}

// DevAccountsRevoke invalidates a single bearer token.
func (r *Runner) DevAccountsRevoke(ctx context.Context, cmd *cli.Command) error {
	token, err := requiredArg(cmd.StringArg("token"), "token")
	if err != nil {
		return err
	}

	return r.withAccounts(cmd, func(accounts *repositories.AccountRepository) error {
		if err := accounts.RevokeToken(token); err != nil {
			return err
		}
		return r.writePlain("✓ Token revoked\n")
	})
}

// DevRollback reverts the most recent migration of the dev server database.
func (r *Runner) DevRollback(ctx context.Context, cmd *cli.Command) error {
	path := r.devDatabasePath(cmd)
	db, err := shared.NewDatabase(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back %s: %w", path, err)
	}
	return r.writePlain("✓ Rolled back the latest migration of %s\n", path)
}
