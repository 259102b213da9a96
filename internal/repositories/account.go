package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/pathfinder/internal/models"
	"github.com/desertthunder/pathfinder/internal/shared"
)

const accountColumns = `id, sequence, fullname, email, password_hash, avatar, created_at, updated_at, deleted_at`

// AccountRepository implements [models.Repository] for [models.Account] persistence and issues bearer tokens.
type AccountRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Account] = (*AccountRepository)(nil)

// NewAccountRepository creates a new [AccountRepository] with the given database connection
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		id, fullname, email, hash, avatar string
		sequence                          int
		createdAt, updatedAt              time.Time
		deletedAt                         sql.NullTime
	)
	if err := row.Scan(&id, &sequence, &fullname, &email, &hash, &avatar, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	account := models.NewAccount(sequence, fullname, email, hash)
	account.SetID(id)
	account.SetAvatar(avatar)
	account.SetCreatedAt(createdAt)
	account.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		account.SetDeletedAt(&deletedAt.Time)
	}
	return account, nil
}

// Create inserts a new account with generated ID and sequence
func (r *AccountRepository) Create(account *models.Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "accounts")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	account.SetID(shared.GenerateID())
	account.SetSequence(sequence)

	query := `
		INSERT INTO accounts (id, sequence, fullname, email, password_hash, avatar, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, account.ID(), sequence, account.Fullname(), account.Email(), account.PasswordHash(),
		account.Avatar(), account.CreatedAt(), account.UpdatedAt())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: accounts.email") {
			return fmt.Errorf("%w: email %s is already registered", shared.ErrInvalidInput, account.Email())
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// Get retrieves an account by ID, excluding soft-deleted accounts
func (r *AccountRepository) Get(id string) (*models.Account, error) {
	row := r.db.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND deleted_at IS NULL`, id)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return account, nil
}

// GetByEmail retrieves an account by its normalized email address
func (r *AccountRepository) GetByEmail(email string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.db.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE email = ? AND deleted_at IS NULL`, email)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", shared.ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return account, nil
}

// Update modifies the mutable fields of an existing account
func (r *AccountRepository) Update(account *models.Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	account.SetUpdatedAt(now)

	result, err := r.db.Exec(`
		UPDATE accounts
		SET fullname = ?, password_hash = ?, avatar = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, account.Fullname(), account.PasswordHash(), account.Avatar(), now, account.ID())
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	return expectAffected(result, account.ID())
}

// Delete soft-deletes an account and revokes its tokens
func (r *AccountRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE accounts SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if err := expectAffected(result, id); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM access_tokens WHERE account_id = ?`, id); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}

	return tx.Commit()
}

// List retrieves all accounts matching the given criteria, excluding soft-deleted accounts
func (r *AccountRepository) List(criteria map[string]any) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE deleted_at IS NULL`
	args := []any{}

	if email, ok := criteria["email"].(string); ok && email != "" {
		query += " AND email = ?"
		args = append(args, strings.ToLower(email))
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return accounts, nil
}

// IssueToken creates a new opaque bearer token for accountID.
func (r *AccountRepository) IssueToken(accountID string) (string, error) {
	token := shared.GenerateID()
	if _, err := r.db.Exec(`INSERT INTO access_tokens (token, account_id, created_at) VALUES (?, ?, ?)`,
		token, accountID, time.Now()); err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

// Authenticate resolves a bearer token to its active account.
func (r *AccountRepository) Authenticate(token string) (*models.Account, error) {
	row := r.db.QueryRow(`
		SELECT a.id, a.sequence, a.fullname, a.email, a.password_hash, a.avatar, a.created_at, a.updated_at, a.deleted_at
		FROM access_tokens t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.token = ? AND a.deleted_at IS NULL
	`, token)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: invalid token", shared.ErrNotAuthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}
	return account, nil
}

// RevokeToken deletes a bearer token. Unknown tokens are ignored.
func (r *AccountRepository) RevokeToken(token string) error {
	if _, err := r.db.Exec(`DELETE FROM access_tokens WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func expectAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: account not found or already deleted: %s", shared.ErrNotFound, id)
	}
	return nil
}
