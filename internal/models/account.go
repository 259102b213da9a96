package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Account is a development server user with a bcrypt password hash.
type Account struct {
	id           string
	sequence     int
	fullname     string
	email        string
	passwordHash string
	avatar       string
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewAccount creates an [Account] with timestamps set to now.
func NewAccount(sequence int, fullname, email, passwordHash string) *Account {
	now := time.Now()
	return &Account{
		sequence:     sequence,
		fullname:     fullname,
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: passwordHash,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (a *Account) ID() string { return a.id }
func (a *Account) Sequence() int { return a.sequence }
func (a *Account) Fullname() string { return a.fullname }
func (a *Account) Email() string { return a.email }
func (a *Account) PasswordHash() string { return a.passwordHash }
func (a *Account) Avatar() string { return a.avatar }
func (a *Account) CreatedAt() time.Time { return a.createdAt }
func (a *Account) UpdatedAt() time.Time { return a.updatedAt }
func (a *Account) DeletedAt() *time.Time { return a.deletedAt }

func (a *Account) SetID(id string) { a.id = id }
func (a *Account) SetSequence(seq int) { a.sequence = seq }
func (a *Account) SetAvatar(avatar string) { a.avatar = avatar }
func (a *Account) SetCreatedAt(t time.Time) { a.createdAt = t }
func (a *Account) SetUpdatedAt(t time.Time) { a.updatedAt = t }
func (a *Account) SetDeletedAt(t *time.Time) { a.deletedAt = t }
func (a *Account) SetFullname(fullname string) { a.fullname = fullname }
func (a *Account) SetPasswordHash(hash string) { a.passwordHash = hash }

// Validate checks required fields and email syntax.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.fullname) == "" {
		return fmt.Errorf("fullname is required")
	}
	if _, err := mail.ParseAddress(a.email); err != nil {
		return fmt.Errorf("invalid email %q", a.email)
	}
	if a.passwordHash == "" {
		return fmt.Errorf("password hash is required")
	}
	return nil
}

// Profile projects the account onto the [User] shape returned to clients.
func (a *Account) Profile() User {
	return User{ID: a.id, Fullname: a.fullname, Email: a.email, Avatar: a.avatar}
}
