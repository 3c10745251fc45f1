// Package store provides database access methods for all ImageHub
// entities. Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"imagehub/internal/models"
)

// AccountStore handles all account-related database operations.
// Username and email lookups and uniqueness checks are case-insensitive
// throughout, matching the LOWER() unique indexes on the table.
type AccountStore struct {
	db *sql.DB
}

// NewAccountStore creates a new AccountStore with the given database connection.
func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

const accountColumns = `id, username, email, password_hash, first_name, last_name,
	avatar_key, created_at, updated_at`

// scanAccount scans an account row from the result set.
func scanAccount(scanner interface{ Scan(...any) error }) (*models.Account, error) {
	var a models.Account
	err := scanner.Scan(
		&a.ID, &a.Username, &a.Email, &a.PasswordHash,
		&a.FirstName, &a.LastName, &a.AvatarKey,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AccountStore) findOne(query string, arg any) (*models.Account, error) {
	row := s.db.QueryRow(query, arg)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return a, nil
}

// FindByID retrieves an account by UUID. Returns nil if not found.
func (s *AccountStore) FindByID(id uuid.UUID) (*models.Account, error) {
	return s.findOne(`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// FindByUsername retrieves an account by username (case-insensitive).
// Returns nil if not found.
func (s *AccountStore) FindByUsername(username string) (*models.Account, error) {
	return s.findOne(`
		SELECT `+accountColumns+` FROM accounts WHERE LOWER(username) = LOWER($1)
	`, username)
}

// FindByEmail retrieves an account by email (case-insensitive).
// Returns nil if not found.
func (s *AccountStore) FindByEmail(email string) (*models.Account, error) {
	return s.findOne(`
		SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)
	`, email)
}

// FindByLogin retrieves an account by username or email, whichever
// matches. The sign-in form accepts either.
func (s *AccountStore) FindByLogin(login string) (*models.Account, error) {
	return s.findOne(`
		SELECT `+accountColumns+` FROM accounts
		WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)
	`, login)
}

// UsernameTaken reports whether another account already uses the
// username, ignoring case. exclude is the account being edited
// (uuid.Nil during registration).
func (s *AccountStore) UsernameTaken(username string, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM accounts WHERE LOWER(username) = LOWER($1) AND id <> $2
		)
	`, username, exclude).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("username taken: %w", err)
	}
	return exists, nil
}

// EmailTaken reports whether another account already uses the email,
// ignoring case.
func (s *AccountStore) EmailTaken(email string, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM accounts WHERE LOWER(email) = LOWER($1) AND id <> $2
		)
	`, email, exclude).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("email taken: %w", err)
	}
	return exists, nil
}

// Create inserts a new account with a bcrypt-hashed password.
func (s *AccountStore) Create(username, email, password, firstName, lastName string) (*models.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	row := s.db.QueryRow(`
		INSERT INTO accounts (username, email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+accountColumns,
		username, email, string(hash), firstName, lastName,
	)
	a, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

// UpdateProfile modifies the profile fields of an account.
func (s *AccountStore) UpdateProfile(id uuid.UUID, username, email, firstName, lastName string) (*models.Account, error) {
	row := s.db.QueryRow(`
		UPDATE accounts SET
			username = $1, email = $2, first_name = $3, last_name = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING `+accountColumns,
		username, email, firstName, lastName, id,
	)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return a, nil
}

// UpdatePassword replaces the stored password hash.
func (s *AccountStore) UpdatePassword(id uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.db.Exec(`
		UPDATE accounts SET password_hash = $1, updated_at = NOW() WHERE id = $2
	`, string(hash), id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// SetAvatar replaces the avatar key and returns the previous one so the
// caller can release the old file after the new reference is durable.
// Pass nil to clear the avatar.
func (s *AccountStore) SetAvatar(id uuid.UUID, key *string) (previous *string, err error) {
	err = s.db.QueryRow(`
		UPDATE accounts a SET avatar_key = $1, updated_at = NOW()
		FROM (SELECT avatar_key AS old_key FROM accounts WHERE id = $2) prev
		WHERE a.id = $2
		RETURNING prev.old_key
	`, key, id).Scan(&previous)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("set avatar: %w", err)
	}
	return previous, nil
}

// Delete removes an account by ID. The database cascades the delete to
// the account's images; callers must collect avatar and image file keys
// first and release them after.
func (s *AccountStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// CheckPassword verifies a plaintext password against the account's stored hash.
func (s *AccountStore) CheckPassword(account *models.Account, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) == nil
}
