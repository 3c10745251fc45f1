package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"imagehub/internal/slug"
)

// starterCategories are created once on first startup in development so
// the board and upload pages are usable immediately.
var starterCategories = []string{
	"Nature",
	"Architecture",
	"Street Art",
	"Animals",
	"Travel",
}

// Seed populates the database with initial development data: a default
// account and a handful of categories. It is a no-op if accounts exist.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM accounts").Scan(&count); err != nil {
		return fmt.Errorf("seed check accounts: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("imagehub"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO accounts (username, email, password_hash, first_name)
		VALUES ($1, $2, $3, $4)
	`, "admin", "admin@imagehub.local", string(hash), "Admin")
	if err != nil {
		return fmt.Errorf("seed insert account: %w", err)
	}

	for _, name := range starterCategories {
		_, err := db.Exec(`
			INSERT INTO categories (name, slug) VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING
		`, name, slug.Generate(name))
		if err != nil {
			return fmt.Errorf("seed insert category %q: %w", name, err)
		}
	}

	slog.Info("database seeded with default account and categories",
		"username", "admin",
		"password", "imagehub",
	)

	return nil
}
