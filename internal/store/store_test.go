// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"imagehub/internal/database"
	"imagehub/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "imagehub")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "imagehub")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanAccounts removes test accounts by email pattern. Call in t.Cleanup().
func cleanAccounts(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM accounts WHERE email = $1", email)
	}
}

// cleanCategories removes test categories by slug pattern. Call in t.Cleanup().
func cleanCategories(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, slug := range slugs {
		db.Exec("DELETE FROM categories WHERE slug = $1", slug)
	}
}

// cleanImagesByKey removes test images by file key. Call in t.Cleanup().
func cleanImagesByKey(t *testing.T, db *sql.DB, keys ...string) {
	t.Helper()
	for _, key := range keys {
		db.Exec("DELETE FROM images WHERE file_key = $1", key)
	}
}

// fixtureAccount creates an account for image tests and registers cleanup.
func fixtureAccount(t *testing.T, db *sql.DB, username string) *models.Account {
	t.Helper()
	email := username + "@store-test.example"
	t.Cleanup(func() { cleanAccounts(t, db, email) })

	a, err := NewAccountStore(db).Create(username, email, "store-test-pass", "Store", "Test")
	if err != nil {
		t.Fatalf("failed to create fixture account: %v", err)
	}
	return a
}

// fixtureCategory creates a category for image tests and registers cleanup.
func fixtureCategory(t *testing.T, db *sql.DB, name string) *models.Category {
	t.Helper()
	c, err := NewCategoryStore(db).Create(name)
	if err != nil {
		t.Fatalf("failed to create fixture category: %v", err)
	}
	t.Cleanup(func() { cleanCategories(t, db, c.Slug) })
	return c
}

// fixtureImage inserts an image owned by the account in the category and
// registers cleanup by file key.
func fixtureImage(t *testing.T, db *sql.DB, categoryID, accountID uuid.UUID, description string) *models.Image {
	t.Helper()
	key := "images/" + uuid.NewString() + ".jpg"
	t.Cleanup(func() { cleanImagesByKey(t, db, key) })

	img, err := NewImageStore(db).Create(&models.Image{
		FileKey:     key,
		Description: description,
		CategoryID:  categoryID,
		AccountID:   accountID,
	})
	if err != nil {
		t.Fatalf("failed to create fixture image: %v", err)
	}
	return img
}
