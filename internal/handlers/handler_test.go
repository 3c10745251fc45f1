// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler
// integration tests. Tests are skipped when PostgreSQL or Valkey are
// unavailable. Object storage is replaced by an in-memory fake so the
// file lifecycle can be asserted without an S3 endpoint.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"imagehub/internal/database"
	"imagehub/internal/feed"
	"imagehub/internal/files"
	"imagehub/internal/mailer"
	"imagehub/internal/middleware"
	"imagehub/internal/models"
	"imagehub/internal/recovery"
	"imagehub/internal/render"
	"imagehub/internal/session"
	"imagehub/internal/store"
	"imagehub/internal/token"
)

// memObjectStore is an in-memory files.ObjectStore for handler tests.
type memObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: make(map[string][]byte)}
}

func (m *memObjectStore) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("no object %s", key)
	}
	return data, nil
}

func (m *memObjectStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memObjectStore) FileURL(key string) string {
	return "http://storage.test/" + key
}

func (m *memObjectStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// logMailer records sent mail for recovery flow assertions.
type logMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *logMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "imagehub")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "imagehub")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "recovery:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB         *sql.DB
	Valkey     *redis.Client
	Renderer   *render.Renderer
	Sessions   *session.Store
	Recovery   *recovery.Store
	Images     *store.ImageStore
	Categories *store.CategoryStore
	Accounts   *store.AccountStore
	Objects    *memObjectStore
	Mail       *logMailer
	Issuer     *token.Issuer

	ImagesH  *Images
	AuthH    *Auth
	AccountH *Account
	APIH     *API
}

// newTestEnv creates a complete test environment with all handler
// dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New(true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	sessions := session.NewStore(vk, false)
	recoveryTokens := recovery.NewStore(vk)
	objects := newMemObjectStore()
	fileMgr := files.NewManager(objects)
	mail := &logMailer{}

	imageStore := store.NewImageStore(db)
	categoryStore := store.NewCategoryStore(db)
	accountStore := store.NewAccountStore(db)

	selector := feed.NewSelector(imageStore)
	navigator := feed.NewNavigator(imageStore)
	resolver := feed.NewResolver(categoryStore, accountStore)
	issuer := token.NewIssuer("handler-test-secret")

	return &testEnv{
		DB:         db,
		Valkey:     vk,
		Renderer:   renderer,
		Sessions:   sessions,
		Recovery:   recoveryTokens,
		Images:     imageStore,
		Categories: categoryStore,
		Accounts:   accountStore,
		Objects:    objects,
		Mail:       mail,
		Issuer:     issuer,

		ImagesH:  NewImages(renderer, selector, navigator, resolver, imageStore, categoryStore, accountStore, fileMgr),
		AuthH:    NewAuth(renderer, sessions, accountStore, recoveryTokens, mail, "http://localhost:8080"),
		AccountH: NewAccount(renderer, sessions, accountStore, imageStore, fileMgr),
		APIH:     NewAPI(selector, navigator, imageStore, categoryStore, accountStore, issuer, fileMgr),
	}
}

var _ mailer.Mailer = (*logMailer)(nil)

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// ctxWithAccountID adds an API bearer account to a context.
func ctxWithAccountID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, middleware.AccountIDKey, id)
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// sessionFor builds session data for an account fixture.
func sessionFor(a *models.Account) *session.Data {
	return &session.Data{AccountID: a.ID, Username: a.Username, Email: a.Email}
}

// fixtureAccount creates a test account and schedules its removal.
func fixtureAccount(t *testing.T, env *testEnv, username string) *models.Account {
	t.Helper()
	account, err := env.Accounts.Create(username, username+"@handlers.test", "handler-test-pass", "Test", "User")
	if err != nil {
		t.Fatalf("fixture account: %v", err)
	}
	t.Cleanup(func() { env.Accounts.Delete(account.ID) })
	return account
}

// fixtureCategory creates a test category and schedules its removal.
func fixtureCategory(t *testing.T, env *testEnv, name string) *models.Category {
	t.Helper()
	category, err := env.Categories.Create(name)
	if err != nil {
		t.Fatalf("fixture category: %v", err)
	}
	t.Cleanup(func() { env.Categories.Delete(category.ID) })
	return category
}

// fixtureImage creates a test image record with a stored fake file.
func fixtureImage(t *testing.T, env *testEnv, account *models.Account, category *models.Category, description string) *models.Image {
	t.Helper()
	key := fmt.Sprintf("images/fixture-%s.jpg", uuid.NewString())
	env.Objects.mu.Lock()
	env.Objects.objects[key] = []byte("fixture")
	env.Objects.mu.Unlock()

	img, err := env.Images.Create(&models.Image{
		FileKey:     key,
		Description: description,
		CategoryID:  category.ID,
		AccountID:   account.ID,
	})
	if err != nil {
		t.Fatalf("fixture image: %v", err)
	}
	t.Cleanup(func() { env.Images.HardDelete(img.ID) })
	return img
}

// pngBytes encodes a small solid PNG for upload tests.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

// multipartUpload builds a multipart body with a file part and extra
// form fields.
func multipartUpload(t *testing.T, fileField, filename string, fileData []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fileData != nil {
		part, err := mw.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("multipart file: %v", err)
		}
		part.Write(fileData)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}
