// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package files owns the lifecycle of stored objects: opaque key
// generation on upload and best-effort release when the owning record
// goes away. Keys never collide with user input; the original filename
// contributes only its extension.
package files

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Prefixes partition the bucket by purpose.
const (
	ImagePrefix  = "images/"
	AvatarPrefix = "avatars/"
)

// ObjectStore is the slice of the storage client the lifecycle needs.
// *storage.Client satisfies it.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
}

// Manager stores and releases files against an object store.
type Manager struct {
	store ObjectStore
}

// NewManager returns a Manager over the given object store.
func NewManager(store ObjectStore) *Manager {
	return &Manager{store: store}
}

// NewKey builds a storage key under prefix: a random hex identifier
// with the lowercased extension of the original filename. Two uploads
// of the same file always get distinct keys.
func NewKey(prefix, originalName string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	ext := strings.ToLower(path.Ext(originalName))
	return prefix + id + ext
}

// Store uploads the bytes under a freshly generated key and returns it.
func (m *Manager) Store(ctx context.Context, prefix, originalName, contentType string, data []byte) (string, error) {
	key := NewKey(prefix, originalName)
	err := m.store.Upload(ctx, key, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	return key, nil
}

// Fetch retrieves the bytes stored under key. Used to rebuild
// thumbnails from the stored original.
func (m *Manager) Fetch(ctx context.Context, key string) ([]byte, error) {
	return m.store.Download(ctx, key)
}

// Release deletes stored objects best-effort. A failed delete is logged
// and skipped: the database record is already gone and an orphaned file
// must never fail the user-facing operation. Nil and empty keys are
// ignored.
func (m *Manager) Release(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := m.store.Delete(ctx, key); err != nil {
			slog.Warn("file release failed", "key", key, "error", err)
		}
	}
}

// URL returns the public URL for a stored key.
func (m *Manager) URL(key string) string {
	return m.store.FileURL(key)
}
