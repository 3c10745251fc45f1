// Package recovery issues and redeems single-use password recovery
// tokens. Tokens are random, stored in Valkey with a TTL, and deleted
// on first use, so a leaked reset link goes stale on its own.
package recovery

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is how long a recovery token stays redeemable.
	DefaultTTL = time.Hour

	// keyPrefix namespaces recovery keys in Valkey.
	keyPrefix = "recovery:"

	// tokenLength is the byte length of the random token (32 bytes = 64 hex chars).
	tokenLength = 32
)

// Store manages recovery token lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a recovery token store backed by the given Valkey client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client, ttl: DefaultTTL}
}

// Issue creates a token bound to the account and stores it with the TTL.
func (s *Store) Issue(ctx context.Context, accountID uuid.UUID) (string, error) {
	b := make([]byte, tokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("recovery issue: %w", err)
	}
	token := hex.EncodeToString(b)

	if err := s.client.Set(ctx, keyPrefix+token, accountID.String(), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("recovery store: %w", err)
	}
	return token, nil
}

// Peek returns the account bound to a token without consuming it, or
// uuid.Nil if the token is unknown or expired. The reset form uses it
// to validate the link before showing the password fields.
func (s *Store) Peek(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.client.Get(ctx, keyPrefix+token).Result()
	if err == redis.Nil {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("recovery peek: %w", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("recovery peek: %w", err)
	}
	return id, nil
}

// Redeem consumes a token and returns the bound account, or uuid.Nil if
// the token is unknown, expired, or already used. GETDEL makes the
// consume atomic so a token can only ever reset one password.
func (s *Store) Redeem(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.client.GetDel(ctx, keyPrefix+token).Result()
	if err == redis.Nil {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("recovery redeem: %w", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("recovery redeem: %w", err)
	}
	return id, nil
}
