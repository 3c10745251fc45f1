package recovery

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client connected to the test Valkey.
// Skips the test if Valkey is unavailable.
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
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "recovery:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestIssueAndRedeem(t *testing.T) {
	store := NewStore(testValkeyClient(t))
	ctx := context.Background()

	accountID := uuid.New()
	token, err := store.Issue(ctx, accountID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length: got %d, want 64", len(token))
	}

	// Peek does not consume.
	peeked, err := store.Peek(ctx, token)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if peeked != accountID {
		t.Errorf("peeked: got %s, want %s", peeked, accountID)
	}

	redeemed, err := store.Redeem(ctx, token)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if redeemed != accountID {
		t.Errorf("redeemed: got %s, want %s", redeemed, accountID)
	}

	// Single use: a second redeem finds nothing.
	again, err := store.Redeem(ctx, token)
	if err != nil {
		t.Fatalf("Redeem (again): %v", err)
	}
	if again != uuid.Nil {
		t.Error("expected token to be consumed after first redeem")
	}
}

func TestRedeemUnknownToken(t *testing.T) {
	store := NewStore(testValkeyClient(t))

	id, err := store.Redeem(context.Background(), "not-a-real-token")
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if id != uuid.Nil {
		t.Error("expected uuid.Nil for unknown token")
	}
}

func TestIssueDistinctTokens(t *testing.T) {
	store := NewStore(testValkeyClient(t))
	ctx := context.Background()

	accountID := uuid.New()
	first, _ := store.Issue(ctx, accountID)
	second, _ := store.Issue(ctx, accountID)
	if first == second {
		t.Error("expected distinct tokens per request")
	}

	// Both remain redeemable independently.
	if id, _ := store.Redeem(ctx, first); id != accountID {
		t.Error("first token not redeemable")
	}
	if id, _ := store.Redeem(ctx, second); id != accountID {
		t.Error("second token not redeemable")
	}
}
