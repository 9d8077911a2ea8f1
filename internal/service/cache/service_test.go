package cache

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/valkey-io/valkey-go"
)

type testPayload struct {
	Name string `json:"name"`
}

func newTestCacheService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()

	mini := miniredis.RunT(t)
	host, portStr, err := net.SplitHostPort(mini.Addr())
	if err != nil {
		t.Fatalf("failed to split address: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:       []string{net.JoinHostPort(host, portStr)},
		DisableCache:      true,
		ForceSingleClient: true,
	})
	if err != nil {
		t.Fatalf("failed to create valkey client: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		t.Fatalf("failed to ping miniredis: %v", err)
	}
	svc := &Service{client: client, logger: logger}

	t.Cleanup(func() {
		_ = svc.Close()
		mini.Close()
	})

	return svc, mini
}

func TestCacheServiceSetGetWithTTL(t *testing.T) {
	svc, mini := newTestCacheService(t)
	ctx := context.Background()

	value := testPayload{Name: "value"}
	if err := svc.Set(ctx, "key", value, time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var got testPayload
	if err := svc.Get(ctx, "key", &got); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Name != "value" {
		t.Fatalf("unexpected value: %+v", got)
	}

	// TTL 경과 후에는 키 미스와 동일하게 dest를 건드리지 않는다.
	mini.FastForward(2 * time.Second)

	after := testPayload{Name: "unchanged"}
	if err := svc.Get(ctx, "key", &after); err != nil {
		t.Fatalf("get after expiry should not fail: %v", err)
	}
	if after.Name != "unchanged" {
		t.Fatalf("expected key to expire, got %+v", after)
	}
}

func TestCacheServiceGetMissingKey(t *testing.T) {
	svc, _ := newTestCacheService(t)
	ctx := context.Background()

	got := testPayload{Name: "unchanged"}
	if err := svc.Get(ctx, "missing", &got); err != nil {
		t.Fatalf("get on missing key should not fail: %v", err)
	}
	if got.Name != "unchanged" {
		t.Fatalf("dest should be untouched on miss: %+v", got)
	}
}

func TestCacheServiceHashCounter(t *testing.T) {
	svc, _ := newTestCacheService(t)
	ctx := context.Background()

	key := "stats:counter:room1:2024-03-07"
	if _, err := svc.HIncrBy(ctx, key, "user1", 1); err != nil {
		t.Fatalf("hincrby failed: %v", err)
	}
	value, err := svc.HIncrBy(ctx, key, "user1", 2)
	if err != nil {
		t.Fatalf("hincrby failed: %v", err)
	}
	if value != 3 {
		t.Fatalf("expected 3, got %d", value)
	}

	all, err := svc.HGetAll(ctx, key)
	if err != nil {
		t.Fatalf("hgetall failed: %v", err)
	}
	if all["user1"] != "3" {
		t.Fatalf("unexpected hash contents: %+v", all)
	}

	keys, err := svc.Keys(ctx, "stats:counter:room1:*")
	if err != nil {
		t.Fatalf("keys failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != key {
		t.Fatalf("unexpected keys: %+v", keys)
	}

	deleted, err := svc.DelMany(ctx, keys)
	if err != nil {
		t.Fatalf("delmany failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deletion, got %d", deleted)
	}
}
