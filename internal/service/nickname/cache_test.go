package nickname

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/valkey-io/valkey-go"

	"github.com/kapu/groupstats-kakao-bot-go/internal/service/cache"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/directory"
)

type fakeDirectory struct {
	nicknames map[string]string // userID -> nickname
	groupName string
	members   []directory.Member
	fail      bool
	block     bool
	lookups   atomic.Int64
}

func (f *fakeDirectory) LookupNickname(ctx context.Context, group, userID string) (string, error) {
	f.lookups.Add(1)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.fail {
		return "", errors.New("directory down")
	}
	return f.nicknames[userID], nil
}

func (f *fakeDirectory) LookupGroupName(ctx context.Context, group string) (string, error) {
	if f.fail || f.block {
		return "", errors.New("directory down")
	}
	return f.groupName, nil
}

func (f *fakeDirectory) ListMembers(ctx context.Context, group string) ([]directory.Member, error) {
	if f.fail {
		return nil, errors.New("directory down")
	}
	return f.members, nil
}

func newTestCache(t *testing.T, dir directory.Directory) (*Cache, *cache.Service) {
	t.Helper()

	mini := miniredis.RunT(t)
	host, portStr, err := net.SplitHostPort(mini.Addr())
	if err != nil {
		t.Fatalf("failed to split address: %v", err)
	}
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:       []string{net.JoinHostPort(host, portStr)},
		DisableCache:      true,
		ForceSingleClient: true,
	})
	if err != nil {
		t.Fatalf("failed to create valkey client: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cacheSvc := cache.NewWithClient(client, logger)
	t.Cleanup(func() {
		_ = cacheSvc.Close()
		mini.Close()
	})

	return NewCache(dir, cacheSvc, logger), cacheSvc
}

func TestResolveCachesNickname(t *testing.T) {
	dir := &fakeDirectory{nicknames: map[string]string{"user1": "철수"}}
	c, _ := newTestCache(t, dir)
	ctx := context.Background()

	if got := c.Resolve(ctx, "room1", "user1"); got != "철수" {
		t.Fatalf("resolve = %s, want 철수", got)
	}
	if c.EntryState("room1", "user1") != StateResolved {
		t.Fatalf("state = %s, want resolved", c.EntryState("room1", "user1"))
	}

	// 두 번째 호출은 캐시에서 제공되어야 한다.
	before := dir.lookups.Load()
	if got := c.Resolve(ctx, "room1", "user1"); got != "철수" {
		t.Fatalf("resolve = %s, want 철수", got)
	}
	if dir.lookups.Load() != before {
		t.Error("second resolve should not hit the directory")
	}
}

func TestResolveFallsBackToRawID(t *testing.T) {
	dir := &fakeDirectory{fail: true}
	c, _ := newTestCache(t, dir)

	if got := c.Resolve(context.Background(), "room1", "user1"); got != "user1" {
		t.Errorf("resolve = %s, want raw id user1", got)
	}
	if c.EntryState("room1", "user1") != StateUnresolved {
		t.Errorf("state should stay unresolved after failed lookup")
	}
}

func TestStaleEntryServedOnFailure(t *testing.T) {
	dir := &fakeDirectory{nicknames: map[string]string{"user1": "철수"}}
	c, _ := newTestCache(t, dir)
	ctx := context.Background()

	base := time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)
	current := base
	c.WithClock(func() time.Time { return current })

	if got := c.Resolve(ctx, "room1", "user1"); got != "철수" {
		t.Fatalf("resolve = %s, want 철수", got)
	}

	// 갱신 주기를 넘기면 Stale로 분류된다.
	current = base.Add(7 * time.Hour)
	if state := c.EntryState("room1", "user1"); state != StateStale {
		t.Fatalf("state = %s, want stale", state)
	}

	// 디렉토리가 죽어도 Stale 닉네임은 계속 표시된다.
	dir.fail = true
	if got := c.Resolve(ctx, "room1", "user1"); got != "철수" {
		t.Errorf("stale fallback = %s, want 철수", got)
	}
}

func TestResolveDoesNotBlockPastTimeout(t *testing.T) {
	dir := &fakeDirectory{block: true}
	c, _ := newTestCache(t, dir)

	start := time.Now()
	got := c.Resolve(context.Background(), "room1", "user1")
	elapsed := time.Since(start)

	if got != "user1" {
		t.Errorf("resolve = %s, want raw id fallback", got)
	}
	if elapsed > 5*time.Second {
		t.Errorf("resolve blocked too long: %v", elapsed)
	}
}

func TestRefreshGroupAndSnapshotReload(t *testing.T) {
	dir := &fakeDirectory{
		groupName: "우리 모임",
		members: []directory.Member{
			{UserID: "u1", Nickname: "철수"},
			{UserID: "u2", Nickname: "영희"},
		},
	}
	c, cacheSvc := newTestCache(t, dir)
	ctx := context.Background()

	updated, err := c.RefreshGroup(ctx, "room1")
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if updated != 2 {
		t.Fatalf("updated = %d, want 2", updated)
	}

	// u3는 캐시에 닉네임이 없으므로 미확인으로 집계된다.
	status := c.GroupStatus("room1", []string{"u1", "u2", "u3"})
	if status.Entries != 2 || status.Resolved != 2 || status.Stale != 0 {
		t.Errorf("unexpected status: %+v", status)
	}
	if status.Unresolved != 1 {
		t.Errorf("unresolved = %d, want 1", status.Unresolved)
	}

	// 캐시가 전혀 없는 그룹은 전 멤버가 미확인이다.
	empty := c.GroupStatus("room-unknown", []string{"a", "b"})
	if empty.Unresolved != 2 {
		t.Errorf("unresolved for unknown group = %d, want 2", empty.Unresolved)
	}

	// 같은 Valkey에서 새 캐시를 복원하면 스냅샷이 살아있어야 한다.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	restored := NewCache(dir, cacheSvc, logger)
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got := restored.Resolve(ctx, "room1", "u1"); got != "철수" {
		t.Errorf("restored resolve = %s, want 철수", got)
	}
	if restored.GroupName(ctx, "room1") != "우리 모임" {
		t.Errorf("restored group name = %s", restored.GroupName(ctx, "room1"))
	}
}

func TestRefreshGroupDirectoryFailure(t *testing.T) {
	dir := &fakeDirectory{fail: true}
	c, _ := newTestCache(t, dir)

	if _, err := c.RefreshGroup(context.Background(), "room1"); err == nil {
		t.Fatal("expected refresh error when directory is down")
	}
}

func TestGroupNameFallback(t *testing.T) {
	dir := &fakeDirectory{fail: true}
	c, _ := newTestCache(t, dir)

	if got := c.GroupName(context.Background(), "room1"); got != "room1" {
		t.Errorf("group name fallback = %s, want room1", got)
	}
}

func TestResolveAll(t *testing.T) {
	dir := &fakeDirectory{nicknames: map[string]string{"u1": "철수", "u2": "영희"}}
	c, _ := newTestCache(t, dir)
	ctx := context.Background()

	names := c.ResolveAll(ctx, "room1", []string{"u1", "u2", "u3"})
	if names["u1"] != "철수" || names["u2"] != "영희" {
		t.Errorf("unexpected names: %+v", names)
	}
	// 디렉토리에 없는 사용자는 원본 ID로 남는다.
	if names["u3"] != "u3" {
		t.Errorf("missing user = %s, want raw id u3", names["u3"])
	}
}
