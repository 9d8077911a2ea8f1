package rank

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/valkey-io/valkey-go"

	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/cache"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/counter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/settings"
	"github.com/kapu/groupstats-kakao-bot-go/internal/util"
)

func newTestAggregator(t *testing.T) (*Aggregator, *counter.Store, *settings.Service) {
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

	loc := util.LoadLocation("Asia/Seoul")
	store := counter.NewStore(cacheSvc, loc, logger)
	settingsSvc := settings.NewService(filepath.Join(t.TempDir(), "settings.json"), settings.Defaults{
		ScheduleHour: 21,
		MissedPolicy: domain.MissedCatchUp,
	}, logger)

	now := time.Date(2024, 3, 7, 15, 0, 0, 0, loc)
	agg := NewAggregator(store, settingsSvc, loc, time.Monday, logger).
		WithClock(func() time.Time { return now })
	return agg, store, settingsSvc
}

func record(t *testing.T, store *counter.Store, group, user string, at time.Time, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := store.Increment(context.Background(), group, user, at); err != nil {
			t.Fatalf("increment failed: %v", err)
		}
	}
}

func TestRankOrderAndPercent(t *testing.T) {
	agg, store, _ := newTestAggregator(t)
	loc := util.LoadLocation("Asia/Seoul")
	today := time.Date(2024, 3, 7, 10, 0, 0, 0, loc)

	record(t, store, "room1", "userA", today, 3)
	record(t, store, "room1", "userB", today, 2)

	lb := agg.Rank("room1", domain.WindowToday, 10)
	if len(lb.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(lb.Entries))
	}
	if lb.Total != 5 {
		t.Fatalf("total = %d, want 5", lb.Total)
	}

	first, second := lb.Entries[0], lb.Entries[1]
	if first.UserID != "userA" || first.Rank != 1 || first.Count != 3 || first.Percent != 60.0 {
		t.Errorf("unexpected first entry: %+v", first)
	}
	if second.UserID != "userB" || second.Rank != 2 || second.Count != 2 || second.Percent != 40.0 {
		t.Errorf("unexpected second entry: %+v", second)
	}
}

func TestRankTieBreakByFirstSeen(t *testing.T) {
	agg, store, _ := newTestAggregator(t)
	loc := util.LoadLocation("Asia/Seoul")
	today := time.Date(2024, 3, 7, 10, 0, 0, 0, loc)

	// userB가 먼저 발언, 이후 동률
	record(t, store, "room1", "userB", today, 2)
	record(t, store, "room1", "userA", today, 2)

	lb := agg.Rank("room1", domain.WindowToday, 10)
	if lb.Entries[0].UserID != "userB" || lb.Entries[1].UserID != "userA" {
		t.Errorf("tie should keep first-seen order: %+v", lb.Entries)
	}
}

func TestRankWindowFiltering(t *testing.T) {
	agg, store, _ := newTestAggregator(t)
	loc := util.LoadLocation("Asia/Seoul")

	lastMonth := time.Date(2024, 2, 10, 10, 0, 0, 0, loc)
	lastWeek := time.Date(2024, 3, 2, 10, 0, 0, 0, loc) // 토요일, 이번 주(3/4~) 이전
	today := time.Date(2024, 3, 7, 10, 0, 0, 0, loc)

	record(t, store, "room1", "userA", lastMonth, 5)
	record(t, store, "room1", "userA", lastWeek, 2)
	record(t, store, "room1", "userA", today, 1)

	if lb := agg.Rank("room1", domain.WindowTotal, 10); lb.Entries[0].Count != 8 {
		t.Errorf("total count = %d, want 8", lb.Entries[0].Count)
	}
	if lb := agg.Rank("room1", domain.WindowMonth, 10); lb.Entries[0].Count != 3 {
		t.Errorf("month count = %d, want 3", lb.Entries[0].Count)
	}
	if lb := agg.Rank("room1", domain.WindowWeek, 10); lb.Entries[0].Count != 1 {
		t.Errorf("week count = %d, want 1", lb.Entries[0].Count)
	}
	if lb := agg.Rank("room1", domain.WindowToday, 10); lb.Entries[0].Count != 1 {
		t.Errorf("today count = %d, want 1", lb.Entries[0].Count)
	}
}

func TestRankExcludesBlockedUsers(t *testing.T) {
	agg, store, settingsSvc := newTestAggregator(t)
	loc := util.LoadLocation("Asia/Seoul")
	today := time.Date(2024, 3, 7, 10, 0, 0, 0, loc)

	record(t, store, "room1", "userA", today, 3)
	record(t, store, "room1", "userB", today, 2)
	record(t, store, "room1", "blocked", today, 10)

	if err := settingsSvc.BlockUser("blocked"); err != nil {
		t.Fatalf("block failed: %v", err)
	}

	lb := agg.Rank("room1", domain.WindowToday, 10)
	if len(lb.Entries) != 2 {
		t.Fatalf("expected blocked user excluded, got %+v", lb.Entries)
	}
	// 분모에서도 차단 사용자는 빠진다.
	if lb.Total != 5 {
		t.Errorf("total = %d, want 5", lb.Total)
	}
	if lb.Entries[0].Percent != 60.0 {
		t.Errorf("percent = %v, want 60", lb.Entries[0].Percent)
	}
}

func TestRankLimitClampAndMembers(t *testing.T) {
	agg, store, settingsSvc := newTestAggregator(t)
	loc := util.LoadLocation("Asia/Seoul")
	today := time.Date(2024, 3, 7, 10, 0, 0, 0, loc)

	record(t, store, "room1", "userA", today, 3)
	record(t, store, "room1", "userB", today, 2)
	record(t, store, "room1", "userC", today, 1)

	lb := agg.Rank("room1", domain.WindowToday, 2)
	if len(lb.Entries) != 2 {
		t.Fatalf("expected clamp to 2, got %d", len(lb.Entries))
	}
	if lb.Members != 3 {
		t.Errorf("members = %d, want 3", lb.Members)
	}
	// 비율 분모는 클램프 전의 전체 합
	if lb.Total != 6 {
		t.Errorf("total = %d, want 6", lb.Total)
	}
	if lb.Entries[0].Percent != 50.0 {
		t.Errorf("percent = %v, want 50", lb.Entries[0].Percent)
	}

	// limit 0은 설정 기본 크기 사용
	if err := settingsSvc.SetRankSize(1); err != nil {
		t.Fatalf("set rank size failed: %v", err)
	}
	lb = agg.Rank("room1", domain.WindowToday, 0)
	if len(lb.Entries) != 1 {
		t.Fatalf("expected settings-driven clamp to 1, got %d", len(lb.Entries))
	}
}

func TestRankEmptyWindow(t *testing.T) {
	agg, _, _ := newTestAggregator(t)

	lb := agg.Rank("room-empty", domain.WindowToday, 10)
	if !lb.IsEmpty() {
		t.Fatalf("expected empty leaderboard, got %+v", lb)
	}
	if lb.Total != 0 || lb.Members != 0 {
		t.Errorf("empty leaderboard totals: %+v", lb)
	}
}
