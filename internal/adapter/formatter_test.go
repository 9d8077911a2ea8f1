package adapter

import (
	"strings"
	"testing"
	"time"

	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/settings"
)

func TestFormatLeaderboard(t *testing.T) {
	f := NewResponseFormatter("!")
	lb := &domain.Leaderboard{
		Group:     "room1",
		GroupName: "우리 모임",
		Window:    domain.WindowToday,
		Entries: []domain.RankEntry{
			{Rank: 1, UserID: "u1", Nickname: "철수", Count: 3, Percent: 60},
			{Rank: 2, UserID: "u2", Nickname: "영희", Count: 2, Percent: 40},
		},
		Total:       5,
		Members:     2,
		GeneratedAt: time.Date(2024, 3, 7, 21, 0, 0, 0, time.UTC),
	}

	got := f.FormatLeaderboard(lb)
	for _, want := range []string{"우리 모임", "오늘 랭킹", "총 5회", "2명", "🥇 철수 — 3회 (60.0%)", "🥈 영희 — 2회 (40.0%)"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatted leaderboard missing %q:\n%s", want, got)
		}
	}
}

func TestFormatLeaderboardEmpty(t *testing.T) {
	f := NewResponseFormatter("!")
	lb := &domain.Leaderboard{Group: "room1", Window: domain.WindowWeek}

	got := f.FormatLeaderboard(lb)
	if !strings.Contains(got, MsgNoRankData) {
		t.Errorf("empty leaderboard should show no-data message:\n%s", got)
	}
}

func TestRankBadge(t *testing.T) {
	cases := map[int]string{1: "🥇", 2: "🥈", 3: "🥉", 4: "4.", 10: "10."}
	for rank, want := range cases {
		if got := rankBadge(rank); got != want {
			t.Errorf("rankBadge(%d) = %s, want %s", rank, got, want)
		}
	}
}

func TestFormatScheduleStatus(t *testing.T) {
	f := NewResponseFormatter("!")
	schedule := settings.ScheduleSettings{
		Enabled:      true,
		Hour:         21,
		Minute:       30,
		MissedPolicy: domain.MissedCatchUp,
		Groups: map[string]*domain.ScheduleGroup{
			"room1": {Mode: domain.DisplayImage, LastFired: "2024-03-07"},
		},
	}

	got := f.FormatScheduleStatus(schedule, domain.DisplayText, "room1")
	for _, want := range []string{"켜짐 (매일 21:30)", "이미지", "2024-03-07"} {
		if !strings.Contains(got, want) {
			t.Errorf("schedule status missing %q:\n%s", want, got)
		}
	}

	got = f.FormatScheduleStatus(schedule, domain.DisplayText, "room2")
	if !strings.Contains(got, "푸시 대상이 아닙니다") {
		t.Errorf("unscheduled group should show registration hint:\n%s", got)
	}
}

func TestPrefixFallback(t *testing.T) {
	if got := NewResponseFormatter("  ").Prefix(); got != "!" {
		t.Errorf("prefix fallback = %s, want !", got)
	}
	if got := NewResponseFormatter("/").Prefix(); got != "/" {
		t.Errorf("prefix = %s, want /", got)
	}
}
