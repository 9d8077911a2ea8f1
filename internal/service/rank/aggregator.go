// Package rank: 카운터 저장소의 원본 수치를 리더보드로 집계한다.
package rank

import (
	"log/slog"
	"sort"
	"time"

	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/counter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/settings"
	"github.com/kapu/groupstats-kakao-bot-go/internal/util"
)

// Aggregator: 범위별 리더보드 집계기.
// 비율은 차단 사용자를 제외한 범위 내 전체 발언 수 기준으로 계산한다.
type Aggregator struct {
	store     *counter.Store
	settings  *settings.Service
	loc       *time.Location
	weekStart time.Weekday
	now       func() time.Time
	logger    *slog.Logger
}

// NewAggregator 는 동작을 수행한다.
func NewAggregator(store *counter.Store, settingsSvc *settings.Service, loc *time.Location, weekStart time.Weekday, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		store:     store,
		settings:  settingsSvc,
		loc:       loc,
		weekStart: weekStart,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock: 테스트를 위해 시간 소스를 교체한다.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Rank: 그룹의 리더보드를 집계한다. limit이 0 이하이면 설정된 기본 크기를 사용한다.
// 발언이 없는 범위는 빈 리더보드를 반환한다.
func (a *Aggregator) Rank(group string, window domain.Window, limit int) *domain.Leaderboard {
	now := a.now()
	startDay, bounded := window.StartDay(now, a.loc, a.weekStart)

	counts := a.store.WindowCounts(group, startDay, bounded)

	// 차단 사용자 제외. 비율 분모는 제외 후의 전체 발언 수다.
	filtered := counts[:0:0]
	var total int64
	for _, c := range counts {
		if a.settings.IsBlocked(c.UserID) {
			continue
		}
		filtered = append(filtered, c)
		total += c.Count
	}

	// 발언 수 내림차순, 동률은 최초 발언 순서 유지
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Count > filtered[j].Count
	})

	if limit <= 0 {
		limit = a.settings.RankSize()
	}
	clamped := filtered
	if len(clamped) > limit {
		clamped = clamped[:limit]
	}

	entries := make([]domain.RankEntry, 0, len(clamped))
	for i, c := range clamped {
		entries = append(entries, domain.RankEntry{
			Rank:    i + 1,
			UserID:  c.UserID,
			Count:   c.Count,
			Percent: util.Percent(c.Count, total),
		})
	}

	return &domain.Leaderboard{
		Group:       group,
		Window:      window,
		Entries:     entries,
		Total:       total,
		Members:     len(filtered),
		GeneratedAt: now,
	}
}
