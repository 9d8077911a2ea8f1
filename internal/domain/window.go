package domain

import (
	"time"

	"github.com/kapu/groupstats-kakao-bot-go/internal/util"
)

// Window: 랭킹 집계 범위 (전체/오늘/주간/월간)
type Window string

// Window 상수 목록.
const (
	// WindowTotal 는 상수다.
	WindowTotal Window = "total"
	WindowToday Window = "today"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
)

func (w Window) String() string {
	return string(w)
}

// IsValid 는 동작을 수행한다.
func (w Window) IsValid() bool {
	switch w {
	case WindowTotal, WindowToday, WindowWeek, WindowMonth:
		return true
	default:
		return false
	}
}

// Label: 사용자 표시용 한국어 레이블을 반환한다.
func (w Window) Label() string {
	switch w {
	case WindowToday:
		return "오늘"
	case WindowWeek:
		return "주간"
	case WindowMonth:
		return "월간"
	default:
		return "전체"
	}
}

// 키워드 > Window 매핑
var windowKeywords = map[string]Window{
	"전체": WindowTotal, "누적": WindowTotal, "total": WindowTotal, "all": WindowTotal,
	"오늘": WindowToday, "일간": WindowToday, "today": WindowToday, "daily": WindowToday,
	"주간": WindowWeek, "week": WindowWeek, "weekly": WindowWeek,
	"월간": WindowMonth, "month": WindowMonth, "monthly": WindowMonth,
}

// ParseWindow: 사용자 입력 키워드를 Window로 파싱한다.
// 빈 입력은 전체 범위를, 알 수 없는 키워드는 ok=false를 반환한다.
func ParseWindow(raw string) (Window, bool) {
	token := util.Normalize(raw)
	if token == "" {
		return WindowTotal, true
	}
	if w, ok := windowKeywords[token]; ok {
		return w, true
	}
	return WindowTotal, false
}

// StartDay: 집계 범위에 포함되는 가장 이른 날짜 키를 반환한다.
// 전체 범위는 하한이 없으므로 ok=false를 반환한다.
func (w Window) StartDay(now time.Time, loc *time.Location, weekStart time.Weekday) (string, bool) {
	switch w {
	case WindowToday:
		return util.DayKey(now, loc), true
	case WindowWeek:
		return util.DayKey(util.StartOfWeek(now, loc, weekStart), loc), true
	case WindowMonth:
		return util.DayKey(util.StartOfMonth(now, loc), loc), true
	default:
		return "", false
	}
}
