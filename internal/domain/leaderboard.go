package domain

import "time"

// RankEntry: 리더보드의 한 행 (순위, 사용자, 발언 수, 비율)
type RankEntry struct {
	Rank     int     `json:"rank"`
	UserID   string  `json:"userId"`
	Nickname string  `json:"nickname"`
	Count    int64   `json:"count"`
	Percent  float64 `json:"percent"` // 차단 사용자 제외 전체 대비 비율 (%)
}

// Leaderboard: 특정 그룹/범위의 집계 결과
type Leaderboard struct {
	Group       string      `json:"group"`
	GroupName   string      `json:"groupName,omitempty"`
	Window      Window      `json:"window"`
	Entries     []RankEntry `json:"entries"`
	Total       int64       `json:"total"`   // 차단 사용자 제외 범위 내 전체 발언 수
	Members     int         `json:"members"` // 범위 내 발언자 수 (클램프 전)
	GeneratedAt time.Time   `json:"generatedAt"`
}

// IsEmpty: 집계 결과에 표시할 항목이 없는지 확인한다.
func (l *Leaderboard) IsEmpty() bool {
	return l == nil || len(l.Entries) == 0
}
