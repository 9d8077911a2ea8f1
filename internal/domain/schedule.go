package domain

// DisplayMode: 리더보드 출력 방식 (텍스트/이미지)
type DisplayMode string

// DisplayMode 상수 목록.
const (
	// DisplayText 는 상수다.
	DisplayText  DisplayMode = "text"
	DisplayImage DisplayMode = "image"
)

// IsValid 는 동작을 수행한다.
func (m DisplayMode) IsValid() bool {
	return m == DisplayText || m == DisplayImage
}

// MissedPolicy: 프로세스 중단 등으로 놓친 발송 시각의 처리 방식
type MissedPolicy string

// MissedPolicy 상수 목록.
const (
	// MissedCatchUp: 당일 발송 시각 이후 첫 틱에서 1회 발송
	MissedCatchUp MissedPolicy = "catch_up"
	// MissedSkip: 발송 시각과 일치하는 틱에서만 발송
	MissedSkip MissedPolicy = "skip"
)

// IsValid 는 동작을 수행한다.
func (p MissedPolicy) IsValid() bool {
	return p == MissedCatchUp || p == MissedSkip
}

// ScheduleGroup: 일일 푸시 대상 그룹별 설정
type ScheduleGroup struct {
	Mode      DisplayMode `json:"mode,omitempty"`      // 비어있으면 전역 기본값 사용
	LastFired string      `json:"lastFired,omitempty"` // 마지막 발송 날짜 키 ("2006-01-02")
}

// PushTrigger: 푸시 발송 트리거 종류
type PushTrigger string

// PushTrigger 상수 목록.
const (
	// TriggerScheduled 는 상수다.
	TriggerScheduled PushTrigger = "scheduled"
	TriggerManual    PushTrigger = "manual"
)
