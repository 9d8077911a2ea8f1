package adapter

import "fmt"

// UIEmoji: 사용자 메시지에 사용하는 이모지 모음입니다.
type UIEmoji struct {
	Brand   string
	Success string
	Error   string
	Hint    string
	Time    string
	Stats   string
	Member  string
	Push    string
	Cache   string
}

// DefaultEmoji: 모든 사용자 메시지에 사용되는 이모지 단일 정의다.
var DefaultEmoji = UIEmoji{
	Brand:   "📊",
	Success: "✅",
	Error:   "❌",
	Hint:    "💡",
	Time:    "⏰",
	Stats:   "📊",
	Member:  "👥",
	Push:    "📬",
	Cache:   "🗂",
}

// ErrorMessage: 에러 메시지를 생성합니다.
func ErrorMessage(message string) string {
	return fmt.Sprintf("%s %s", DefaultEmoji.Error, message)
}

// SuccessMessage: 성공 메시지를 생성합니다.
func SuccessMessage(message string) string {
	return fmt.Sprintf("%s %s", DefaultEmoji.Success, message)
}

// 에러/안내 메시지 상수
const (
	// Rank 관련
	ErrUnknownWindow   = "알 수 없는 집계 범위입니다. (전체/오늘/주간/월간)"
	ErrRankQueryFailed = "랭킹 조회 중 오류가 발생했습니다."
	MsgNoRankData      = "아직 기록된 발언이 없습니다."
	MsgRankCleared     = "이 그룹의 발언 기록을 모두 초기화했습니다."

	// 설정 관련
	ErrInvalidRankSize     = "랭킹 크기는 %d~%d 사이여야 합니다."
	ErrInvalidDisplayMode  = "출력 방식은 텍스트 또는 이미지여야 합니다."
	ErrSettingsSaveFailed  = "설정 저장 중 오류가 발생했습니다."
	ErrUnknownConfigAction = "지원하지 않는 설정 항목입니다.\n예) !랭킹설정 크기 20"

	// 캐시 관련
	ErrCacheRefreshFailed = "멤버 캐시 갱신에 실패했습니다. 잠시 후 다시 시도해주세요."
	MsgCacheRefreshed     = "멤버 캐시를 갱신했습니다. (%d명)"

	// 푸시 관련
	ErrPushFailed           = "푸시 발송 중 오류가 발생했습니다."
	ErrInvalidScheduleTime  = "시간 형식이 올바르지 않습니다. (예: 21:00)"
	ErrGroupNotScheduled    = "이 그룹은 푸시 대상이 아닙니다."
	MsgPushSent             = "오늘의 랭킹을 발송했습니다."
	MsgScheduleTimeSet      = "푸시 시각을 %s로 설정했습니다."
	MsgScheduleGroupAdded   = "이 그룹을 푸시 대상에 추가했습니다."
	MsgScheduleGroupExists  = "이미 푸시 대상인 그룹입니다."
	MsgScheduleGroupRemoved = "이 그룹을 푸시 대상에서 제거했습니다."
	MsgScheduleEnabled      = "일일 푸시를 켰습니다."
	MsgScheduleDisabled     = "일일 푸시를 껐습니다."
	MsgScheduleModeSet      = "이 그룹의 푸시 출력 방식을 %s(으)로 설정했습니다."

	// Bot 공통 에러/안내 메시지
	ErrUnknownCommand          = "죄송합니다. 요청하신 기능을 이해하지 못했습니다.\n!도움 명령어로 사용 가능한 기능을 확인하세요."
	ErrCommandProcessingFailed = "%s 명령어 처리 중 오류가 발생했습니다."
	ErrCacheConnectionFailed   = "데이터베이스 연결 오류입니다. 관리자에게 문의하세요."
	ErrIrisConnectionFailed    = "Iris 서버 연결 오류입니다. 서버 상태를 확인해주세요."
	ErrDirectoryUnavailable    = "멤버 정보를 불러오지 못해 ID로 표시합니다."
)
