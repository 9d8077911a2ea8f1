package adapter

import (
	"fmt"
	"strings"

	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/nickname"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/settings"
	"github.com/kapu/groupstats-kakao-bot-go/internal/util"
)

// 상위 3위 메달
var rankMedals = []string{"🥇", "🥈", "🥉"}

// ResponseFormatter: 봇의 응답 메시지를 생성하는 포맷터
type ResponseFormatter struct {
	prefix string
}

// NewResponseFormatter: 새로운 ResponseFormatter 인스턴스를 생성한다.
func NewResponseFormatter(prefix string) *ResponseFormatter {
	if util.TrimSpace(prefix) == "" {
		prefix = "!"
	}
	return &ResponseFormatter{prefix: prefix}
}

// Prefix: 현재 설정된 명령어 접두사를 반환한다.
func (f *ResponseFormatter) Prefix() string {
	if f == nil {
		return "!"
	}
	if trimmed := util.TrimSpace(f.prefix); trimmed != "" {
		return trimmed
	}
	return "!"
}

// FormatError: 에러 메시지를 사용자 친화적인 포맷으로 변환한다.
func (f *ResponseFormatter) FormatError(message string) string {
	return ErrorMessage(message)
}

// FormatLeaderboard: 리더보드를 텍스트 메시지로 변환한다.
func (f *ResponseFormatter) FormatLeaderboard(lb *domain.Leaderboard) string {
	if lb.IsEmpty() {
		return fmt.Sprintf("%s %s %s 랭킹\n\n%s",
			DefaultEmoji.Stats, displayGroupName(lb), lb.Window.Label(), MsgNoRankData)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s 랭킹\n", DefaultEmoji.Stats, displayGroupName(lb), lb.Window.Label())
	fmt.Fprintf(&sb, "🗓 %s · 총 %s회 · %d명\n\n",
		lb.GeneratedAt.Format(util.DayKeyLayout), util.FormatKoreanNumber(lb.Total), lb.Members)

	for _, entry := range lb.Entries {
		fmt.Fprintf(&sb, "%s %s — %s회 (%.1f%%)\n",
			rankBadge(entry.Rank), entry.Nickname, util.FormatKoreanNumber(entry.Count), entry.Percent)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// FormatCacheStatus: 멤버 캐시 상태를 메시지로 변환한다.
func (f *ResponseFormatter) FormatCacheStatus(groupName string, status nickname.Status) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s 멤버 캐시\n\n", DefaultEmoji.Cache, groupName)
	fmt.Fprintf(&sb, "%s 항목: %d개 (확정 %d · 갱신 필요 %d · 미확인 %d)\n",
		DefaultEmoji.Member, status.Entries, status.Resolved, status.Stale, status.Unresolved)

	if status.RefreshedAt.IsZero() {
		sb.WriteString("⏳ 전체 갱신 이력이 없습니다.")
	} else {
		fmt.Fprintf(&sb, "%s 마지막 갱신: %s",
			DefaultEmoji.Time, status.RefreshedAt.Format("2006-01-02 15:04"))
	}

	fmt.Fprintf(&sb, "\n\n%s %s캐시갱신 명령어로 즉시 갱신할 수 있습니다.", DefaultEmoji.Hint, f.Prefix())
	return sb.String()
}

// FormatScheduleStatus: 일일 푸시 스케줄 상태를 메시지로 변환한다.
func (f *ResponseFormatter) FormatScheduleStatus(schedule settings.ScheduleSettings, defaultMode domain.DisplayMode, currentGroup string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s 일일 랭킹 푸시\n\n", DefaultEmoji.Push)

	if schedule.Enabled {
		fmt.Fprintf(&sb, "%s 상태: 켜짐 (매일 %02d:%02d)\n", DefaultEmoji.Success, schedule.Hour, schedule.Minute)
	} else {
		fmt.Fprintf(&sb, "%s 상태: 꺼짐\n", DefaultEmoji.Error)
	}
	fmt.Fprintf(&sb, "📦 놓친 발송 처리: %s\n", missedPolicyLabel(schedule.MissedPolicy))
	fmt.Fprintf(&sb, "%s 대상 그룹: %d개\n", DefaultEmoji.Member, len(schedule.Groups))

	if group, ok := schedule.Groups[currentGroup]; ok {
		mode := group.Mode
		if mode == "" {
			mode = defaultMode
		}
		sb.WriteString("\n이 그룹은 푸시 대상입니다.\n")
		fmt.Fprintf(&sb, "출력 방식: %s\n", displayModeLabel(mode))
		if group.LastFired != "" {
			fmt.Fprintf(&sb, "마지막 발송: %s\n", group.LastFired)
		} else {
			sb.WriteString("마지막 발송: 없음\n")
		}
	} else {
		fmt.Fprintf(&sb, "\n이 그룹은 푸시 대상이 아닙니다.\n%s %s푸시 추가 명령어로 등록하세요.\n", DefaultEmoji.Hint, f.Prefix())
	}

	return strings.TrimRight(sb.String(), "\n")
}

// FormatPushUsage: 푸시 명령어 사용법을 반환한다.
func (f *ResponseFormatter) FormatPushUsage() string {
	p := f.Prefix()
	return strings.Join([]string{
		DefaultEmoji.Push + " 푸시 명령어 사용법",
		"",
		p + "푸시 — 현재 스케줄 상태",
		p + "푸시 지금 — 오늘 랭킹 즉시 발송",
		p + "푸시 시간 21:00 — 발송 시각 변경",
		p + "푸시 추가 / " + p + "푸시 제거 — 이 그룹 등록/해제",
		p + "푸시 켜기 / " + p + "푸시 끄기 — 전체 스케줄 on/off",
		p + "푸시 모드 이미지 — 이 그룹 출력 방식 변경",
		p + "푸시 정책 건너뛰기 — 놓친 발송 처리 방식 변경",
	}, "\n")
}

// FormatConfigStatus: 현재 랭킹 설정을 메시지로 변환한다.
func (f *ResponseFormatter) FormatConfigStatus(rankSize int, mode domain.DisplayMode, blocked []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s 랭킹 설정\n\n", DefaultEmoji.Brand)
	fmt.Fprintf(&sb, "크기: %d명\n", rankSize)
	fmt.Fprintf(&sb, "출력 방식: %s\n", displayModeLabel(mode))
	fmt.Fprintf(&sb, "차단 사용자: %d명", len(blocked))
	return sb.String()
}

// FormatHelp: 전체 명령어 도움말을 반환한다.
func (f *ResponseFormatter) FormatHelp() string {
	p := f.Prefix()
	return strings.Join([]string{
		DefaultEmoji.Brand + " 발언 랭킹 봇 명령어",
		"",
		p + "랭킹 [전체|오늘|주간|월간] [N] — 발언 랭킹 조회",
		p + "랭킹설정 — 랭킹 크기/출력/차단 설정",
		p + "랭킹초기화 — 이 그룹의 기록 초기화",
		p + "캐시갱신 — 멤버 닉네임 캐시 갱신",
		p + "캐시상태 — 멤버 캐시 상태 확인",
		p + "푸시 — 일일 랭킹 푸시 관리",
		"",
		DefaultEmoji.Hint + " 예) " + p + "랭킹 주간 10",
	}, "\n")
}

func rankBadge(rank int) string {
	if rank >= 1 && rank <= len(rankMedals) {
		return rankMedals[rank-1]
	}
	return fmt.Sprintf("%d.", rank)
}

func displayGroupName(lb *domain.Leaderboard) string {
	if lb.GroupName != "" {
		return lb.GroupName
	}
	return lb.Group
}

func displayModeLabel(mode domain.DisplayMode) string {
	if mode == domain.DisplayImage {
		return "이미지"
	}
	return "텍스트"
}

func missedPolicyLabel(policy domain.MissedPolicy) string {
	if policy == domain.MissedSkip {
		return "건너뛰기"
	}
	return "당일 내 보충 발송"
}
