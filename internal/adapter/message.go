package adapter

import (
	"strconv"
	"strings"

	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/iris"
	"github.com/kapu/groupstats-kakao-bot-go/internal/util"
)

// ParsedCommand: 수신 메시지에서 추출한 명령어 타입과 파라미터
type ParsedCommand struct {
	Type       domain.CommandType
	Params     map[string]any
	RawMessage string
}

// MessageAdapter: Iris 원본 메시지를 봇 명령어로 해석하는 어댑터
type MessageAdapter struct {
	prefix string
}

// NewMessageAdapter: 새로운 MessageAdapter 인스턴스를 생성한다.
func NewMessageAdapter(prefix string) *MessageAdapter {
	if util.TrimSpace(prefix) == "" {
		prefix = "!"
	}
	return &MessageAdapter{prefix: prefix}
}

// ParseMessage: 메시지를 명령어로 파싱한다. 접두사가 없거나 모르는 키워드면
// CommandUnknown을 반환한다.
func (a *MessageAdapter) ParseMessage(message *iris.Message) *ParsedCommand {
	unknown := &ParsedCommand{Type: domain.CommandUnknown, Params: map[string]any{}, RawMessage: message.Msg}

	text := util.TrimSpace(message.Msg)
	if !strings.HasPrefix(text, a.prefix) {
		return unknown
	}

	fields := strings.Fields(strings.TrimPrefix(text, a.prefix))
	if len(fields) == 0 {
		return unknown
	}

	keyword := util.Normalize(fields[0])
	args := fields[1:]

	switch keyword {
	case "랭킹", "발언순위", "순위", "rank", "ranking":
		return &ParsedCommand{Type: domain.CommandRank, Params: parseRankArgs(args, ""), RawMessage: text}
	case "오늘랭킹":
		return &ParsedCommand{Type: domain.CommandRank, Params: parseRankArgs(args, "오늘"), RawMessage: text}
	case "주간랭킹":
		return &ParsedCommand{Type: domain.CommandRank, Params: parseRankArgs(args, "주간"), RawMessage: text}
	case "월간랭킹":
		return &ParsedCommand{Type: domain.CommandRank, Params: parseRankArgs(args, "월간"), RawMessage: text}
	case "랭킹설정", "설정":
		return &ParsedCommand{Type: domain.CommandRankConfig, Params: parseActionArgs(args), RawMessage: text}
	case "랭킹초기화", "초기화":
		return &ParsedCommand{Type: domain.CommandRankClear, Params: map[string]any{}, RawMessage: text}
	case "캐시갱신":
		return &ParsedCommand{Type: domain.CommandCacheRefresh, Params: map[string]any{}, RawMessage: text}
	case "캐시상태":
		return &ParsedCommand{Type: domain.CommandCacheStatus, Params: map[string]any{}, RawMessage: text}
	case "푸시", "push":
		return &ParsedCommand{Type: domain.CommandPush, Params: parseActionArgs(args), RawMessage: text}
	case "도움", "도움말", "help":
		return &ParsedCommand{Type: domain.CommandHelp, Params: map[string]any{}, RawMessage: text}
	default:
		return unknown
	}
}

// parseRankArgs: "[범위] [개수]" 또는 "[개수]" 형태의 인자를 해석한다.
func parseRankArgs(args []string, window string) map[string]any {
	params := map[string]any{}
	if window != "" {
		params["window"] = window
	}

	for _, arg := range args {
		if n, err := strconv.Atoi(arg); err == nil {
			params["limit"] = n
			continue
		}
		if _, hasWindow := params["window"]; !hasWindow {
			params["window"] = arg
		}
	}
	return params
}

// parseActionArgs: "동작 [값...]" 형태의 인자를 해석한다. 값은 공백으로 합친다.
func parseActionArgs(args []string) map[string]any {
	params := map[string]any{}
	if len(args) == 0 {
		return params
	}
	params["action"] = args[0]
	if len(args) > 1 {
		params["value"] = strings.Join(args[1:], " ")
	}
	return params
}
