package command

import (
	"context"

	"log/slog"

	"github.com/kapu/groupstats-kakao-bot-go/internal/adapter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/render"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/counter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/nickname"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/rank"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/settings"
)

// Command: 봇 명령어를 처리하는 인터페이스 정의 (이름, 설명, 실행 로직)
type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error
}

// Event: 명령어 실행 이벤트 정보 (타입 및 파라미터 포함)
type Event struct {
	Type   domain.CommandType
	Params map[string]any
}

// Dispatcher: 명령어 이벤트를 발행하여 적절한 처리기로 전달하는 인터페이스
type Dispatcher interface {
	Publish(ctx context.Context, cmdCtx *domain.CommandContext, events ...Event) (int, error)
}

// Pusher: 즉시 푸시 발송 인터페이스. (push.Coordinator가 구현)
type Pusher interface {
	Push(ctx context.Context, group string, trigger domain.PushTrigger) error
}

// Dependencies: 명령어 실행에 필요한 서비스(카운터, 집계기, 캐시 등) 및 유틸리티 의존성 모음
type Dependencies struct {
	Counter     *counter.Store
	Aggregator  *rank.Aggregator
	Nicknames   *nickname.Cache
	Settings    *settings.Service
	Push        Pusher
	Renderer    *render.Renderer
	Formatter   *adapter.ResponseFormatter
	SendMessage func(ctx context.Context, room, message string) error
	SendImage   func(ctx context.Context, room, imageBase64 string) error
	SendError   func(ctx context.Context, room, message string) error
	Dispatcher  Dispatcher
	Logger      *slog.Logger
}
