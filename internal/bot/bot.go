// Package bot: 메시지 수신, 발언 집계, 명령어 실행을 잇는 봇 코어.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kapu/groupstats-kakao-bot-go/internal/adapter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/command"
	"github.com/kapu/groupstats-kakao-bot-go/internal/config"
	"github.com/kapu/groupstats-kakao-bot-go/internal/constants"
	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/iris"
	"github.com/kapu/groupstats-kakao-bot-go/internal/render"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/cache"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/counter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/nickname"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/push"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/rank"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/scheduler"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/settings"
	"github.com/kapu/groupstats-kakao-bot-go/internal/util"
	appErrors "github.com/kapu/groupstats-kakao-bot-go/pkg/errors"
)

// Bot: 그룹 발언 통계 봇의 핵심 상태와 의존성(서비스, 캐시, 핸들러 등)을 관리하는 메인 구조체
type Bot struct {
	config          *config.Config
	logger          *slog.Logger
	irisClient      iris.Client
	messageAdapter  *adapter.MessageAdapter
	formatter       *adapter.ResponseFormatter
	cache           *cache.Service
	counter         *counter.Store
	nicknames       *nickname.Cache
	settings        *settings.Service
	aggregator      *rank.Aggregator
	renderer        *render.Renderer
	pushCoordinator *push.Coordinator
	scheduler       *scheduler.Scheduler
	commandRegistry *command.Registry
	stopCh          chan struct{}
	doneCh          chan struct{}
	selfSender      string
}

// NewBot: 필요한 의존성(Dependencies)을 주입받아 새로운 Bot 인스턴스를 생성하고 초기화한다.
func NewBot(deps *Dependencies) (*Bot, error) {
	if deps == nil {
		return nil, fmt.Errorf("bot dependencies are required")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("config dependency is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger dependency is required")
	}
	if deps.Client == nil {
		return nil, fmt.Errorf("iris client dependency is required")
	}
	if deps.MessageAdapter == nil {
		return nil, fmt.Errorf("message adapter dependency is required")
	}
	if deps.Formatter == nil {
		return nil, fmt.Errorf("response formatter dependency is required")
	}
	if deps.Cache == nil {
		return nil, fmt.Errorf("cache dependency is required")
	}
	if deps.Counter == nil {
		return nil, fmt.Errorf("counter store dependency is required")
	}
	if deps.Nicknames == nil {
		return nil, fmt.Errorf("nickname cache dependency is required")
	}
	if deps.Settings == nil {
		return nil, fmt.Errorf("settings dependency is required")
	}
	if deps.Aggregator == nil {
		return nil, fmt.Errorf("aggregator dependency is required")
	}
	if deps.Renderer == nil {
		return nil, fmt.Errorf("renderer dependency is required")
	}
	if deps.Push == nil {
		return nil, fmt.Errorf("push coordinator dependency is required")
	}

	bot := &Bot{
		config:          deps.Config,
		logger:          deps.Logger,
		irisClient:      deps.Client,
		messageAdapter:  deps.MessageAdapter,
		formatter:       deps.Formatter,
		cache:           deps.Cache,
		counter:         deps.Counter,
		nicknames:       deps.Nicknames,
		settings:        deps.Settings,
		aggregator:      deps.Aggregator,
		renderer:        deps.Renderer,
		pushCoordinator: deps.Push,
		scheduler:       deps.Scheduler,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
		selfSender:      util.Normalize(deps.Config.Bot.SelfUser),
	}

	bot.initializeCommands()

	return bot, nil
}

func (b *Bot) initializeCommands() {
	registry := command.NewRegistry()
	b.commandRegistry = registry

	deps := &command.Dependencies{
		Counter:     b.counter,
		Aggregator:  b.aggregator,
		Nicknames:   b.nicknames,
		Settings:    b.settings,
		Push:        b.pushCoordinator,
		Renderer:    b.renderer,
		Formatter:   b.formatter,
		SendMessage: b.sendMessage,
		SendImage:   b.sendImage,
		SendError:   b.sendError,
		Logger:      b.logger,
	}

	deps.Dispatcher = command.NewSequentialDispatcher(registry, b.normalizeCommand)

	commandsList := []command.Command{
		command.NewHelpCommand(deps),
		command.NewRankCommand(deps),
		command.NewConfigCommand(deps),
		command.NewClearCommand(deps),
		command.NewCacheCommand(deps),
		command.NewPushCommand(deps),
	}

	for _, cmd := range commandsList {
		registry.Register(cmd)
	}

	b.logger.Info("Commands initialized", slog.Int("count", registry.Count()))
}

// Start: 봇 서비스를 시작한다. Valkey/Iris 연결 확인과 스케줄러 기동을 수행하며
// Context가 종료될 때까지 대기한다.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting group stats bot...")

	if err := b.cache.WaitUntilReady(ctx, constants.ValkeyConfig.ReadyTimeout); err != nil {
		return fmt.Errorf("valkey connection timeout: %w", err)
	}
	b.logger.Info("Valkey connected")

	if !b.irisClient.Ping(ctx) {
		return fmt.Errorf("iris server connection failed")
	}
	b.logger.Info("Iris server connected")

	if b.scheduler != nil {
		b.scheduler.Start()
	}

	b.logger.Info("Bot started successfully")

	select {
	case <-ctx.Done():
		b.logger.Info("Context canceled, shutting down...")
		return fmt.Errorf("context canceled: %w", ctx.Err())
	case <-b.stopCh:
		b.logger.Info("Stop signal received")
		return nil
	}
}

// HandleMessage: Iris webhook으로부터 수신한 메시지를 처리합니다.
// 그룹 메시지는 명령어 여부와 무관하게 먼저 발언 수로 집계된다.
func (b *Bot) HandleMessage(ctx context.Context, message *iris.Message) {
	commandType := "unknown"

	chatID := message.Room
	if message.JSON != nil && message.JSON.ChatID != "" {
		chatID = message.JSON.ChatID
	}
	roomName := message.Room

	userID := "unknown"
	userName := userID
	if message.JSON != nil && message.JSON.UserID != "" {
		userID = message.JSON.UserID
		userName = userID
	}
	if message.Sender != nil {
		userName = *message.Sender
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic in handleMessage",
				slog.Any("panic", r),
				slog.String("command", commandType),
			)
		}
	}()

	if b.isSelfSender(userName) {
		b.logger.Debug("Skipping self-issued message",
			slog.String("user", userName),
			slog.String("room", chatID),
		)
		return
	}

	b.recordActivity(ctx, chatID, userID)

	parsed := b.messageAdapter.ParseMessage(message)
	commandType = parsed.Type.String()

	if parsed.Type == domain.CommandUnknown {
		return // 일반 대화는 집계만 하고 무시한다.
	}

	b.logger.Info("Command received",
		slog.String("raw", parsed.RawMessage),
		slog.String("type", commandType),
		slog.String("user_id", userID),
		slog.String("user_name", userName),
		slog.String("room", chatID),
		slog.String("room_name", roomName),
	)

	cmdCtx := domain.NewCommandContext(chatID, roomName, userID, userName, message.Msg, true)

	if err := b.executeCommand(ctx, cmdCtx, parsed.Type, parsed.Params); err != nil {
		b.logger.Error("Failed to execute command", slog.Any("error", err))
		errorMsg := b.getErrorMessage(err, commandType)
		if chatID != "" {
			_ = b.sendError(ctx, chatID, errorMsg)
		}
	}
}

// recordActivity: 발언 1건을 집계한다. 영속화 실패는 집계를 막지 않으며 경고로만 남긴다.
func (b *Bot) recordActivity(ctx context.Context, chatID, userID string) {
	if chatID == "" || userID == "" || userID == "unknown" {
		return
	}

	if _, err := b.counter.Increment(ctx, chatID, userID, time.Now()); err != nil {
		var persistErr *appErrors.PersistenceError
		if errors.As(err, &persistErr) {
			b.logger.Warn("Activity persisted in memory only",
				slog.String("room", chatID),
				slog.String("user", userID),
				slog.Any("error", err),
			)
			return
		}
		b.logger.Error("Failed to record activity",
			slog.String("room", chatID),
			slog.String("user", userID),
			slog.Any("error", err),
		)
	}
}

func (b *Bot) executeCommand(ctx context.Context, cmdCtx *domain.CommandContext, cmdType domain.CommandType, params map[string]any) error {
	if b.commandRegistry == nil {
		return fmt.Errorf("command registry is not initialized")
	}

	key, normalizedParams := b.normalizeCommand(cmdType, params)

	if err := b.commandRegistry.Execute(ctx, cmdCtx, key, normalizedParams); err != nil {
		if errors.Is(err, command.ErrUnknownCommand) {
			b.logger.Warn("Unknown command", slog.String("type", cmdType.String()))
			if sendErr := b.sendMessage(ctx, cmdCtx.Room, adapter.ErrUnknownCommand); sendErr != nil {
				return fmt.Errorf("failed to send unknown command message: %w", sendErr)
			}
			return nil
		}
		return fmt.Errorf("execute command: %w", err)
	}

	return nil
}

func (b *Bot) normalizeCommand(cmdType domain.CommandType, params map[string]any) (string, map[string]any) {
	typeStr := util.Normalize(cmdType.String())

	if strings.HasPrefix(typeStr, "cache_") {
		action := strings.TrimPrefix(typeStr, "cache_")
		newParams := make(map[string]any)
		for k, v := range params {
			newParams[k] = v
		}
		newParams["action"] = action
		return "cache", newParams
	}

	return typeStr, params
}

func (b *Bot) isSelfSender(sender string) bool {
	canonical := util.Normalize(sender)
	if canonical == "" || b.selfSender == "" {
		return false
	}
	return canonical == b.selfSender
}

func (b *Bot) sendMessage(ctx context.Context, room, message string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout.BotCommand)
	defer cancel()

	if err := b.irisClient.SendMessage(ctx, room, message); err != nil {
		serviceErr := appErrors.NewServiceError("iris", "send_message", err)
		return fmt.Errorf("failed to send message to room %s: %w", room, serviceErr)
	}
	return nil
}

func (b *Bot) sendImage(ctx context.Context, room, imageBase64 string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout.BotCommand)
	defer cancel()

	if err := b.irisClient.SendImage(ctx, room, imageBase64); err != nil {
		serviceErr := appErrors.NewServiceError("iris", "send_image", err)
		return fmt.Errorf("failed to send image to room %s: %w", room, serviceErr)
	}
	return nil
}

func (b *Bot) sendError(ctx context.Context, room, errorMsg string) error {
	message := b.formatter.FormatError(errorMsg)
	if err := b.sendMessage(ctx, room, message); err != nil {
		return fmt.Errorf("failed to send error message: %w", err)
	}
	return nil
}

func (b *Bot) getErrorMessage(err error, commandType string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()

	// 서비스 에러 체크 (Iris 연결 실패)
	var serviceErr *appErrors.ServiceError
	if errors.As(err, &serviceErr) && strings.EqualFold(serviceErr.Service, "iris") {
		return adapter.ErrIrisConnectionFailed
	}

	var deliveryErr *appErrors.DeliveryError
	if errors.As(err, &deliveryErr) {
		return adapter.ErrIrisConnectionFailed
	}

	var directoryErr *appErrors.DirectoryError
	if errors.As(err, &directoryErr) {
		return adapter.ErrCacheRefreshFailed
	}

	var cacheErr *appErrors.CacheError
	if errors.As(err, &cacheErr) {
		return adapter.ErrCacheConnectionFailed
	}

	// 유효성 검사 에러는 원문 그대로 안내한다.
	var validationErr *appErrors.ValidationError
	if errors.As(err, &validationErr) {
		return msg
	}

	if strings.Contains(msg, "Valkey") || strings.Contains(msg, "cache") {
		return adapter.ErrCacheConnectionFailed
	}

	return fmt.Sprintf(adapter.ErrCommandProcessingFailed, commandType)
}

// Shutdown: 봇의 리소스를 정리하고 실행 중인 작업(스케줄러 등)을 안전하게 종료한다.
func (b *Bot) Shutdown(ctx context.Context) error {
	b.logger.Info("Shutting down bot...")

	if b.scheduler != nil {
		b.scheduler.Stop()
	}

	if b.cache != nil {
		if err := b.cache.Close(); err != nil {
			b.logger.Warn("Error closing cache", slog.Any("error", err))
		}
	}

	b.logger.Info("Bot shutdown complete")
	close(b.doneCh)
	return nil
}

// Stop: Start 대기 루프를 해제한다.
func (b *Bot) Stop() {
	close(b.stopCh)
}
