package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/kapu/groupstats-kakao-bot-go/internal/adapter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/constants"
	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/util"
	pkgerrors "github.com/kapu/groupstats-kakao-bot-go/pkg/errors"
)

// ConfigCommand 는 타입이다.
type ConfigCommand struct {
	BaseCommand
}

// NewConfigCommand 는 동작을 수행한다.
func NewConfigCommand(deps *Dependencies) *ConfigCommand {
	return &ConfigCommand{BaseCommand: NewBaseCommand(deps)}
}

// Name 는 동작을 수행한다.
func (c *ConfigCommand) Name() string {
	return "rank_config"
}

// Description 는 동작을 수행한다.
func (c *ConfigCommand) Description() string {
	return "랭킹 크기/출력 방식/차단 목록 설정"
}

// Execute 는 동작을 수행한다.
func (c *ConfigCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	if err := c.ensureDeps(); err != nil {
		return err
	}

	action, _ := params["action"].(string)
	value, _ := params["value"].(string)

	switch util.Normalize(action) {
	case "":
		return c.showStatus(ctx, cmdCtx)
	case "크기", "size":
		return c.setSize(ctx, cmdCtx, value)
	case "모드", "출력", "mode":
		return c.setMode(ctx, cmdCtx, value)
	case "차단", "block":
		return c.blockUser(ctx, cmdCtx, value)
	case "차단해제", "unblock":
		return c.unblockUser(ctx, cmdCtx, value)
	default:
		return c.Deps().SendError(ctx, cmdCtx.Room, adapter.ErrUnknownConfigAction)
	}
}

func (c *ConfigCommand) showStatus(ctx context.Context, cmdCtx *domain.CommandContext) error {
	message := c.Deps().Formatter.FormatConfigStatus(
		c.Deps().Settings.RankSize(),
		c.Deps().Settings.DisplayMode(),
		c.Deps().Settings.BlockedUsers(),
	)
	return c.Deps().SendMessage(ctx, cmdCtx.Room, message)
}

func (c *ConfigCommand) setSize(ctx context.Context, cmdCtx *domain.CommandContext, value string) error {
	size, err := strconv.Atoi(util.TrimSpace(value))
	if err != nil {
		return c.Deps().SendError(ctx, cmdCtx.Room,
			fmt.Sprintf(adapter.ErrInvalidRankSize, constants.RankingConfig.MinSize, constants.RankingConfig.MaxSize))
	}

	if err := c.Deps().Settings.SetRankSize(size); err != nil {
		return c.replyConfigError(ctx, cmdCtx, err,
			fmt.Sprintf(adapter.ErrInvalidRankSize, constants.RankingConfig.MinSize, constants.RankingConfig.MaxSize))
	}
	return c.Deps().SendMessage(ctx, cmdCtx.Room,
		adapter.SuccessMessage(fmt.Sprintf("랭킹 크기를 %d명으로 설정했습니다.", size)))
}

func (c *ConfigCommand) setMode(ctx context.Context, cmdCtx *domain.CommandContext, value string) error {
	mode, ok := parseDisplayMode(value)
	if !ok {
		return c.Deps().SendError(ctx, cmdCtx.Room, adapter.ErrInvalidDisplayMode)
	}

	if err := c.Deps().Settings.SetDisplayMode(mode); err != nil {
		return c.replyConfigError(ctx, cmdCtx, err, adapter.ErrInvalidDisplayMode)
	}

	label := "텍스트"
	if mode == domain.DisplayImage {
		label = "이미지"
	}
	return c.Deps().SendMessage(ctx, cmdCtx.Room,
		adapter.SuccessMessage(fmt.Sprintf("출력 방식을 %s(으)로 설정했습니다.", label)))
}

func (c *ConfigCommand) blockUser(ctx context.Context, cmdCtx *domain.CommandContext, value string) error {
	userID := util.TrimSpace(value)
	if err := c.Deps().Settings.BlockUser(userID); err != nil {
		return c.replyConfigError(ctx, cmdCtx, err, adapter.ErrUnknownConfigAction)
	}
	return c.Deps().SendMessage(ctx, cmdCtx.Room,
		adapter.SuccessMessage(fmt.Sprintf("'%s' 사용자를 랭킹에서 제외합니다.", userID)))
}

func (c *ConfigCommand) unblockUser(ctx context.Context, cmdCtx *domain.CommandContext, value string) error {
	userID := util.TrimSpace(value)
	if err := c.Deps().Settings.UnblockUser(userID); err != nil {
		return c.replyConfigError(ctx, cmdCtx, err, adapter.ErrUnknownConfigAction)
	}
	return c.Deps().SendMessage(ctx, cmdCtx.Room,
		adapter.SuccessMessage(fmt.Sprintf("'%s' 사용자의 차단을 해제했습니다.", userID)))
}

// replyConfigError: 검증 에러는 안내 메시지로, 저장 실패는 공통 에러로 응답한다.
func (c *ConfigCommand) replyConfigError(ctx context.Context, cmdCtx *domain.CommandContext, err error, validationMsg string) error {
	var validationErr *pkgerrors.ValidationError
	if errors.As(err, &validationErr) {
		return c.Deps().SendError(ctx, cmdCtx.Room, validationMsg)
	}

	c.Deps().Logger.Error("Failed to save settings",
		slog.String("room", cmdCtx.Room),
		slog.Any("error", err),
	)
	return c.Deps().SendError(ctx, cmdCtx.Room, adapter.ErrSettingsSaveFailed)
}

func parseDisplayMode(raw string) (domain.DisplayMode, bool) {
	switch util.Normalize(raw) {
	case "텍스트", "text":
		return domain.DisplayText, true
	case "이미지", "image":
		return domain.DisplayImage, true
	default:
		return domain.DisplayText, false
	}
}

func (c *ConfigCommand) ensureDeps() error {
	if err := c.EnsureBaseDeps(); err != nil {
		return err
	}
	if c.Deps().Settings == nil || c.Deps().Formatter == nil {
		return fmt.Errorf("settings service not configured")
	}
	return nil
}
