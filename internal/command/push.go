package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kapu/groupstats-kakao-bot-go/internal/adapter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/util"
	pkgerrors "github.com/kapu/groupstats-kakao-bot-go/pkg/errors"
)

// PushCommand: 일일 랭킹 푸시의 상태 조회 및 관리 명령어
type PushCommand struct {
	BaseCommand
}

// NewPushCommand 는 동작을 수행한다.
func NewPushCommand(deps *Dependencies) *PushCommand {
	return &PushCommand{BaseCommand: NewBaseCommand(deps)}
}

// Name 는 동작을 수행한다.
func (c *PushCommand) Name() string {
	return "push"
}

// Description 는 동작을 수행한다.
func (c *PushCommand) Description() string {
	return "일일 랭킹 푸시 관리 (상태/즉시 발송/스케줄 설정)"
}

// Execute 는 동작을 수행한다.
func (c *PushCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	if err := c.ensureDeps(); err != nil {
		return err
	}

	action, _ := params["action"].(string)
	value, _ := params["value"].(string)

	switch util.Normalize(action) {
	case "":
		return c.showStatus(ctx, cmdCtx)
	case "지금", "now":
		return c.pushNow(ctx, cmdCtx)
	case "시간", "time":
		return c.setTime(ctx, cmdCtx, value)
	case "추가", "add":
		return c.addGroup(ctx, cmdCtx)
	case "제거", "remove":
		return c.removeGroup(ctx, cmdCtx)
	case "켜기", "on":
		return c.setEnabled(ctx, cmdCtx, true)
	case "끄기", "off":
		return c.setEnabled(ctx, cmdCtx, false)
	case "모드", "mode":
		return c.setGroupMode(ctx, cmdCtx, value)
	case "정책", "policy":
		return c.setPolicy(ctx, cmdCtx, value)
	default:
		return c.Deps().SendMessage(ctx, cmdCtx.Room, c.Deps().Formatter.FormatPushUsage())
	}
}

func (c *PushCommand) showStatus(ctx context.Context, cmdCtx *domain.CommandContext) error {
	message := c.Deps().Formatter.FormatScheduleStatus(
		c.Deps().Settings.Schedule(),
		c.Deps().Settings.DisplayMode(),
		cmdCtx.Room,
	)
	return c.Deps().SendMessage(ctx, cmdCtx.Room, message)
}

// pushNow: 일일 1회 제한과 무관하게 즉시 발송한다.
func (c *PushCommand) pushNow(ctx context.Context, cmdCtx *domain.CommandContext) error {
	if err := c.Deps().Push.Push(ctx, cmdCtx.Room, domain.TriggerManual); err != nil {
		c.Deps().Logger.Error("Manual push failed",
			slog.String("room", cmdCtx.Room),
			slog.Any("error", err),
		)
		return c.Deps().SendError(ctx, cmdCtx.Room, adapter.ErrPushFailed)
	}
	return nil // 발송 자체가 응답이다.
}

func (c *PushCommand) setTime(ctx context.Context, cmdCtx *domain.CommandContext, value string) error {
	hour, minute, err := util.ParseClock(value)
	if err != nil {
		return c.Deps().SendError(ctx, cmdCtx.Room, adapter.ErrInvalidScheduleTime)
	}

	if err := c.Deps().Settings.SetScheduleTime(hour, minute); err != nil {
		return c.replyScheduleError(ctx, cmdCtx, err)
	}
	return c.Deps().SendMessage(ctx, cmdCtx.Room,
		adapter.SuccessMessage(fmt.Sprintf(adapter.MsgScheduleTimeSet, util.FormatClock(hour, minute))))
}

func (c *PushCommand) addGroup(ctx context.Context, cmdCtx *domain.CommandContext) error {
	added, err := c.Deps().Settings.AddScheduleGroup(cmdCtx.Room)
	if err != nil {
		return c.replyScheduleError(ctx, cmdCtx, err)
	}
	if !added {
		return c.Deps().SendMessage(ctx, cmdCtx.Room, adapter.MsgScheduleGroupExists)
	}
	return c.Deps().SendMessage(ctx, cmdCtx.Room, adapter.SuccessMessage(adapter.MsgScheduleGroupAdded))
}

func (c *PushCommand) removeGroup(ctx context.Context, cmdCtx *domain.CommandContext) error {
	removed, err := c.Deps().Settings.RemoveScheduleGroup(cmdCtx.Room)
	if err != nil {
		return c.replyScheduleError(ctx, cmdCtx, err)
	}
	if !removed {
		return c.Deps().SendError(ctx, cmdCtx.Room, adapter.ErrGroupNotScheduled)
	}
	return c.Deps().SendMessage(ctx, cmdCtx.Room, adapter.SuccessMessage(adapter.MsgScheduleGroupRemoved))
}

func (c *PushCommand) setEnabled(ctx context.Context, cmdCtx *domain.CommandContext, enabled bool) error {
	if err := c.Deps().Settings.SetScheduleEnabled(enabled); err != nil {
		return c.replyScheduleError(ctx, cmdCtx, err)
	}
	message := adapter.MsgScheduleDisabled
	if enabled {
		message = adapter.MsgScheduleEnabled
	}
	return c.Deps().SendMessage(ctx, cmdCtx.Room, adapter.SuccessMessage(message))
}

func (c *PushCommand) setGroupMode(ctx context.Context, cmdCtx *domain.CommandContext, value string) error {
	mode, ok := parseDisplayMode(value)
	if !ok {
		return c.Deps().SendError(ctx, cmdCtx.Room, adapter.ErrInvalidDisplayMode)
	}

	if err := c.Deps().Settings.SetGroupMode(cmdCtx.Room, mode); err != nil {
		var validationErr *pkgerrors.ValidationError
		if errors.As(err, &validationErr) {
			return c.Deps().SendError(ctx, cmdCtx.Room, adapter.ErrGroupNotScheduled)
		}
		return c.replyScheduleError(ctx, cmdCtx, err)
	}

	label := "텍스트"
	if mode == domain.DisplayImage {
		label = "이미지"
	}
	return c.Deps().SendMessage(ctx, cmdCtx.Room,
		adapter.SuccessMessage(fmt.Sprintf(adapter.MsgScheduleModeSet, label)))
}

func (c *PushCommand) setPolicy(ctx context.Context, cmdCtx *domain.CommandContext, value string) error {
	var policy domain.MissedPolicy
	switch util.Normalize(value) {
	case "보충", "catch_up", "catchup":
		policy = domain.MissedCatchUp
	case "건너뛰기", "skip":
		policy = domain.MissedSkip
	default:
		return c.Deps().SendMessage(ctx, cmdCtx.Room, c.Deps().Formatter.FormatPushUsage())
	}

	if err := c.Deps().Settings.SetMissedPolicy(policy); err != nil {
		return c.replyScheduleError(ctx, cmdCtx, err)
	}

	label := "당일 내 보충 발송"
	if policy == domain.MissedSkip {
		label = "건너뛰기"
	}
	return c.Deps().SendMessage(ctx, cmdCtx.Room,
		adapter.SuccessMessage(fmt.Sprintf("놓친 발송 처리 방식을 '%s'로 설정했습니다.", label)))
}

func (c *PushCommand) replyScheduleError(ctx context.Context, cmdCtx *domain.CommandContext, err error) error {
	c.Deps().Logger.Error("Failed to update push schedule",
		slog.String("room", cmdCtx.Room),
		slog.Any("error", err),
	)
	return c.Deps().SendError(ctx, cmdCtx.Room, adapter.ErrSettingsSaveFailed)
}

func (c *PushCommand) ensureDeps() error {
	if err := c.EnsureBaseDeps(); err != nil {
		return err
	}
	if c.Deps().Settings == nil || c.Deps().Push == nil || c.Deps().Formatter == nil {
		return fmt.Errorf("push services not configured")
	}
	return nil
}
