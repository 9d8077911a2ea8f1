package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kapu/groupstats-kakao-bot-go/internal/adapter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
)

// CacheCommand: 멤버 닉네임 캐시의 갱신/상태 조회 명령어
type CacheCommand struct {
	BaseCommand
}

// NewCacheCommand 는 동작을 수행한다.
func NewCacheCommand(deps *Dependencies) *CacheCommand {
	return &CacheCommand{BaseCommand: NewBaseCommand(deps)}
}

// Name 는 동작을 수행한다.
func (c *CacheCommand) Name() string {
	return "cache"
}

// Description 는 동작을 수행한다.
func (c *CacheCommand) Description() string {
	return "멤버 닉네임 캐시 갱신 및 상태 조회"
}

// Execute 는 동작을 수행한다.
func (c *CacheCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	if err := c.ensureDeps(); err != nil {
		return err
	}

	action, _ := params["action"].(string)
	if action == "refresh" {
		return c.refresh(ctx, cmdCtx)
	}
	return c.showStatus(ctx, cmdCtx)
}

func (c *CacheCommand) refresh(ctx context.Context, cmdCtx *domain.CommandContext) error {
	updated, err := c.Deps().Nicknames.RefreshGroup(ctx, cmdCtx.Room)
	if err != nil {
		c.Deps().Logger.Error("Member cache refresh failed",
			slog.String("room", cmdCtx.Room),
			slog.Any("error", err),
		)
		return c.Deps().SendError(ctx, cmdCtx.Room, adapter.ErrCacheRefreshFailed)
	}

	return c.Deps().SendMessage(ctx, cmdCtx.Room,
		adapter.SuccessMessage(fmt.Sprintf(adapter.MsgCacheRefreshed, updated)))
}

func (c *CacheCommand) showStatus(ctx context.Context, cmdCtx *domain.CommandContext) error {
	// 카운터에 기록된 멤버 전체를 기준으로 미확인 수를 센다.
	members := c.Deps().Counter.WindowCounts(cmdCtx.Room, "", false)
	memberIDs := make([]string, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.UserID)
	}

	status := c.Deps().Nicknames.GroupStatus(cmdCtx.Room, memberIDs)
	groupName := c.Deps().Nicknames.GroupName(ctx, cmdCtx.Room)
	return c.Deps().SendMessage(ctx, cmdCtx.Room, c.Deps().Formatter.FormatCacheStatus(groupName, status))
}

func (c *CacheCommand) ensureDeps() error {
	if err := c.EnsureBaseDeps(); err != nil {
		return err
	}
	if c.Deps().Nicknames == nil || c.Deps().Counter == nil || c.Deps().Formatter == nil {
		return fmt.Errorf("nickname cache not configured")
	}
	return nil
}
