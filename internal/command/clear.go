package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kapu/groupstats-kakao-bot-go/internal/adapter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
)

// ClearCommand 는 타입이다.
type ClearCommand struct {
	BaseCommand
}

// NewClearCommand 는 동작을 수행한다.
func NewClearCommand(deps *Dependencies) *ClearCommand {
	return &ClearCommand{BaseCommand: NewBaseCommand(deps)}
}

// Name 는 동작을 수행한다.
func (c *ClearCommand) Name() string {
	return "rank_clear"
}

// Description 는 동작을 수행한다.
func (c *ClearCommand) Description() string {
	return "현재 그룹의 발언 기록 초기화"
}

// Execute 는 동작을 수행한다.
func (c *ClearCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	if err := c.ensureDeps(); err != nil {
		return err
	}

	if err := c.Deps().Counter.ClearGroup(ctx, cmdCtx.Room); err != nil {
		c.Deps().Logger.Error("Failed to clear group counters",
			slog.String("room", cmdCtx.Room),
			slog.Any("error", err),
		)
		return c.Deps().SendError(ctx, cmdCtx.Room, adapter.ErrRankQueryFailed)
	}

	return c.Deps().SendMessage(ctx, cmdCtx.Room, adapter.SuccessMessage(adapter.MsgRankCleared))
}

func (c *ClearCommand) ensureDeps() error {
	if err := c.EnsureBaseDeps(); err != nil {
		return err
	}
	if c.Deps().Counter == nil {
		return fmt.Errorf("counter store not configured")
	}
	return nil
}
