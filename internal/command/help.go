package command

import (
	"context"
	"fmt"

	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
)

// HelpCommand 는 타입이다.
type HelpCommand struct {
	BaseCommand
}

// NewHelpCommand 는 동작을 수행한다.
func NewHelpCommand(deps *Dependencies) *HelpCommand {
	return &HelpCommand{BaseCommand: NewBaseCommand(deps)}
}

// Name 는 동작을 수행한다.
func (c *HelpCommand) Name() string {
	return "help"
}

// Description 는 동작을 수행한다.
func (c *HelpCommand) Description() string {
	return "사용 가능한 명령어 안내"
}

// Execute 는 동작을 수행한다.
func (c *HelpCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	if err := c.EnsureBaseDeps(); err != nil {
		return err
	}
	if c.Deps().Formatter == nil {
		return fmt.Errorf("formatter not configured")
	}
	return c.Deps().SendMessage(ctx, cmdCtx.Room, c.Deps().Formatter.FormatHelp())
}
