package command

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/kapu/groupstats-kakao-bot-go/internal/adapter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/util"
)

// RankCommand 는 타입이다.
type RankCommand struct {
	BaseCommand
}

// NewRankCommand 는 동작을 수행한다.
func NewRankCommand(deps *Dependencies) *RankCommand {
	return &RankCommand{BaseCommand: NewBaseCommand(deps)}
}

// Name 는 동작을 수행한다.
func (c *RankCommand) Name() string {
	return "rank"
}

// Description 는 동작을 수행한다.
func (c *RankCommand) Description() string {
	return "발언 랭킹 조회 (전체/오늘/주간/월간)"
}

// Execute 는 동작을 수행한다.
func (c *RankCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	if err := c.ensureDeps(); err != nil {
		return err
	}

	windowStr, _ := params["window"].(string)
	window, ok := domain.ParseWindow(windowStr)
	if !ok {
		return c.Deps().SendError(ctx, cmdCtx.Room, adapter.ErrUnknownWindow)
	}

	limit := parseLimit(params["limit"])

	lb := c.Deps().Aggregator.Rank(cmdCtx.Room, window, limit)

	if !lb.IsEmpty() {
		userIDs := make([]string, 0, len(lb.Entries))
		for _, entry := range lb.Entries {
			userIDs = append(userIDs, entry.UserID)
		}
		names := c.Deps().Nicknames.ResolveAll(ctx, cmdCtx.Room, userIDs)
		for i := range lb.Entries {
			lb.Entries[i].Nickname = names[lb.Entries[i].UserID]
		}
	}
	lb.GroupName = c.Deps().Nicknames.GroupName(ctx, cmdCtx.Room)

	if !lb.IsEmpty() && c.Deps().Settings.DisplayMode() == domain.DisplayImage {
		image, err := c.Deps().Renderer.Render(lb)
		if err != nil {
			c.Deps().Logger.Warn("Leaderboard render failed, falling back to text",
				slog.String("room", cmdCtx.Room),
				slog.Any("error", err),
			)
		} else {
			return c.Deps().SendImage(ctx, cmdCtx.Room, base64.StdEncoding.EncodeToString(image))
		}
	}

	return c.Deps().SendMessage(ctx, cmdCtx.Room, c.Deps().Formatter.FormatLeaderboard(lb))
}

func parseLimit(raw any) int {
	switch v := raw.(type) {
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(util.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}

func (c *RankCommand) ensureDeps() error {
	if err := c.EnsureBaseDeps(); err != nil {
		return err
	}
	if c.Deps().SendImage == nil {
		return fmt.Errorf("image callback not configured")
	}
	if c.Deps().Aggregator == nil || c.Deps().Nicknames == nil || c.Deps().Settings == nil || c.Deps().Renderer == nil {
		return fmt.Errorf("rank services not configured")
	}
	return nil
}
