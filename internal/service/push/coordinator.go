// Package push: 일일 랭킹 푸시의 수집-해석-렌더링-전송 파이프라인을 담당한다.
package push

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/kapu/groupstats-kakao-bot-go/internal/adapter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/iris"
	"github.com/kapu/groupstats-kakao-bot-go/internal/render"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/nickname"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/rank"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/settings"
	"github.com/kapu/groupstats-kakao-bot-go/internal/util"
)

// Log: 발송 이력 기록 인터페이스. (pushlog.Repository가 구현)
type Log interface {
	Append(ctx context.Context, group, day string, trigger domain.PushTrigger, mode domain.DisplayMode, entries []domain.RankEntry, pushErr error) error
}

// Coordinator: 그룹 1개에 대한 푸시 발송을 조율한다.
// 멤버 캐시 갱신 -> 오늘 랭킹 집계 -> 닉네임 해석 -> 렌더링 -> 전송 순서로 진행하며,
// 캐시 갱신 실패는 발송을 막지 않는다.
type Coordinator struct {
	aggregator *rank.Aggregator
	nicknames  *nickname.Cache
	settings   *settings.Service
	renderer   *render.Renderer
	formatter  *adapter.ResponseFormatter
	irisClient iris.Client
	pushLog    Log
	loc        *time.Location
	logger     *slog.Logger
}

// NewCoordinator 는 동작을 수행한다.
func NewCoordinator(
	aggregator *rank.Aggregator,
	nicknames *nickname.Cache,
	settingsSvc *settings.Service,
	renderer *render.Renderer,
	formatter *adapter.ResponseFormatter,
	irisClient iris.Client,
	pushLog Log,
	loc *time.Location,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		aggregator: aggregator,
		nicknames:  nicknames,
		settings:   settingsSvc,
		renderer:   renderer,
		formatter:  formatter,
		irisClient: irisClient,
		pushLog:    pushLog,
		loc:        loc,
		logger:     logger,
	}
}

// Push: 그룹의 오늘 랭킹을 발송한다. 발송 결과는 성공/실패와 무관하게 이력에 남는다.
func (c *Coordinator) Push(ctx context.Context, group string, trigger domain.PushTrigger) error {
	// 발송 직전 멤버 캐시 갱신. 실패해도 기존 캐시로 계속 진행한다.
	if _, err := c.nicknames.RefreshGroup(ctx, group); err != nil {
		c.logger.Warn("Member cache refresh failed before push",
			slog.String("group", group),
			slog.Any("error", err),
		)
	}

	lb := c.aggregator.Rank(group, domain.WindowToday, 0)
	c.attachNames(ctx, group, lb)

	mode := c.resolveMode(group)
	day := util.DayKey(lb.GeneratedAt, c.loc)

	deliverErr := c.deliver(ctx, group, lb, mode)

	if err := c.pushLog.Append(ctx, group, day, trigger, mode, lb.Entries, deliverErr); err != nil {
		c.logger.Warn("Push record append failed",
			slog.String("group", group),
			slog.Any("error", err),
		)
	}

	if deliverErr != nil {
		c.logger.Error("Push delivery failed",
			slog.String("group", group),
			slog.String("trigger", string(trigger)),
			slog.Any("error", deliverErr),
		)
		return deliverErr
	}

	c.logger.Info("Push delivered",
		slog.String("group", group),
		slog.String("trigger", string(trigger)),
		slog.String("mode", string(mode)),
		slog.Int("entries", len(lb.Entries)),
	)
	return nil
}

// attachNames: 리더보드 항목에 닉네임과 그룹 표시 이름을 채운다.
func (c *Coordinator) attachNames(ctx context.Context, group string, lb *domain.Leaderboard) {
	if len(lb.Entries) > 0 {
		userIDs := make([]string, 0, len(lb.Entries))
		for _, entry := range lb.Entries {
			userIDs = append(userIDs, entry.UserID)
		}
		names := c.nicknames.ResolveAll(ctx, group, userIDs)
		for i := range lb.Entries {
			lb.Entries[i].Nickname = names[lb.Entries[i].UserID]
		}
	}
	lb.GroupName = c.nicknames.GroupName(ctx, group)
}

// resolveMode: 그룹별 출력 방식 재정의가 있으면 사용하고, 없으면 전역 기본값을 쓴다.
func (c *Coordinator) resolveMode(group string) domain.DisplayMode {
	schedule := c.settings.Schedule()
	if g, ok := schedule.Groups[group]; ok && g.Mode.IsValid() {
		return g.Mode
	}
	return c.settings.DisplayMode()
}

func (c *Coordinator) deliver(ctx context.Context, group string, lb *domain.Leaderboard, mode domain.DisplayMode) error {
	// 발언이 없는 날은 모드와 무관하게 안내 텍스트만 보낸다.
	if lb.IsEmpty() {
		return c.irisClient.SendMessage(ctx, group, c.formatter.FormatLeaderboard(lb))
	}

	if mode == domain.DisplayImage {
		image, err := c.renderer.Render(lb)
		if err != nil {
			c.logger.Warn("Leaderboard render failed, falling back to text",
				slog.String("group", group),
				slog.Any("error", err),
			)
		} else {
			return c.irisClient.SendImage(ctx, group, base64.StdEncoding.EncodeToString(image))
		}
	}

	return c.irisClient.SendMessage(ctx, group, c.formatter.FormatLeaderboard(lb))
}
