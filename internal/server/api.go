package server

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kapu/groupstats-kakao-bot-go/internal/bot"
	"github.com/kapu/groupstats-kakao-bot-go/internal/constants"
	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/iris"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/counter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/nickname"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/pushlog"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/rank"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/settings"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/system"
)

// APIHandler: 상태 조회 API 요청을 처리하는 핸들러입니다.
// Iris 웹훅 수신과 그룹 통계/캐시/스케줄 조회를 담당한다.
type APIHandler struct {
	bot         *bot.Bot
	counter     *counter.Store
	aggregator  *rank.Aggregator
	nicknames   *nickname.Cache
	settings    *settings.Service
	pushLog     *pushlog.Repository
	systemStats *system.Collector
	logger      *slog.Logger
}

// NewAPIHandler: 새로운 API 핸들러를 생성합니다.
// pushLog는 데이터베이스 미구성 시 nil일 수 있다.
func NewAPIHandler(
	b *bot.Bot,
	counterStore *counter.Store,
	aggregator *rank.Aggregator,
	nicknames *nickname.Cache,
	settingsSvc *settings.Service,
	pushLog *pushlog.Repository,
	systemSvc *system.Collector,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		bot:         b,
		counter:     counterStore,
		aggregator:  aggregator,
		nicknames:   nicknames,
		settings:    settingsSvc,
		pushLog:     pushLog,
		systemStats: systemSvc,
		logger:      logger,
	}
}

// HandleWebhook: Iris가 전달하는 그룹 메시지 웹훅을 수신합니다.
// 발언 집계와 명령어 처리는 봇이 담당하고, 응답은 수신 확인만 반환한다.
func (h *APIHandler) HandleWebhook(c *gin.Context) {
	var message iris.Message
	if err := c.ShouldBindJSON(&message); err != nil {
		c.JSON(400, gin.H{"status": "error", "message": "invalid message payload"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.WebhookProcessing)
	defer cancel()

	h.bot.HandleMessage(ctx, &message)
	c.JSON(200, gin.H{"status": "ok"})
}

// GetRank: 그룹의 발언 랭킹을 반환합니다.
// 쿼리 파라미터: window(total|today|week|month), limit
func (h *APIHandler) GetRank(c *gin.Context) {
	group := c.Param("group")
	window, ok := domain.ParseWindow(c.Query("window"))
	if !ok {
		c.JSON(400, gin.H{"status": "error", "message": "unknown window"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(400, gin.H{"status": "error", "message": "invalid limit"})
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	lb := h.aggregator.Rank(group, window, limit)

	userIDs := make([]string, 0, len(lb.Entries))
	for _, entry := range lb.Entries {
		userIDs = append(userIDs, entry.UserID)
	}
	resolved := h.nicknames.ResolveAll(ctx, group, userIDs)
	for i := range lb.Entries {
		if name, ok := resolved[lb.Entries[i].UserID]; ok {
			lb.Entries[i].Nickname = name
		}
	}
	lb.GroupName = h.nicknames.GroupName(ctx, group)

	c.JSON(200, lb)
}

// GetGroups: 집계 중인 모든 그룹과 발언자 수를 반환합니다.
func (h *APIHandler) GetGroups(c *gin.Context) {
	groups := h.counter.Groups()
	result := make([]gin.H, 0, len(groups))
	for _, group := range groups {
		result = append(result, gin.H{
			"group":   group,
			"members": h.counter.MemberCount(group),
		})
	}
	c.JSON(200, gin.H{"status": "ok", "groups": result})
}

// GetCacheStatus: 그룹 닉네임 캐시 상태를 반환합니다.
func (h *APIHandler) GetCacheStatus(c *gin.Context) {
	group := c.Param("group")

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	members := h.counter.WindowCounts(group, "", false)
	memberIDs := make([]string, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.UserID)
	}

	status := h.nicknames.GroupStatus(group, memberIDs)
	c.JSON(200, gin.H{
		"status":    "ok",
		"group":     group,
		"groupName": h.nicknames.GroupName(ctx, group),
		"cache":     status,
	})
}

// GetScheduler: 일일 푸시 스케줄 설정을 반환합니다.
func (h *APIHandler) GetScheduler(c *gin.Context) {
	schedule := h.settings.Schedule()
	c.JSON(200, gin.H{
		"status":      "ok",
		"schedule":    schedule,
		"displayMode": h.settings.DisplayMode(),
	})
}

// GetPushes: 그룹의 최근 푸시 발송 이력을 반환합니다.
func (h *APIHandler) GetPushes(c *gin.Context) {
	if h.pushLog == nil {
		c.JSON(503, gin.H{"status": "error", "message": "push log storage not configured"})
		return
	}

	group := c.Param("group")
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	records, err := h.pushLog.Recent(ctx, group, limit)
	if err != nil {
		h.logger.Error("Failed to query push records", slog.String("group", group), slog.Any("error", err))
		c.JSON(500, gin.H{"status": "error", "message": "failed to query push records"})
		return
	}

	today := time.Now().Format("2006-01-02")
	failures, err := h.pushLog.FailureCount(ctx, group, today)
	if err != nil {
		failures = 0
	}

	c.JSON(200, gin.H{
		"status":        "ok",
		"group":         group,
		"records":       records,
		"todayFailures": failures,
	})
}

// GetSystem: 시스템 리소스 사용량을 반환합니다.
func (h *APIHandler) GetSystem(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	stats, err := h.systemStats.GetCurrentStats(ctx)
	if err != nil {
		h.logger.Error("Failed to collect system stats", slog.Any("error", err))
		c.JSON(500, gin.H{"status": "error", "message": "failed to collect system stats"})
		return
	}
	c.JSON(200, stats)
}
