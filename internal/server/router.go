package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/kapu/groupstats-kakao-bot-go/internal/constants"
	"github.com/kapu/groupstats-kakao-bot-go/internal/health"
)

// NewRouter: 웹훅 수신과 상태 조회 API를 서빙하는 Gin 라우터를 설정합니다.
func NewRouter(ctx context.Context, logger *slog.Logger, apiHandler *APIHandler) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	if err := router.SetTrustedProxies(constants.ServerConfig.TrustedProxies); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(ctx, logger,
		"/health", // 헬스체크 폴링
	))
	router.Use(cors.New(newCORSConfig()))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, apiHandler)

	return router, nil
}

func newCORSConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = constants.CORSConfig.AllowOrigins
	corsConfig.AllowMethods = constants.CORSConfig.AllowMethods
	corsConfig.AllowHeaders = constants.CORSConfig.AllowHeaders
	return corsConfig
}

func registerRoutes(router *gin.Engine, apiHandler *APIHandler) {
	// Health check 엔드포인트 (버전/uptime 포함)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, health.Get())
	})

	// Iris 메시지 웹훅
	router.POST("/webhook/message", apiHandler.HandleWebhook)

	api := router.Group("/api")
	api.GET("/stats/rank/:group", apiHandler.GetRank)
	api.GET("/stats/groups", apiHandler.GetGroups)
	api.GET("/cache/:group", apiHandler.GetCacheStatus)
	api.GET("/scheduler", apiHandler.GetScheduler)
	api.GET("/pushes/:group", apiHandler.GetPushes)
	api.GET("/system", apiHandler.GetSystem)
}
