package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kapu/groupstats-kakao-bot-go/internal/adapter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/bot"
	"github.com/kapu/groupstats-kakao-bot-go/internal/config"
	"github.com/kapu/groupstats-kakao-bot-go/internal/constants"
	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/health"
	"github.com/kapu/groupstats-kakao-bot-go/internal/iris"
	"github.com/kapu/groupstats-kakao-bot-go/internal/render"
	"github.com/kapu/groupstats-kakao-bot-go/internal/server"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/cache"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/counter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/directory"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/nickname"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/push"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/pushlog"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/rank"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/scheduler"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/settings"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/system"
	"github.com/kapu/groupstats-kakao-bot-go/internal/util"
)

// noPushLog: 데이터베이스 미구성 시 푸시 이력을 버리는 대체 구현
type noPushLog struct{}

func (noPushLog) Append(ctx context.Context, group, day string, trigger domain.PushTrigger, mode domain.DisplayMode, entries []domain.RankEntry, pushErr error) error {
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.EnableFileLoggingWithLevel(util.LogConfig{
		Dir:        cfg.Logging.Dir,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}, "bot.log", cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	health.Init(cfg.Version)
	logger.Info("Group stats bot starting",
		slog.String("version", cfg.Version),
		slog.String("log_level", cfg.Logging.Level),
	)

	loc, err := time.LoadLocation(cfg.Stats.Timezone)
	if err != nil {
		logger.Error("Invalid timezone", slog.String("timezone", cfg.Stats.Timezone), slog.Any("error", err))
		os.Exit(1)
	}

	cacheSvc, err := cache.NewCacheService(cache.Config{
		Host:     cfg.Valkey.Host,
		Port:     cfg.Valkey.Port,
		Password: cfg.Valkey.Password,
		DB:       cfg.Valkey.DB,
	}, logger)
	if err != nil {
		logger.Error("Failed to connect to Valkey", slog.Any("error", err))
		os.Exit(1)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), constants.AppTimeout.Startup)
	defer startupCancel()

	counterStore := counter.NewStore(cacheSvc, loc, logger)
	if err := counterStore.Load(startupCtx); err != nil {
		logger.Warn("Counter reload failed, starting empty", slog.Any("error", err))
	}

	dirClient := directory.NewClient(cfg.Iris.BaseURL, logger)
	nicknames := nickname.NewCache(dirClient, cacheSvc, logger)
	if err := nicknames.Load(startupCtx); err != nil {
		logger.Warn("Nickname snapshot reload failed, starting empty", slog.Any("error", err))
	}

	settingsSvc := settings.NewService(cfg.Stats.SettingsPath, settings.Defaults{
		ScheduleHour:   cfg.Schedule.DefaultHour,
		ScheduleMinute: cfg.Schedule.DefaultMinute,
		MissedPolicy:   cfg.Schedule.MissedPolicy,
	}, logger)

	// 푸시 이력 DB는 선택 사항: 연결 실패 시 이력 없이 기동한다.
	var pushRepo *pushlog.Repository
	var pushLog push.Log = noPushLog{}
	if db, dbErr := pushlog.OpenPostgres(
		cfg.Postgres.Host, cfg.Postgres.Port,
		cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database,
	); dbErr != nil {
		logger.Warn("Push history disabled", slog.Any("error", dbErr))
	} else if repo, repoErr := pushlog.NewRepository(db, logger); repoErr != nil {
		logger.Warn("Push history disabled", slog.Any("error", repoErr))
	} else {
		pushRepo = repo
		pushLog = repo
	}

	aggregator := rank.NewAggregator(counterStore, settingsSvc, loc, cfg.Stats.WeekStart, logger)
	renderer := render.NewRenderer()
	if cfg.Render.FontPath != "" {
		if err := renderer.LoadFont(cfg.Render.FontPath); err != nil {
			logger.Warn("Failed to load render font, falling back to builtin face",
				slog.String("path", cfg.Render.FontPath),
				slog.Any("error", err),
			)
		} else {
			logger.Info("Render font loaded", slog.String("path", cfg.Render.FontPath))
		}
	}
	formatter := adapter.NewResponseFormatter(cfg.Bot.Prefix)
	irisClient := iris.NewHTTPClient(cfg.Iris.BaseURL, logger)

	coordinator := push.NewCoordinator(
		aggregator, nicknames, settingsSvc, renderer, formatter,
		irisClient, pushLog, loc, logger,
	)
	sched := scheduler.NewScheduler(settingsSvc, coordinator, loc, logger).
		WithTickInterval(cfg.Schedule.TickInterval)

	b, err := bot.NewBot(&bot.Dependencies{
		Config:         cfg,
		Logger:         logger,
		Client:         irisClient,
		MessageAdapter: adapter.NewMessageAdapter(cfg.Bot.Prefix),
		Formatter:      formatter,
		Cache:          cacheSvc,
		Counter:        counterStore,
		Nicknames:      nicknames,
		Settings:       settingsSvc,
		Aggregator:     aggregator,
		Renderer:       renderer,
		Push:           coordinator,
		Scheduler:      sched,
	})
	if err != nil {
		logger.Error("Failed to assemble bot", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiHandler := server.NewAPIHandler(
		b, counterStore, aggregator, nicknames, settingsSvc,
		pushRepo, system.NewCollector(), logger,
	)
	router, err := server.NewRouter(ctx, logger, apiHandler)
	if err != nil {
		logger.Error("Failed to build router", slog.Any("error", err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.WrapH2C(router),
		ReadHeaderTimeout: constants.ServerTimeout.ReadHeader,
		IdleTimeout:       constants.ServerTimeout.Idle,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := b.Start(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("HTTP server listening", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.AppTimeout.Shutdown)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown failed", slog.Any("error", err))
		}
		if err := b.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Bot shutdown failed", slog.Any("error", err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application terminated", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}
