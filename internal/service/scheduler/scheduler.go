// Package scheduler: 분 단위 틱으로 일일 푸시 발송 시각을 감시한다.
// 그룹별 마지막 발송 날짜가 설정 파일에 영속화되므로 재시작 후에도
// 하루 1회 발송이 보장된다.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kapu/groupstats-kakao-bot-go/internal/constants"
	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/settings"
	"github.com/kapu/groupstats-kakao-bot-go/internal/util"
)

// Pusher: 푸시 발송 인터페이스. (push.Coordinator가 구현)
type Pusher interface {
	Push(ctx context.Context, group string, trigger domain.PushTrigger) error
}

// Scheduler: 일일 푸시 스케줄러
type Scheduler struct {
	settings *settings.Service
	pusher   Pusher
	loc      *time.Location

	tickInterval time.Duration
	now          func() time.Time
	logger       *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
	wg     sync.WaitGroup
}

// NewScheduler 는 동작을 수행한다.
func NewScheduler(settingsSvc *settings.Service, pusher Pusher, loc *time.Location, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		settings:     settingsSvc,
		pusher:       pusher,
		loc:          loc,
		tickInterval: constants.SchedulerConfig.TickInterval,
		now:          time.Now,
		logger:       logger,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// WithClock: 테스트를 위해 시간 소스를 교체한다.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// WithTickInterval: 틱 주기를 교체한다.
func (s *Scheduler) WithTickInterval(interval time.Duration) *Scheduler {
	s.tickInterval = interval
	return s
}

// Start: 틱 루프를 시작한다.
func (s *Scheduler) Start() {
	go s.loop()
	s.logger.Info("Scheduler started",
		slog.Duration("tick", s.tickInterval),
		slog.String("timezone", s.loc.String()),
	)
}

// Stop: 틱 루프를 중지하고 진행 중인 발송까지 기다린다.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) loop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Tick(context.Background())
		}
	}
}

// Tick: 발송 조건을 검사하고 충족한 그룹에 푸시를 발송한다.
// 발송 여부 기록(MarkFired)이 발송보다 먼저 이루어지므로 전송 실패 시에도
// 같은 날 재발송되지 않는다. 발송 자체는 고루틴에서 수행되어
// 느린 전송이 틱 루프를 지연시키지 않는다.
func (s *Scheduler) Tick(ctx context.Context) {
	schedule := s.settings.Schedule()
	if !schedule.Enabled {
		return
	}

	now := s.now().In(s.loc)
	today := util.DayKey(now, s.loc)

	exact := now.Hour() == schedule.Hour && now.Minute() == schedule.Minute
	passed := now.Hour() > schedule.Hour ||
		(now.Hour() == schedule.Hour && now.Minute() >= schedule.Minute)

	for group, g := range schedule.Groups {
		if g.LastFired == today {
			continue
		}

		var fire bool
		switch schedule.MissedPolicy {
		case domain.MissedSkip:
			fire = exact
		default: // catch_up: 발송 시각 이후 첫 틱에서 보충 발송
			fire = passed
		}
		if !fire {
			continue
		}

		if err := s.settings.MarkFired(group, today); err != nil {
			s.logger.Error("Failed to mark push as fired, skipping group",
				slog.String("group", group),
				slog.Any("error", err),
			)
			continue
		}

		s.wg.Add(1)
		go func(group, day string) {
			defer s.wg.Done()

			pushCtx, cancel := context.WithTimeout(ctx, constants.SchedulerConfig.PushTimeout)
			defer cancel()

			if err := s.pusher.Push(pushCtx, group, domain.TriggerScheduled); err != nil {
				s.logger.Error("Scheduled push failed",
					slog.String("group", group),
					slog.String("day", day),
					slog.Any("error", err),
				)
			}
		}(group, today)
	}
}
