package bot

import (
	"log/slog"

	"github.com/kapu/groupstats-kakao-bot-go/internal/adapter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/config"
	"github.com/kapu/groupstats-kakao-bot-go/internal/iris"
	"github.com/kapu/groupstats-kakao-bot-go/internal/render"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/cache"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/counter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/nickname"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/push"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/rank"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/scheduler"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/settings"
)

// Dependencies 는 타입이다.
type Dependencies struct {
	Config         *config.Config
	Logger         *slog.Logger
	Client         iris.Client
	MessageAdapter *adapter.MessageAdapter
	Formatter      *adapter.ResponseFormatter
	Cache          *cache.Service
	Counter        *counter.Store
	Nicknames      *nickname.Cache
	Settings       *settings.Service
	Aggregator     *rank.Aggregator
	Renderer       *render.Renderer
	Push           *push.Coordinator
	Scheduler      *scheduler.Scheduler
}
