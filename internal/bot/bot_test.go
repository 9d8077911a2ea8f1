package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/valkey-io/valkey-go"

	"github.com/kapu/groupstats-kakao-bot-go/internal/adapter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/config"
	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/iris"
	"github.com/kapu/groupstats-kakao-bot-go/internal/render"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/cache"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/counter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/directory"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/nickname"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/push"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/rank"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/settings"
	"github.com/kapu/groupstats-kakao-bot-go/internal/util"
)

type fakeDirectory struct {
	nicknames map[string]string
	groupName string
}

func (f *fakeDirectory) LookupNickname(ctx context.Context, group, userID string) (string, error) {
	if name, ok := f.nicknames[userID]; ok {
		return name, nil
	}
	return "", errors.New("not found")
}

func (f *fakeDirectory) LookupGroupName(ctx context.Context, group string) (string, error) {
	return f.groupName, nil
}

func (f *fakeDirectory) ListMembers(ctx context.Context, group string) ([]directory.Member, error) {
	members := make([]directory.Member, 0, len(f.nicknames))
	for userID, name := range f.nicknames {
		members = append(members, directory.Member{UserID: userID, Nickname: name})
	}
	return members, nil
}

type fakeIris struct {
	mu       sync.Mutex
	messages []string
	images   int
}

func (f *fakeIris) SendMessage(ctx context.Context, room, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeIris) SendImage(ctx context.Context, room, imageBase64 string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images++
	return nil
}

func (f *fakeIris) Ping(ctx context.Context) bool { return true }

func (f *fakeIris) allMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.messages))
	copy(out, f.messages)
	return out
}

type noopLog struct{}

func (noopLog) Append(ctx context.Context, group, day string, trigger domain.PushTrigger, mode domain.DisplayMode, entries []domain.RankEntry, pushErr error) error {
	return nil
}

type botFixture struct {
	bot     *Bot
	store   *counter.Store
	iris    *fakeIris
	mini    *miniredis.Miniredis
	loc     *time.Location
	cleanup func()
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()

	mini := miniredis.RunT(t)
	host, portStr, err := net.SplitHostPort(mini.Addr())
	if err != nil {
		t.Fatalf("failed to split address: %v", err)
	}
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:       []string{net.JoinHostPort(host, portStr)},
		DisableCache:      true,
		ForceSingleClient: true,
	})
	if err != nil {
		t.Fatalf("failed to create valkey client: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cacheSvc := cache.NewWithClient(client, logger)
	t.Cleanup(func() {
		_ = cacheSvc.Close()
	})

	loc := time.FixedZone("KST", 9*60*60)
	dir := &fakeDirectory{
		nicknames: map[string]string{"1001": "철수", "1002": "영희"},
		groupName: "우리 모임",
	}

	store := counter.NewStore(cacheSvc, loc, logger)
	settingsSvc := settings.NewService(filepath.Join(t.TempDir(), "settings.json"), settings.Defaults{
		ScheduleHour:   21,
		ScheduleMinute: 0,
		MissedPolicy:   domain.MissedCatchUp,
	}, logger)
	aggregator := rank.NewAggregator(store, settingsSvc, loc, time.Monday, logger)
	nicknames := nickname.NewCache(dir, cacheSvc, logger)
	renderer := render.NewRenderer()
	formatter := adapter.NewResponseFormatter("!")
	irisClient := &fakeIris{}

	coordinator := push.NewCoordinator(
		aggregator, nicknames, settingsSvc, renderer, formatter,
		irisClient, noopLog{}, loc, logger,
	)

	cfg := &config.Config{
		Bot: config.BotConfig{Prefix: "!", SelfUser: "iris"},
	}

	b, err := NewBot(&Dependencies{
		Config:         cfg,
		Logger:         logger,
		Client:         irisClient,
		MessageAdapter: adapter.NewMessageAdapter("!"),
		Formatter:      formatter,
		Cache:          cacheSvc,
		Counter:        store,
		Nicknames:      nicknames,
		Settings:       settingsSvc,
		Aggregator:     aggregator,
		Renderer:       renderer,
		Push:           coordinator,
	})
	if err != nil {
		t.Fatalf("failed to create bot: %v", err)
	}

	return &botFixture{bot: b, store: store, iris: irisClient, mini: mini, loc: loc}
}

func message(room, userID, sender, text string) *iris.Message {
	return &iris.Message{
		Msg:    text,
		Room:   room,
		Sender: &sender,
		JSON:   &iris.MessageJSON{UserID: userID, ChatID: room, Message: text},
	}
}

func TestHandleMessageCountsActivity(t *testing.T) {
	fx := newBotFixture(t)
	ctx := context.Background()

	fx.bot.HandleMessage(ctx, message("room1", "1001", "철수", "안녕하세요"))
	fx.bot.HandleMessage(ctx, message("room1", "1001", "철수", "오늘 날씨 좋네요"))
	fx.bot.HandleMessage(ctx, message("room1", "1002", "영희", "그러게요"))

	today := util.DayKey(time.Now(), fx.loc)
	if got := fx.store.UserCount("room1", "1001", today, true); got != 2 {
		t.Errorf("user 1001 count = %d, want 2", got)
	}
	if got := fx.store.UserCount("room1", "1002", today, true); got != 1 {
		t.Errorf("user 1002 count = %d, want 1", got)
	}

	// 일반 대화에는 응답하지 않는다.
	if msgs := fx.iris.allMessages(); len(msgs) != 0 {
		t.Errorf("plain chat should not trigger replies: %+v", msgs)
	}
}

func TestHandleMessageSkipsSelf(t *testing.T) {
	fx := newBotFixture(t)

	fx.bot.HandleMessage(context.Background(), message("room1", "9999", "iris", "봇이 보낸 메시지"))

	today := util.DayKey(time.Now(), fx.loc)
	if got := fx.store.UserCount("room1", "9999", today, true); got != 0 {
		t.Errorf("self message was counted: %d", got)
	}
}

func TestHandleMessageCommandCountsToo(t *testing.T) {
	fx := newBotFixture(t)
	ctx := context.Background()

	fx.bot.HandleMessage(ctx, message("room1", "1001", "철수", "!랭킹"))

	// 명령어 메시지도 발언으로 집계된다.
	today := util.DayKey(time.Now(), fx.loc)
	if got := fx.store.UserCount("room1", "1001", today, true); got != 1 {
		t.Errorf("command message count = %d, want 1", got)
	}

	msgs := fx.iris.allMessages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0], "랭킹") || !strings.Contains(msgs[0], "철수") {
		t.Errorf("unexpected rank reply:\n%s", msgs[0])
	}
}

func TestHandleMessageCountingSurvivesValkeyOutage(t *testing.T) {
	fx := newBotFixture(t)
	ctx := context.Background()

	fx.mini.Close() // 영속화 계층 장애 시뮬레이션

	fx.bot.HandleMessage(ctx, message("room1", "1001", "철수", "안녕하세요"))

	// 영속화 실패는 경고로만 남고 인메모리 집계는 계속된다.
	today := util.DayKey(time.Now(), fx.loc)
	if got := fx.store.UserCount("room1", "1001", today, true); got != 1 {
		t.Errorf("in-memory count = %d, want 1 despite valkey outage", got)
	}
}

func TestHandleMessageIgnoresUnknownCommand(t *testing.T) {
	fx := newBotFixture(t)

	fx.bot.HandleMessage(context.Background(), message("room1", "1001", "철수", "!없는명령어"))

	if msgs := fx.iris.allMessages(); len(msgs) != 0 {
		t.Errorf("unknown keyword should be ignored: %+v", msgs)
	}
}
