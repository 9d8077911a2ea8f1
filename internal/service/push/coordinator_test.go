package push

import (
	"context"
	"encoding/base64"
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
	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/render"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/cache"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/counter"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/directory"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/nickname"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/rank"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/settings"
)

type fakeDirectory struct {
	nicknames map[string]string
	groupName string
	members   []directory.Member
	fail      bool
}

func (f *fakeDirectory) LookupNickname(ctx context.Context, group, userID string) (string, error) {
	if f.fail {
		return "", errors.New("directory down")
	}
	return f.nicknames[userID], nil
}

func (f *fakeDirectory) LookupGroupName(ctx context.Context, group string) (string, error) {
	if f.fail {
		return "", errors.New("directory down")
	}
	return f.groupName, nil
}

func (f *fakeDirectory) ListMembers(ctx context.Context, group string) ([]directory.Member, error) {
	if f.fail {
		return nil, errors.New("directory down")
	}
	return f.members, nil
}

type sentItem struct {
	room string
	kind string // text, image
	data string
}

type fakeIris struct {
	mu     sync.Mutex
	sent   []sentItem
	failAt string // 이 종류의 전송을 실패시킴
}

func (f *fakeIris) SendMessage(ctx context.Context, room, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAt == "text" {
		return errors.New("iris down")
	}
	f.sent = append(f.sent, sentItem{room: room, kind: "text", data: message})
	return nil
}

func (f *fakeIris) SendImage(ctx context.Context, room, imageBase64 string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAt == "image" {
		return errors.New("iris down")
	}
	f.sent = append(f.sent, sentItem{room: room, kind: "image", data: imageBase64})
	return nil
}

func (f *fakeIris) Ping(ctx context.Context) bool { return true }

func (f *fakeIris) items() []sentItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentItem, len(f.sent))
	copy(out, f.sent)
	return out
}

type appendedRecord struct {
	group   string
	day     string
	trigger domain.PushTrigger
	mode    domain.DisplayMode
	entries []domain.RankEntry
	pushErr error
}

type fakeLog struct {
	mu      sync.Mutex
	records []appendedRecord
}

func (f *fakeLog) Append(ctx context.Context, group, day string, trigger domain.PushTrigger, mode domain.DisplayMode, entries []domain.RankEntry, pushErr error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, appendedRecord{group, day, trigger, mode, entries, pushErr})
	return nil
}

func (f *fakeLog) all() []appendedRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]appendedRecord, len(f.records))
	copy(out, f.records)
	return out
}

type fixture struct {
	coordinator *Coordinator
	store       *counter.Store
	settings    *settings.Service
	iris        *fakeIris
	log         *fakeLog
	now         time.Time
	loc         *time.Location
}

func newFixture(t *testing.T, dir directory.Directory) *fixture {
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
		mini.Close()
	})

	loc := time.FixedZone("KST", 9*60*60)
	now := time.Date(2024, 3, 7, 21, 0, 0, 0, loc)
	clock := func() time.Time { return now }

	store := counter.NewStore(cacheSvc, loc, logger)
	settingsSvc := settings.NewService(filepath.Join(t.TempDir(), "settings.json"), settings.Defaults{
		ScheduleHour:   21,
		ScheduleMinute: 0,
		MissedPolicy:   domain.MissedCatchUp,
	}, logger)
	aggregator := rank.NewAggregator(store, settingsSvc, loc, time.Monday, logger).WithClock(clock)
	nicknames := nickname.NewCache(dir, cacheSvc, logger).WithClock(clock)
	irisClient := &fakeIris{}
	pushLog := &fakeLog{}

	coordinator := NewCoordinator(
		aggregator, nicknames, settingsSvc,
		render.NewRenderer(), adapter.NewResponseFormatter("!"),
		irisClient, pushLog, loc, logger,
	)

	return &fixture{
		coordinator: coordinator,
		store:       store,
		settings:    settingsSvc,
		iris:        irisClient,
		log:         pushLog,
		now:         now,
		loc:         loc,
	}
}

func TestPushTextDelivery(t *testing.T) {
	dir := &fakeDirectory{
		nicknames: map[string]string{"u1": "철수", "u2": "영희"},
		groupName: "우리 모임",
		members: []directory.Member{
			{UserID: "u1", Nickname: "철수"},
			{UserID: "u2", Nickname: "영희"},
		},
	}
	fx := newFixture(t, dir)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := fx.store.Increment(ctx, "room1", "u1", fx.now); err != nil {
			t.Fatalf("increment failed: %v", err)
		}
	}
	if _, err := fx.store.Increment(ctx, "room1", "u2", fx.now); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	if err := fx.coordinator.Push(ctx, "room1", domain.TriggerScheduled); err != nil {
		t.Fatalf("push failed: %v", err)
	}

	sent := fx.iris.items()
	if len(sent) != 1 || sent[0].kind != "text" || sent[0].room != "room1" {
		t.Fatalf("unexpected deliveries: %+v", sent)
	}
	for _, want := range []string{"우리 모임", "철수", "영희", "🥇"} {
		if !strings.Contains(sent[0].data, want) {
			t.Errorf("push text missing %q:\n%s", want, sent[0].data)
		}
	}

	records := fx.log.all()
	if len(records) != 1 {
		t.Fatalf("expected 1 push record, got %d", len(records))
	}
	rec := records[0]
	if rec.group != "room1" || rec.day != "2024-03-07" || rec.trigger != domain.TriggerScheduled {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.pushErr != nil || len(rec.entries) != 2 {
		t.Errorf("record should be a success with 2 entries: %+v", rec)
	}
	if rec.entries[0].Nickname != "철수" {
		t.Errorf("top entry nickname = %s, want 철수", rec.entries[0].Nickname)
	}
}

func TestPushImageModeOverride(t *testing.T) {
	dir := &fakeDirectory{
		nicknames: map[string]string{"u1": "철수"},
		groupName: "우리 모임",
		members:   []directory.Member{{UserID: "u1", Nickname: "철수"}},
	}
	fx := newFixture(t, dir)
	ctx := context.Background()

	if _, err := fx.store.Increment(ctx, "room1", "u1", fx.now); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if _, err := fx.settings.AddScheduleGroup("room1"); err != nil {
		t.Fatalf("add group failed: %v", err)
	}
	if err := fx.settings.SetGroupMode("room1", domain.DisplayImage); err != nil {
		t.Fatalf("set group mode failed: %v", err)
	}

	if err := fx.coordinator.Push(ctx, "room1", domain.TriggerManual); err != nil {
		t.Fatalf("push failed: %v", err)
	}

	sent := fx.iris.items()
	if len(sent) != 1 || sent[0].kind != "image" {
		t.Fatalf("expected image delivery, got %+v", sent)
	}
	raw, err := base64.StdEncoding.DecodeString(sent[0].data)
	if err != nil {
		t.Fatalf("image payload is not base64: %v", err)
	}
	// PNG 시그니처
	if len(raw) < 8 || raw[1] != 'P' || raw[2] != 'N' || raw[3] != 'G' {
		t.Errorf("payload is not a png image")
	}

	records := fx.log.all()
	if len(records) != 1 || records[0].mode != domain.DisplayImage || records[0].trigger != domain.TriggerManual {
		t.Errorf("unexpected record: %+v", records)
	}
}

func TestPushEmptyLeaderboardSendsNotice(t *testing.T) {
	dir := &fakeDirectory{groupName: "우리 모임"}
	fx := newFixture(t, dir)

	if err := fx.coordinator.Push(context.Background(), "room1", domain.TriggerScheduled); err != nil {
		t.Fatalf("push failed: %v", err)
	}

	sent := fx.iris.items()
	if len(sent) != 1 || sent[0].kind != "text" {
		t.Fatalf("expected text notice, got %+v", sent)
	}
	if !strings.Contains(sent[0].data, adapter.MsgNoRankData) {
		t.Errorf("notice missing no-data message:\n%s", sent[0].data)
	}
}

func TestPushDeliveryFailureRecorded(t *testing.T) {
	dir := &fakeDirectory{
		nicknames: map[string]string{"u1": "철수"},
		groupName: "우리 모임",
		members:   []directory.Member{{UserID: "u1", Nickname: "철수"}},
	}
	fx := newFixture(t, dir)
	fx.iris.failAt = "text"
	ctx := context.Background()

	if _, err := fx.store.Increment(ctx, "room1", "u1", fx.now); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	if err := fx.coordinator.Push(ctx, "room1", domain.TriggerScheduled); err == nil {
		t.Fatal("expected delivery error")
	}

	records := fx.log.all()
	if len(records) != 1 || records[0].pushErr == nil {
		t.Fatalf("failure should still be recorded: %+v", records)
	}
}

func TestPushProceedsWhenDirectoryDown(t *testing.T) {
	dir := &fakeDirectory{fail: true}
	fx := newFixture(t, dir)
	ctx := context.Background()

	if _, err := fx.store.Increment(ctx, "room1", "u1", fx.now); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	if err := fx.coordinator.Push(ctx, "room1", domain.TriggerScheduled); err != nil {
		t.Fatalf("push should survive directory outage: %v", err)
	}

	sent := fx.iris.items()
	if len(sent) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(sent))
	}
	// 닉네임을 못 구하면 원본 ID로 표시된다.
	if !strings.Contains(sent[0].data, "u1") {
		t.Errorf("fallback raw id missing:\n%s", sent[0].data)
	}
}
