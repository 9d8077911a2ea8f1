package render

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func testLeaderboard() *domain.Leaderboard {
	return &domain.Leaderboard{
		Group:     "room1",
		GroupName: "우리 모임",
		Window:    domain.WindowToday,
		Entries: []domain.RankEntry{
			{Rank: 1, UserID: "u1", Nickname: "철수", Count: 30, Percent: 60},
			{Rank: 2, UserID: "u2", Nickname: "영희", Count: 20, Percent: 40},
		},
		Total:       50,
		Members:     2,
		GeneratedAt: time.Date(2024, 3, 7, 21, 0, 0, 0, time.UTC),
	}
}

func TestRenderProducesPNG(t *testing.T) {
	r := NewRenderer()

	image, err := r.Render(testLeaderboard())
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(image, pngSignature) {
		t.Fatalf("output is not a PNG: % x", image[:8])
	}
}

func TestRenderEmptyLeaderboard(t *testing.T) {
	r := NewRenderer()
	lb := &domain.Leaderboard{Group: "room1", Window: domain.WindowTotal, GeneratedAt: time.Now()}

	image, err := r.Render(lb)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(image, pngSignature) {
		t.Fatal("empty leaderboard should still render a PNG")
	}
}

func TestLoadFontMissingFile(t *testing.T) {
	r := NewRenderer()

	if err := r.LoadFont(filepath.Join(t.TempDir(), "missing.ttf")); err == nil {
		t.Fatal("expected error for missing font file")
	}

	// 로드 실패 후에도 내장 폰트로 계속 렌더링할 수 있어야 한다.
	if _, err := r.Render(testLeaderboard()); err != nil {
		t.Fatalf("render after failed font load: %v", err)
	}
}

func TestLoadFontInvalidData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.ttf")
	if err := os.WriteFile(path, []byte("not a font"), 0o644); err != nil {
		t.Fatalf("write fixture failed: %v", err)
	}

	r := NewRenderer()
	if err := r.LoadFont(path); err == nil {
		t.Fatal("expected parse error for invalid font data")
	}
}
