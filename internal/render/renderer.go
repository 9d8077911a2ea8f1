// Package render: 리더보드를 PNG 이미지로 그리는 렌더러.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/kapu/groupstats-kakao-bot-go/internal/constants"
	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/util"
)

var (
	backgroundColor = color.RGBA{R: 0xFA, G: 0xFA, B: 0xF5, A: 0xFF}
	headerColor     = color.RGBA{R: 0x2B, G: 0x2B, B: 0x2B, A: 0xFF}
	rowColor        = color.RGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xFF}
	barColor        = color.RGBA{R: 0x7F, G: 0xB2, B: 0xE5, A: 0xFF}
	topRankColor    = color.RGBA{R: 0xC8, G: 0x8A, B: 0x1E, A: 0xFF}
)

// Renderer: 리더보드 PNG 렌더러
type Renderer struct {
	face font.Face
}

// NewRenderer 는 동작을 수행한다.
// 기본 내장 폰트는 한글 글리프가 없으므로 한글 닉네임을 그리려면
// LoadFont로 TTF/OTF 폰트를 올려야 한다.
func NewRenderer() *Renderer {
	return &Renderer{face: basicfont.Face7x13}
}

// LoadFont: 지정한 경로의 TTF/OTF 폰트를 읽어 렌더링에 사용한다.
// 실패하면 기존 폰트를 유지한 채 에러를 반환한다.
func (r *Renderer) LoadFont(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read font file: %w", err)
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    constants.RenderConfig.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("failed to create font face: %w", err)
	}

	r.face = face
	return nil
}

// Render: 리더보드를 PNG 바이트로 렌더링한다.
// 항목이 없으면 안내 문구만 그린 이미지를 반환한다.
func (r *Renderer) Render(lb *domain.Leaderboard) ([]byte, error) {
	rows := len(lb.Entries)
	if rows > constants.RenderConfig.MaxRows {
		rows = constants.RenderConfig.MaxRows
	}
	if rows == 0 {
		rows = 1 // "no data" 한 줄
	}

	width := constants.RenderConfig.Width
	height := constants.RenderConfig.HeaderHeight + rows*constants.RenderConfig.RowHeight + constants.RenderConfig.Padding

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: backgroundColor}, image.Point{}, draw.Src)

	// 헤더: 그룹명 + 범위 + 생성 날짜
	title := fmt.Sprintf("%s %s ranking - %s",
		displayGroup(lb), lb.Window.Label(), lb.GeneratedAt.Format(util.DayKeyLayout))
	r.drawText(img, constants.RenderConfig.Padding, 22, title, headerColor)

	if len(lb.Entries) == 0 {
		r.drawText(img, constants.RenderConfig.Padding, constants.RenderConfig.HeaderHeight+14, "no activity recorded", rowColor)
		return encodePNG(img)
	}

	for i, entry := range lb.Entries {
		if i >= constants.RenderConfig.MaxRows {
			break
		}
		y := constants.RenderConfig.HeaderHeight + i*constants.RenderConfig.RowHeight

		// 비율 막대
		barWidth := int(float64(width-2*constants.RenderConfig.Padding) * entry.Percent / 100)
		if barWidth > 0 {
			barRect := image.Rect(
				constants.RenderConfig.Padding, y+4,
				constants.RenderConfig.Padding+barWidth, y+constants.RenderConfig.RowHeight-4,
			)
			draw.Draw(img, barRect, &image.Uniform{C: barColor}, image.Point{}, draw.Src)
		}

		textColor := rowColor
		if entry.Rank <= 3 {
			textColor = topRankColor
		}
		line := fmt.Sprintf("%2d. %s  %d (%.1f%%)",
			entry.Rank, util.TruncateString(entry.Nickname, 16), entry.Count, entry.Percent)
		r.drawText(img, constants.RenderConfig.Padding, y+15, line, textColor)
	}

	return encodePNG(img)
}

func (r *Renderer) drawText(img *image.RGBA, x, y int, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func displayGroup(lb *domain.Leaderboard) string {
	if lb.GroupName != "" {
		return lb.GroupName
	}
	return lb.Group
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
