// cmd/frameplayer_demo/text.go
// 文字绘制 - 有中文字体时用 text/v2，否则降级到调试字体

package main

import (
	"bytes"
	"fmt"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

const lineSpacing = 18

// loadFont 加载字体文件
func loadFont(path string, size float64) (*text.GoTextFace, error) {
	fontData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取字体文件 %s: %w", path, err)
	}

	source, err := text.NewGoTextFaceSource(bytes.NewReader(fontData))
	if err != nil {
		return nil, fmt.Errorf("无法创建字体源 %s: %w", path, err)
	}

	return &text.GoTextFace{
		Source:    source,
		Size:      size,
		Direction: text.DirectionLeftToRight,
	}, nil
}

// drawText 在 (x, y) 绘制多行文字（重用 DrawOptions）
func (g *Game) drawText(screen *ebiten.Image, s string, x, y int) {
	if g.textFont == nil {
		ebitenutil.DebugPrintAt(screen, s, x, y)
		return
	}
	g.textDrawOpts.GeoM.Reset()
	g.textDrawOpts.GeoM.Translate(float64(x), float64(y))
	g.textDrawOpts.ColorScale.Reset()
	g.textDrawOpts.ColorScale.ScaleWithColor(color.White)
	g.textDrawOpts.LineSpacing = lineSpacing
	text.Draw(screen, s, g.textFont, &g.textDrawOpts)
}
