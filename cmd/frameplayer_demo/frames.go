// cmd/frameplayer_demo/frames.go
// 占位帧生成 - 没有图片文件时按状态生成可辨认的彩色帧

package main

import (
	"hash/fnv"
	"image"

	"github.com/gonewx/frameplayer/pkg/animation"
	"github.com/gonewx/frameplayer/pkg/config"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
)

// generatedSize 生成帧的边长
const generatedSize = 64

// frameInfo 从单元配置中找到帧所在的状态与序号
func frameInfo(unit *config.AnimationConfig, id animation.FrameID) (state string, index, count int, ok bool) {
	for _, name := range unit.StateNames() {
		frames := unit.Frames[name]
		for i, f := range frames {
			if animation.FrameID(f) == id {
				return name, i, len(frames), true
			}
		}
	}
	return "", 0, 0, false
}

// stateHue 为状态分配稳定的色相
func stateHue(unitID, state string) float64 {
	h := fnv.New32a()
	h.Write([]byte(unitID + "/" + state))
	return float64(h.Sum32() % 360)
}

// generateFrame 生成一帧：底色表示状态，亮条位置表示帧序号
func generateFrame(unit *config.AnimationConfig, id animation.FrameID) (image.Image, bool) {
	state, index, count, ok := frameInfo(unit, id)
	if !ok {
		return nil, false
	}
	hue := stateHue(unit.ID, state)

	img := image.NewRGBA(image.Rect(0, 0, generatedSize, generatedSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorful.Hcl(hue, 0.4, 0.35).Clamped()), image.Point{}, draw.Src)

	// 帧序号越大亮条越靠右、越亮
	barW := generatedSize / count
	if barW < 2 {
		barW = 2
	}
	x0 := index * (generatedSize - barW) / max(count-1, 1)
	lum := 0.6 + 0.3*float64(index)/float64(max(count-1, 1))
	bar := image.Rect(x0, generatedSize/4, x0+barW, generatedSize*3/4)
	draw.Draw(img, bar, image.NewUniform(colorful.Hcl(hue, 0.8, lum).Clamped()), image.Point{}, draw.Src)

	// 左上角标记，旋转和翻转时可辨认方向
	draw.Draw(img, image.Rect(0, 0, 8, 8), image.NewUniform(colorful.Color{R: 1, G: 1, B: 1}), image.Point{}, draw.Src)
	return img, true
}

// generatedFrames 直接生成帧的提供者，数据存储不可用时兜底
func generatedFrames(unit *config.AnimationConfig) animation.ImageProvider {
	return animation.ProviderFunc(func(id animation.FrameID) (*ebiten.Image, error) {
		img, ok := generateFrame(unit, id)
		if !ok {
			return nil, &animation.MissingResourceError{Frame: id}
		}
		return ebiten.NewImageFromImage(img), nil
	})
}
