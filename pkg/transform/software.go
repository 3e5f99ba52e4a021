package transform

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Software 返回基于 CPU 重采样的变换函数
//
// interp 为 nil 时使用 draw.ApproxBiLinear。结果上传为新的 ebiten 图片。
func Software(interp draw.Transformer) func(src *ebiten.Image, width, height int, angle float64, flipX, flipY bool) (*ebiten.Image, error) {
	return func(src *ebiten.Image, width, height int, angle float64, flipX, flipY bool) (*ebiten.Image, error) {
		if src == nil {
			return nil, fmt.Errorf("transform: nil source image")
		}
		rgba, err := Resample(src, width, height, angle, flipX, flipY, interp)
		if err != nil {
			return nil, err
		}
		return ebiten.NewImageFromImage(rgba), nil
	}
}

// Resample 在 CPU 上对任意 image.Image 执行变换
func Resample(src image.Image, width, height int, angle float64, flipX, flipY bool, interp draw.Transformer) (*image.RGBA, error) {
	if src == nil {
		return nil, fmt.Errorf("transform: nil source image")
	}
	if interp == nil {
		interp = draw.ApproxBiLinear
	}
	b := src.Bounds()
	plan, err := NewPlan(b.Dx(), b.Dy(), width, height, angle, flipX, flipY)
	if err != nil {
		return nil, err
	}

	// 源图片的 Bounds 不一定从原点开始
	var g ebiten.GeoM
	g.Translate(-float64(b.Min.X), -float64(b.Min.Y))
	g.Concat(plan.GeoM)

	s2d := f64.Aff3{
		g.Element(0, 0), g.Element(0, 1), g.Element(0, 2),
		g.Element(1, 0), g.Element(1, 1), g.Element(1, 2),
	}
	dst := image.NewRGBA(image.Rect(0, 0, plan.OutW, plan.OutH))
	interp.Transform(dst, s2d, src, b, draw.Src, nil)
	return dst, nil
}
