package transform

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// GPU 使用 ebiten 绘制完成变换，总是返回一张新图片
func GPU(src *ebiten.Image, width, height int, angle float64, flipX, flipY bool) (*ebiten.Image, error) {
	if src == nil {
		return nil, fmt.Errorf("transform: nil source image")
	}
	b := src.Bounds()
	plan, err := NewPlan(b.Dx(), b.Dy(), width, height, angle, flipX, flipY)
	if err != nil {
		return nil, err
	}

	dst := ebiten.NewImage(plan.OutW, plan.OutH)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = plan.GeoM
	if !plan.IsIdentity() {
		op.Filter = ebiten.FilterLinear
	}
	dst.DrawImage(src, op)
	return dst, nil
}
