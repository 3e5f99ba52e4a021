// Package transform 提供帧图片的缩放/旋转/翻转实现
//
// GPU 通过 ebiten 的 GeoM 在显卡上绘制；Software 使用 golang.org/x/image/draw 在 CPU 上重采样，
// 适用于需要像素级确定结果的场景（如离线预处理、测试）。
// 两者共享同一个 Plan，因此输出尺寸与几何关系完全一致。
package transform

import (
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Plan 一次变换的几何计划
type Plan struct {
	SrcW, SrcH       int // 原图尺寸
	ScaledW, ScaledH int // 缩放后（旋转前）的尺寸
	OutW, OutH       int // 输出图片尺寸（旋转后的外接矩形）

	// GeoM 将原图坐标映射到输出图片坐标：缩放 -> 以中心翻转 -> 以中心旋转 -> 平移到输出中心
	GeoM ebiten.GeoM
}

// NewPlan 计算变换计划
//
// 参数：
//   - srcW, srcH: 原图尺寸，必须 > 0
//   - width, height: 目标尺寸，0 表示沿用原图对应边
//   - angle: 旋转角度（度），正值为逆时针
//   - flipX, flipY: 水平/垂直翻转
func NewPlan(srcW, srcH, width, height int, angle float64, flipX, flipY bool) (Plan, error) {
	if srcW <= 0 || srcH <= 0 {
		return Plan{}, fmt.Errorf("transform: empty source image %dx%d", srcW, srcH)
	}
	if width < 0 || height < 0 {
		return Plan{}, fmt.Errorf("transform: negative target size %dx%d", width, height)
	}

	w, h := srcW, srcH
	if width > 0 {
		w = width
	}
	if height > 0 {
		h = height
	}

	rad := angle * math.Pi / 180
	cos, sin := math.Abs(math.Cos(rad)), math.Abs(math.Sin(rad))
	outW := ceilSize(float64(w)*cos + float64(h)*sin)
	outH := ceilSize(float64(w)*sin + float64(h)*cos)

	var g ebiten.GeoM
	g.Scale(float64(w)/float64(srcW), float64(h)/float64(srcH))
	g.Translate(-float64(w)/2, -float64(h)/2)
	fx, fy := 1.0, 1.0
	if flipX {
		fx = -1
	}
	if flipY {
		fy = -1
	}
	g.Scale(fx, fy)
	if rad != 0 {
		// 屏幕坐标 y 轴向下，逆时针需要取负角
		g.Rotate(-rad)
	}
	g.Translate(float64(outW)/2, float64(outH)/2)

	return Plan{
		SrcW: srcW, SrcH: srcH,
		ScaledW: w, ScaledH: h,
		OutW: outW, OutH: outH,
		GeoM: g,
	}, nil
}

// IsIdentity 变换是否不改变任何像素
func (p Plan) IsIdentity() bool {
	return p.OutW == p.SrcW && p.OutH == p.SrcH &&
		p.GeoM.Element(0, 0) == 1 && p.GeoM.Element(1, 1) == 1 &&
		p.GeoM.Element(0, 1) == 0 && p.GeoM.Element(1, 0) == 0 &&
		p.GeoM.Element(0, 2) == 0 && p.GeoM.Element(1, 2) == 0
}

// ceilSize 向上取整，容忍三角函数的浮点噪声（如 cos(90°) ≈ 6e-17）
func ceilSize(v float64) int {
	n := int(math.Ceil(v - 1e-6))
	if n < 1 {
		return 1
	}
	return n
}
