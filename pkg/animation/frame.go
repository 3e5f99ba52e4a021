package animation

import (
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// FrameID 帧标识：命名一张未经变换的原始图片，由外部图片提供者解析
type FrameID string

// FrameSource 帧来源（标签联合）
//
// 要么是一个交给 ImageProvider 解析的标识，要么是直接内联的图片。
// 内联图片在 Catalog.Register 时被分配合成标识，之后一律按 FrameID 访问。
type FrameSource struct {
	id    FrameID
	image *ebiten.Image
}

// Identifier 创建按标识解析的帧来源
func Identifier(id string) FrameSource {
	return FrameSource{id: FrameID(id)}
}

// InlineImage 创建直接持有图片的帧来源
func InlineImage(img *ebiten.Image) FrameSource {
	return FrameSource{image: img}
}

// Identifiers 将一组标识字符串转换为帧来源
func Identifiers(ids ...string) []FrameSource {
	sources := make([]FrameSource, len(ids))
	for i, id := range ids {
		sources[i] = Identifier(id)
	}
	return sources
}

// IsInline 是否为内联图片
func (s FrameSource) IsInline() bool { return s.image != nil }

// ID 返回标识（内联图片返回空字符串）
func (s FrameSource) ID() FrameID { return s.id }

// Image 返回内联图片（标识来源返回 nil）
func (s FrameSource) Image() *ebiten.Image { return s.image }

func (s FrameSource) empty() bool { return s.image == nil && s.id == "" }

// Size 目标尺寸，0 表示沿用原图尺寸
type Size struct {
	Width  int
	Height int
}

// Transform 一次渲染请求的变换参数
type Transform struct {
	Size  Size
	Angle float64 // 角度（度），任意实数，构建键时归一化到 [0, 360)
	FlipX bool
	FlipY bool
}

// rotationResolution 旋转角量化精度：0.01 度
const rotationResolution = 100

// TransformKey 变换缓存键
//
// 所有字段都可比较，两个键相等当且仅当各分量相等。
// 旋转角以百分之一度为单位量化，避免浮点噪声导致缓存键爆炸。
type TransformKey struct {
	Frame    FrameID
	Width    int
	Height   int
	Rotation int32 // [0, 36000)
	FlipX    bool
	FlipY    bool
}

// NewTransformKey 根据帧标识与变换参数构建缓存键
func NewTransformKey(frame FrameID, t Transform) TransformKey {
	return TransformKey{
		Frame:    frame,
		Width:    t.Size.Width,
		Height:   t.Size.Height,
		Rotation: quantizeAngle(t.Angle),
		FlipX:    t.FlipX,
		FlipY:    t.FlipY,
	}
}

func quantizeAngle(angle float64) int32 {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return 0
	}
	const full = 360 * rotationResolution
	q := math.Mod(math.Round(angle*rotationResolution), full)
	if q < 0 {
		q += full
	}
	return int32(q)
}

// Angle 返回量化后的角度（度）
func (k TransformKey) Angle() float64 {
	return float64(k.Rotation) / rotationResolution
}

// String 返回规范化的字符串形式，同时作为 singleflight 的键
func (k TransformKey) String() string {
	return fmt.Sprintf("%s|%dx%d|r%d|fx=%t|fy=%t", k.Frame, k.Width, k.Height, k.Rotation, k.FlipX, k.FlipY)
}
