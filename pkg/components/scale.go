package components

// ScaleComponent 存储实体级别的绘制缩放因子
// 在绘制时通过 GeoM 施加（如点击反馈的弹跳效果）
//
// 与 SpriteComponent.Transform.Size 不同：
// - Transform.Size 决定缓存中帧图片的像素尺寸，变化会产生新的缓存条目
// - ScaleComponent 只影响绘制，适合每帧变化的短暂效果
//
// 最终显示尺寸 = Transform.Size * ScaleComponent.ScaleX/ScaleY
type ScaleComponent struct {
	// ScaleX X轴缩放因子（1.0 = 原始大小，0.5 = 50%，2.0 = 200%）
	ScaleX float64

	// ScaleY Y轴缩放因子（1.0 = 原始大小，0.5 = 50%，2.0 = 200%）
	ScaleY float64
}
