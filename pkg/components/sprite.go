package components

import (
	"github.com/gonewx/frameplayer/pkg/animation"
	"github.com/hajimehoshi/ebiten/v2"
)

// SpriteComponent 存储实体的帧动画播放器以及当前绘制的图像
//
// Player 由实体独占，实体删除时由 AnimationSystem 释放。
// Image 由 AnimationSystem 在每次 Update 后写入，渲染系统只读取它。
type SpriteComponent struct {
	Player *animation.Player

	// Transform 每帧向播放器请求的变换（目标尺寸、旋转、翻转）
	// 结果经由 TransformCache 复用，频繁变化的尺寸会产生大量缓存条目
	Transform animation.Transform

	Image  *ebiten.Image // 最近一次渲染的图像，尚未渲染时为 nil
	Hidden bool          // 为 true 时跳过绘制，动画仍然推进
	Z      int           // 绘制层级，越大越靠上；同层按实体ID顺序
}
