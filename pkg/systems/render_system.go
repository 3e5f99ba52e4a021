package systems

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/gonewx/frameplayer/pkg/components"
	"github.com/gonewx/frameplayer/pkg/ecs"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	debugBoundsColor = color.RGBA{R: 0, G: 255, B: 0, A: 200}
	debugErrorColor  = color.RGBA{R: 255, G: 64, B: 64, A: 255}
)

// RenderSystem 把 SpriteComponent.Image 绘制到屏幕上
//
// 精灵以 PositionComponent 为中心绘制，叠放顺序由 SpriteComponent.Z 决定，
// 同层按实体ID升序。ScaleComponent 在绘制时额外缩放，不影响变换缓存。
type RenderSystem struct {
	entityManager *ecs.EntityManager
	ShowDebug     bool // 为 true 时绘制包围盒与播放状态
}

// NewRenderSystem 创建一个新的渲染系统
func NewRenderSystem(em *ecs.EntityManager) *RenderSystem {
	return &RenderSystem{
		entityManager: em,
	}
}

// drawOrder 返回需要绘制的实体，按 Z 升序、实体ID升序排列
func (s *RenderSystem) drawOrder() []ecs.EntityID {
	entities := ecs.GetEntitiesWith2[*components.PositionComponent, *components.SpriteComponent](s.entityManager)
	sort.SliceStable(entities, func(i, j int) bool {
		a, _ := ecs.GetComponent[*components.SpriteComponent](s.entityManager, entities[i])
		b, _ := ecs.GetComponent[*components.SpriteComponent](s.entityManager, entities[j])
		return a.Z < b.Z
	})
	return entities
}

// Draw 绘制所有拥有位置和精灵组件的实体
// 参数:
//   - screen: 绘制目标屏幕
//   - cameraX: 摄像机的世界坐标X位置
func (s *RenderSystem) Draw(screen *ebiten.Image, cameraX float64) {
	for _, id := range s.drawOrder() {
		s.drawEntity(screen, id, cameraX)
	}
	if s.ShowDebug {
		s.DrawDebug(screen, cameraX)
	}
}

// DrawEntity 绘制单个实体
func (s *RenderSystem) DrawEntity(screen *ebiten.Image, id ecs.EntityID, cameraX float64) {
	s.drawEntity(screen, id, cameraX)
}

func (s *RenderSystem) drawEntity(screen *ebiten.Image, id ecs.EntityID, cameraX float64) bool {
	sprite, ok := ecs.GetComponent[*components.SpriteComponent](s.entityManager, id)
	if !ok || sprite.Image == nil || sprite.Hidden {
		return false
	}
	pos, ok := ecs.GetComponent[*components.PositionComponent](s.entityManager, id)
	if !ok {
		return false
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM = spriteGeoM(s.entityManager, id, sprite, pos, cameraX)
	screen.DrawImage(sprite.Image, op)
	return true
}

// spriteGeoM 计算居中绘制的几何变换：先以图片中心为原点缩放，再平移到屏幕坐标
func spriteGeoM(em *ecs.EntityManager, id ecs.EntityID, sprite *components.SpriteComponent, pos *components.PositionComponent, cameraX float64) ebiten.GeoM {
	b := sprite.Image.Bounds()
	var g ebiten.GeoM
	g.Translate(-float64(b.Dx())/2, -float64(b.Dy())/2)
	if scale, ok := ecs.GetComponent[*components.ScaleComponent](em, id); ok {
		g.Scale(scale.ScaleX, scale.ScaleY)
	}
	g.Translate(pos.X-cameraX, pos.Y)
	return g
}

// DrawDebug 绘制每个精灵的包围盒以及状态、帧号、播放状态
func (s *RenderSystem) DrawDebug(screen *ebiten.Image, cameraX float64) {
	for _, id := range s.drawOrder() {
		sprite, _ := ecs.GetComponent[*components.SpriteComponent](s.entityManager, id)
		pos, _ := ecs.GetComponent[*components.PositionComponent](s.entityManager, id)
		if sprite.Player == nil || sprite.Player.Released() {
			continue
		}

		x, y := pos.X-cameraX, pos.Y
		if sprite.Image != nil {
			g := spriteGeoM(s.entityManager, id, sprite, pos, cameraX)
			b := sprite.Image.Bounds()
			x0, y0 := g.Apply(0, 0)
			x1, y1 := g.Apply(float64(b.Dx()), float64(b.Dy()))
			vector.StrokeRect(screen, float32(x0), float32(y0), float32(x1-x0), float32(y1-y0), 1, debugBoundsColor, false)
			y = y1
		}

		snap := sprite.Player.Snapshot()
		label := fmt.Sprintf("#%d %s[%d] %s %s", id, snap.State, snap.FrameIndex, snap.Status, snap.Mode)
		if anim, ok := ecs.GetComponent[*components.AnimationComponent](s.entityManager, id); ok && anim.LastError != nil {
			vector.DrawFilledRect(screen, float32(x)-3, float32(y)+2, 6, 6, debugErrorColor, false)
		}
		ebitenutil.DebugPrintAt(screen, label, int(x)-len(label)*3, int(y)+10)
	}
}
