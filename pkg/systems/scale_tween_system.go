package systems

import (
	"github.com/fogleman/ease"
	"github.com/gonewx/frameplayer/pkg/components"
	"github.com/gonewx/frameplayer/pkg/ecs"
)

// ScaleTweenSystem 推进 ScaleTweenComponent，按 InOutQuad 曲线写入 ScaleComponent
type ScaleTweenSystem struct {
	entityManager *ecs.EntityManager
}

// NewScaleTweenSystem 创建缩放过渡系统
func NewScaleTweenSystem(em *ecs.EntityManager) *ScaleTweenSystem {
	return &ScaleTweenSystem{entityManager: em}
}

// Update 推进所有缩放过渡
func (s *ScaleTweenSystem) Update(deltaTime float64) {
	for _, id := range ecs.GetEntitiesWith1[*components.ScaleTweenComponent](s.entityManager) {
		tween, _ := ecs.GetComponent[*components.ScaleTweenComponent](s.entityManager, id)
		tween.Elapsed += deltaTime

		t := 1.0
		if tween.Duration > 0 && tween.Elapsed < tween.Duration {
			t = tween.Elapsed / tween.Duration
		}
		v := tween.From + (tween.To-tween.From)*ease.InOutQuad(t)

		scale, ok := ecs.GetComponent[*components.ScaleComponent](s.entityManager, id)
		if !ok {
			scale = &components.ScaleComponent{}
			ecs.AddComponent(s.entityManager, id, scale)
		}
		scale.ScaleX, scale.ScaleY = v, v

		if t >= 1 {
			ecs.RemoveComponent[*components.ScaleTweenComponent](s.entityManager, id)
		}
	}
}
