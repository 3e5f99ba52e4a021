package systems

import (
	"math"
	"testing"

	"github.com/gonewx/frameplayer/pkg/components"
	"github.com/gonewx/frameplayer/pkg/ecs"
)

func TestScaleTweenSystem(t *testing.T) {
	tests := []struct {
		name      string
		tween     components.ScaleTweenComponent
		steps     []float64
		wantScale float64
		wantDone  bool
	}{
		{"过渡中点", components.ScaleTweenComponent{From: 0.2, To: 1.0, Duration: 0.4}, []float64{0.2}, 0.6, false},
		{"起点", components.ScaleTweenComponent{From: 0.5, To: 1.5, Duration: 1}, []float64{0}, 0.5, false},
		{"过渡结束", components.ScaleTweenComponent{From: 0.2, To: 1.0, Duration: 0.4}, []float64{0.2, 0.3}, 1.0, true},
		{"时长为零立即结束", components.ScaleTweenComponent{From: 3, To: 2}, []float64{0.01}, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			em := ecs.NewEntityManager()
			system := NewScaleTweenSystem(em)
			id := em.CreateEntity()
			tween := tt.tween
			ecs.AddComponent(em, id, &tween)

			for _, dt := range tt.steps {
				system.Update(dt)
			}

			scale, ok := ecs.GetComponent[*components.ScaleComponent](em, id)
			if !ok {
				t.Fatal("应自动添加 ScaleComponent")
			}
			if math.Abs(scale.ScaleX-tt.wantScale) > 1e-9 || scale.ScaleX != scale.ScaleY {
				t.Errorf("期望缩放 %v，实际 (%v, %v)", tt.wantScale, scale.ScaleX, scale.ScaleY)
			}
			if done := !ecs.HasComponent[*components.ScaleTweenComponent](em, id); done != tt.wantDone {
				t.Errorf("期望过渡结束=%v，实际 %v", tt.wantDone, done)
			}
		})
	}
}
