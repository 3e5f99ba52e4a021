package entities

import (
	"errors"
	"testing"

	"github.com/gonewx/frameplayer/pkg/animation"
	"github.com/gonewx/frameplayer/pkg/components"
	"github.com/gonewx/frameplayer/pkg/config"
	"github.com/gonewx/frameplayer/pkg/ecs"
	"github.com/gonewx/frameplayer/pkg/provider"
	"github.com/hajimehoshi/ebiten/v2"
)

// newTestUnit 创建 knight 配置单元：walk 4 帧、attack 2 帧
func newTestUnit(t *testing.T) *config.AnimationConfig {
	t.Helper()
	unit := &config.AnimationConfig{
		ID: "knight",
		Frames: map[string][]string{
			"walk":   {"walk_0", "walk_1", "walk_2", "walk_3"},
			"attack": {"attack_0", "attack_1"},
		},
		FrameDuration: 0.1,
		InitialState:  "walk",
		InitialScale:  []int{16, 8},
	}
	unit.ApplyDefaults()
	if err := unit.Validate(); err != nil {
		t.Fatalf("测试配置非法: %v", err)
	}
	return unit
}

// newTestSpawn 为 knight 的所有帧准备 8x4 的图片
func newTestSpawn(t *testing.T, unit *config.AnimationConfig) Spawn {
	t.Helper()
	images := make(map[string]*ebiten.Image)
	for _, id := range unit.FrameIDs() {
		images[string(id)] = ebiten.NewImage(8, 4)
	}
	cache, err := animation.NewTransformCache(32, animation.CacheOptions{Logger: animation.NopLogger{}})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cache.Release() })
	return Spawn{Images: provider.NewMap(images), Cache: cache, Logger: animation.NopLogger{}}
}

func TestNewAnimatedEntity(t *testing.T) {
	em := ecs.NewEntityManager()
	unit := newTestUnit(t)
	spawn := newTestSpawn(t, unit)

	id, err := NewAnimatedEntity(em, unit, spawn, 100, 200)
	if err != nil {
		t.Fatalf("创建实体失败: %v", err)
	}

	pos, ok := ecs.GetComponent[*components.PositionComponent](em, id)
	if !ok || pos.X != 100 || pos.Y != 200 {
		t.Errorf("位置组件不符: %+v", pos)
	}
	sprite, ok := ecs.GetComponent[*components.SpriteComponent](em, id)
	if !ok || sprite.Player == nil {
		t.Fatal("应挂载播放器")
	}
	if sprite.Player.State() != "walk" || sprite.Player.Mode() != animation.Loop {
		t.Errorf("初始状态不符: %s %v", sprite.Player.State(), sprite.Player.Mode())
	}
	if sprite.Player.Cache() != spawn.Cache {
		t.Error("应使用共享缓存")
	}
	if sprite.Transform.Size != (animation.Size{Width: 16, Height: 8}) {
		t.Errorf("渲染尺寸应取自 initial_scale，实际 %+v", sprite.Transform.Size)
	}
	anim, ok := ecs.GetComponent[*components.AnimationComponent](em, id)
	if !ok || anim.UnitID != "knight" || anim.RemoveOnComplete {
		t.Errorf("动画组件不符: %+v", anim)
	}

	img, err := sprite.Player.Render(sprite.Transform)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Errorf("期望 16x8，实际 %v", b)
	}
}

func TestNewAnimatedEntity_Errors(t *testing.T) {
	em := ecs.NewEntityManager()
	unit := newTestUnit(t)
	spawn := newTestSpawn(t, unit)

	badMode := *unit
	badMode.PlayMode = "shuffle"
	badState := *unit
	badState.InitialState = "fly"

	tests := []struct {
		name    string
		em      *ecs.EntityManager
		unit    *config.AnimationConfig
		wantErr error
	}{
		{"实体管理器为空", nil, unit, nil},
		{"配置为空", em, nil, nil},
		{"播放模式非法", em, &badMode, animation.ErrConfig},
		{"初始状态不存在", em, &badState, animation.ErrConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewAnimatedEntity(tt.em, tt.unit, spawn, 0, 0)
			if err == nil || id != 0 {
				t.Fatalf("期望返回错误，实际 id=%d err=%v", id, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际 %v", tt.wantErr, err)
			}
		})
	}
	if em.EntityCount() != 0 {
		t.Errorf("失败时不应创建实体，实际 %d", em.EntityCount())
	}
}

func TestNewEffectEntity(t *testing.T) {
	em := ecs.NewEntityManager()
	unit := newTestUnit(t)
	spawn := newTestSpawn(t, unit)

	id, err := NewEffectEntity(em, unit, spawn, "attack", 10, 10)
	if err != nil {
		t.Fatalf("创建特效失败: %v", err)
	}
	sprite, _ := ecs.GetComponent[*components.SpriteComponent](em, id)
	anim, _ := ecs.GetComponent[*components.AnimationComponent](em, id)
	if sprite.Player.State() != "attack" || sprite.Player.Mode() != animation.Once {
		t.Errorf("特效应以 once 模式播放 attack，实际 %s %v", sprite.Player.State(), sprite.Player.Mode())
	}
	if !anim.RemoveOnComplete || sprite.Z != 1 {
		t.Errorf("特效组件不符: %+v z=%d", anim, sprite.Z)
	}

	if _, err := NewEffectEntity(em, unit, spawn, "fly", 0, 0); !errors.Is(err, animation.ErrUnknownState) {
		t.Errorf("未知状态应返回 ErrUnknownState，实际 %v", err)
	}
	if n := em.RemoveMarkedEntities(); n != 1 {
		t.Errorf("失败的特效实体应被清理，实际删除 %d", n)
	}
}
