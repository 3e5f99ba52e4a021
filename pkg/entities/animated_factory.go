package entities

import (
	"fmt"

	"github.com/gonewx/frameplayer/pkg/animation"
	"github.com/gonewx/frameplayer/pkg/components"
	"github.com/gonewx/frameplayer/pkg/config"
	"github.com/gonewx/frameplayer/pkg/ecs"
)

// Spawn 创建动画实体所需的运行环境
// 同一场景中的实体通常共享 Images 与 Cache
type Spawn struct {
	Images animation.ImageProvider   // 原始帧图片来源
	Cache  *animation.TransformCache // 共享变换缓存；nil 时每个播放器使用私有缓存
	Logger animation.Logger          // nil 时使用 animation.StdLogger
}

// NewAnimatedEntity 按配置单元创建动画实体
//
// 实体拥有 PositionComponent、SpriteComponent 与 AnimationComponent，
// 渲染尺寸取自 initial_scale（为空时沿用原图尺寸）。
//
// 参数:
//   - em: 实体管理器
//   - unit: 已校验的动画配置单元
//   - spawn: 图片来源与共享缓存
//   - x, y: 实体中心的世界坐标
//
// 返回:
//   - ecs.EntityID: 创建的实体ID，失败时返回 0
//   - error: 配置非法或初始状态不存在时返回错误
func NewAnimatedEntity(em *ecs.EntityManager, unit *config.AnimationConfig, spawn Spawn, x, y float64) (ecs.EntityID, error) {
	if em == nil {
		return 0, fmt.Errorf("entity manager cannot be nil")
	}
	if unit == nil {
		return 0, fmt.Errorf("animation config cannot be nil")
	}

	catalog, err := unit.Catalog()
	if err != nil {
		return 0, fmt.Errorf("unit %s: %w", unit.ID, err)
	}
	opts, err := unit.PlayerOptions(spawn.Images, spawn.Cache, spawn.Logger)
	if err != nil {
		return 0, fmt.Errorf("unit %s: %w", unit.ID, err)
	}
	player, err := animation.NewPlayer(catalog, opts)
	if err != nil {
		return 0, fmt.Errorf("unit %s: %w", unit.ID, err)
	}

	entityID := em.CreateEntity()
	ecs.AddComponent(em, entityID, &components.PositionComponent{X: x, Y: y})
	ecs.AddComponent(em, entityID, &components.SpriteComponent{
		Player:    player,
		Transform: animation.Transform{Size: unit.Scale()},
	})
	ecs.AddComponent(em, entityID, &components.AnimationComponent{
		UnitID:     unit.ID,
		SpeedScale: 1.0,
	})
	return entityID, nil
}

// NewEffectEntity 创建一次性特效实体：以 once 模式播放指定状态，播放完成后自动删除
//
// 参数:
//   - state: 要播放的状态名，为空时使用配置的初始状态
//
// 返回:
//   - ecs.EntityID: 创建的实体ID，失败时返回 0
//   - error: 创建失败或状态不存在时返回错误
func NewEffectEntity(em *ecs.EntityManager, unit *config.AnimationConfig, spawn Spawn, state string, x, y float64) (ecs.EntityID, error) {
	entityID, err := NewAnimatedEntity(em, unit, spawn, x, y)
	if err != nil {
		return 0, err
	}

	sprite, _ := ecs.GetComponent[*components.SpriteComponent](em, entityID)
	anim, _ := ecs.GetComponent[*components.AnimationComponent](em, entityID)
	anim.RemoveOnComplete = true
	// 特效叠放在普通精灵之上
	sprite.Z = 1

	if err := sprite.Player.SetPlayMode(animation.Once); err != nil {
		sprite.Player.Release()
		em.DestroyEntity(entityID)
		return 0, err
	}
	if state != "" {
		if err := sprite.Player.SwitchTo(state); err != nil {
			sprite.Player.Release()
			em.DestroyEntity(entityID)
			return 0, fmt.Errorf("effect %s: %w", unit.ID, err)
		}
	}
	return entityID, nil
}
