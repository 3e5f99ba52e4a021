package systems

import (
	"errors"
	"log"

	"github.com/gonewx/frameplayer/pkg/animation"
	"github.com/gonewx/frameplayer/pkg/components"
	"github.com/gonewx/frameplayer/pkg/ecs"
)

// AnimationSystem 驱动所有拥有 SpriteComponent 的实体
//
// 每次 Update 依次：
//  1. 执行未处理的 AnimationCommandComponent
//  2. 按 AnimationComponent.SpeedScale 推进播放器
//  3. 以 SpriteComponent.Transform 渲染当前帧，写回 SpriteComponent.Image
//  4. 删除播放完成且标记了 RemoveOnComplete 的实体
//
// 实体被删除时，系统会释放其播放器（共享缓存不受影响）。
type AnimationSystem struct {
	entityManager *ecs.EntityManager

	hooked   map[ecs.EntityID]*animation.Player // 已注册通知回调的播放器
	reported map[ecs.EntityID]string            // 上次输出的渲染错误，避免每帧刷屏
}

// NewAnimationSystem 创建一个新的动画系统
func NewAnimationSystem(em *ecs.EntityManager) *AnimationSystem {
	s := &AnimationSystem{
		entityManager: em,
		hooked:        make(map[ecs.EntityID]*animation.Player),
		reported:      make(map[ecs.EntityID]string),
	}
	em.OnDestroy(s.onEntityDestroyed)
	return s
}

// Update 更新所有动画实体
func (s *AnimationSystem) Update(deltaTime float64) {
	s.processCommands()

	for _, id := range ecs.GetEntitiesWith1[*components.SpriteComponent](s.entityManager) {
		sprite, _ := ecs.GetComponent[*components.SpriteComponent](s.entityManager, id)
		if sprite.Player == nil || sprite.Player.Released() {
			continue
		}
		anim, _ := ecs.GetComponent[*components.AnimationComponent](s.entityManager, id)
		s.hook(id, sprite.Player)

		step := deltaTime
		if anim != nil && anim.SpeedScale > 0 {
			step *= anim.SpeedScale
		}
		if err := sprite.Player.Tick(step); err != nil {
			log.Printf("[AnimationSystem] 实体 %d 推进失败: %v", id, err)
			continue
		}

		_, err := sprite.Player.Render(sprite.Transform)
		// 渲染失败时 Image() 保留上一张成功的图片（或占位图）
		sprite.Image = sprite.Player.Image()
		s.report(id, err)

		if anim == nil {
			continue
		}
		anim.LastError = err
		anim.IsFinished = sprite.Player.Status() == animation.Completed
		if anim.IsFinished && anim.RemoveOnComplete {
			log.Printf("[AnimationSystem] 动画播放完成 (实体ID: %d, 单元: %s)，删除实体", id, anim.UnitID)
			s.entityManager.DestroyEntity(id)
		}
	}
}

// processCommands 执行所有未处理的动画命令
func (s *AnimationSystem) processCommands() {
	entities := ecs.GetEntitiesWith2[*components.AnimationCommandComponent, *components.SpriteComponent](s.entityManager)
	for _, id := range entities {
		cmd, _ := ecs.GetComponent[*components.AnimationCommandComponent](s.entityManager, id)
		if cmd.Processed {
			continue
		}
		sprite, _ := ecs.GetComponent[*components.SpriteComponent](s.entityManager, id)

		cmd.Err = executeCommand(sprite.Player, cmd)
		cmd.Processed = true
		if cmd.Err != nil {
			log.Printf("[AnimationSystem] 实体 %d 执行动画命令失败: %v", id, cmd.Err)
		}
	}
}

// executeCommand 按 PlayMode → State → Action 的顺序执行命令，返回第一个错误
func executeCommand(player *animation.Player, cmd *components.AnimationCommandComponent) error {
	if player == nil {
		return errors.New("entity has no player")
	}
	if cmd.PlayMode != "" {
		mode, err := animation.ParsePlayMode(cmd.PlayMode)
		if err != nil {
			return err
		}
		if err := player.SetPlayMode(mode); err != nil {
			return err
		}
	}
	if cmd.State != "" {
		if err := player.SetState(cmd.State, cmd.Reset, cmd.PreserveProgress); err != nil {
			return err
		}
	}

	switch cmd.Action {
	case components.ActionPlay:
		return player.Play()
	case components.ActionStop:
		return player.Stop()
	case components.ActionPause:
		return player.Pause()
	case components.ActionResume:
		return player.Resume()
	case components.ActionRewind:
		return player.Rewind()
	}
	return nil
}

// hook 为新出现的播放器注册通知回调，维护 AnimationComponent 的循环计数
func (s *AnimationSystem) hook(id ecs.EntityID, player *animation.Player) {
	if s.hooked[id] == player {
		return
	}
	s.hooked[id] = player

	// 回调里按ID重新查询组件，组件被替换后仍然生效
	player.OnCycle(func(_ string, count int) {
		if s.hooked[id] != player {
			return
		}
		if anim, ok := ecs.GetComponent[*components.AnimationComponent](s.entityManager, id); ok {
			anim.Cycles += count
		}
	})
	player.OnStateChange(func(state string) {
		if s.hooked[id] != player {
			return
		}
		if anim, ok := ecs.GetComponent[*components.AnimationComponent](s.entityManager, id); ok {
			anim.Cycles = 0
			anim.IsFinished = false
		}
	})
}

// report 只在错误发生变化时输出日志
func (s *AnimationSystem) report(id ecs.EntityID, err error) {
	if err == nil {
		delete(s.reported, id)
		return
	}
	msg := err.Error()
	if s.reported[id] == msg {
		return
	}
	s.reported[id] = msg
	log.Printf("[AnimationSystem] 实体 %d 渲染失败: %v", id, err)
}

// onEntityDestroyed 实体删除时释放播放器
func (s *AnimationSystem) onEntityDestroyed(id ecs.EntityID) {
	delete(s.hooked, id)
	delete(s.reported, id)
	sprite, ok := ecs.GetComponent[*components.SpriteComponent](s.entityManager, id)
	if !ok || sprite.Player == nil {
		return
	}
	sprite.Player.Release()
	sprite.Image = nil
}
