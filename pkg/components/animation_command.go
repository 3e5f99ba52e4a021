package components

// CommandAction 动画命令附带的播放控制动作
type CommandAction int

const (
	ActionNone   CommandAction = iota // 不改变播放状态
	ActionPlay                        // Stopped → Playing
	ActionStop                        // 停止并回到第 0 帧
	ActionPause                       // Playing → Paused
	ActionResume                      // Paused → Playing
	ActionRewind                      // 回到第 0 帧，保持播放状态
)

// AnimationCommandComponent 动画播放命令组件(纯数据)
//
// 设计目的:
//
//	解除系统间的直接耦合,使状态切换请求通过 ECS 组件机制传递
//
// 生命周期:
//  1. 其他系统或输入处理添加此组件到实体
//  2. AnimationSystem 在 Update() 中查询并执行命令（先于 Tick）
//  3. 执行后标记 Processed = true，失败原因写入 Err
//
// 示例:
//
//	// 切换到攻击状态并从头播放
//	ecs.AddComponent(em, knightID, &components.AnimationCommandComponent{
//	    State: "attack",
//	    Reset: true,
//	})
//
//	// 只暂停，不切换状态
//	ecs.AddComponent(em, knightID, &components.AnimationCommandComponent{
//	    Action: components.ActionPause,
//	})
//
// 注意事项:
//   - 一个实体同时只应有一个 AnimationCommand(后续命令会覆盖前一个)
//   - 执行顺序: PlayMode → State → Action
type AnimationCommandComponent struct {
	// State 目标状态名，为空表示不切换状态
	State string

	// Reset 切换后是否从第 0 帧开始
	Reset bool

	// PreserveProgress 是否保留动画进度（Reset 为 false 时生效）
	// true: 新状态从 floor(旧帧索引 / 旧帧数 * 新帧数) 开始
	// false: 沿用旧帧索引，超出范围时取最后一帧
	PreserveProgress bool

	// PlayMode 新的播放模式（"loop" / "once" / "pingpong"），为空表示不变
	PlayMode string

	// Action 附带的播放控制动作
	Action CommandAction

	// Processed 是否已被 AnimationSystem 处理
	Processed bool

	// Timestamp 命令创建时间(游戏时间,单位:秒)，由添加组件的一方设置(可选)
	Timestamp float64

	// Err 执行失败的原因（未知状态、非法模式等），成功时为 nil
	Err error
}
