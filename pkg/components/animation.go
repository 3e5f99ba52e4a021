package components

// AnimationComponent 实体级的播放策略与运行结果
//
// 播放游标本身保存在 SpriteComponent.Player 中，
// 这里只存放宿主关心的附加信息，由 AnimationSystem 维护。
type AnimationComponent struct {
	UnitID string // 配置单元ID，仅用于日志

	// SpeedScale 时间缩放（2.0 = 两倍速），<= 0 视为 1.0
	SpeedScale float64

	// RemoveOnComplete once 模式播放完成后删除实体（一次性特效）
	RemoveOnComplete bool

	IsFinished bool  // 当前状态是否已播放完成（仅 once 模式）
	Cycles     int   // loop/pingpong 模式累计完成的循环数（含超长 dt 跳过的整圈），切换状态时清零
	LastError  error // 最近一次渲染失败的原因，成功渲染后清空
}
