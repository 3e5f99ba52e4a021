package components

// ScaleTweenComponent 在一段时间内把 ScaleComponent 从 From 过渡到 To
// 过渡结束后 ScaleTweenSystem 移除此组件，ScaleComponent 保持为 To
type ScaleTweenComponent struct {
	From     float64
	To       float64
	Duration float64 // 秒，<= 0 时立即结束
	Elapsed  float64
}
