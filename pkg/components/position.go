package components

// PositionComponent 实体在世界坐标中的位置
// 精灵以该点为中心绘制
type PositionComponent struct {
	X float64
	Y float64
}
