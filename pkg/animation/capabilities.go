package animation

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// PlayMode 播放模式：决定帧索引如何推进与终止
type PlayMode int

const (
	Loop     PlayMode = iota // 循环播放
	Once                     // 只播放一次，停在最后一帧
	PingPong                 // 往返播放
)

func (m PlayMode) String() string {
	switch m {
	case Loop:
		return "loop"
	case Once:
		return "once"
	case PingPong:
		return "pingpong"
	}
	return fmt.Sprintf("PlayMode(%d)", int(m))
}

// Valid 是否为已知模式
func (m PlayMode) Valid() bool { return m >= Loop && m <= PingPong }

// ParsePlayMode 解析 "loop" / "once" / "pingpong"，空串视为 loop
func ParsePlayMode(s string) (PlayMode, error) {
	switch s {
	case "", "loop":
		return Loop, nil
	case "once":
		return Once, nil
	case "pingpong":
		return PingPong, nil
	}
	return Loop, &ConfigError{Field: "play_mode", Reason: fmt.Sprintf("unknown play mode %q (want loop, once or pingpong)", s)}
}

// Status 播放器状态机的状态
type Status int

const (
	Stopped   Status = iota // 未开始或被显式停止
	Playing                 // 播放中
	Paused                  // 暂停
	Completed               // 仅 once 模式的终态
)

func (s Status) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ImageProvider 图片提供者：按帧标识返回原始像素
//
// 无法提供时返回 *MissingResourceError（或可被 errors.Is(err, ErrMissingResource) 匹配的错误）。
type ImageProvider interface {
	Fetch(id FrameID) (*ebiten.Image, error)
}

// ProviderFunc 函数适配器
type ProviderFunc func(id FrameID) (*ebiten.Image, error)

func (f ProviderFunc) Fetch(id FrameID) (*ebiten.Image, error) { return f(id) }

// TransformFunc 变换能力：纯函数，对原始图片做缩放/旋转/翻转
//
// width/height 为 0 表示沿用原图尺寸；angle 为度数，已归一化到 [0, 360)。
// 必须返回一张新图片，缓存释放时会将其回收。
type TransformFunc func(src *ebiten.Image, width, height int, angle float64, flipX, flipY bool) (*ebiten.Image, error)
