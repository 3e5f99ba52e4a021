package animation

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
)

// StateDefinition 一个命名动画状态：有序帧序列 + 每帧持续时间
//
// 构建后不可变，由 Catalog 独占持有。
type StateDefinition struct {
	name     string
	frames   []FrameID
	duration float64
}

// Name 状态名
func (d *StateDefinition) Name() string { return d.name }

// FrameCount 帧数（恒 > 0）
func (d *StateDefinition) FrameCount() int { return len(d.frames) }

// Duration 每帧持续时间（秒，恒 > 0）
func (d *StateDefinition) Duration() float64 { return d.duration }

// Frame 返回第 i 帧的标识
func (d *StateDefinition) Frame(i int) (FrameID, error) {
	if i < 0 || i >= len(d.frames) {
		return "", fmt.Errorf("state %q frame %d of %d: %w", d.name, i, len(d.frames), ErrFrameIndex)
	}
	return d.frames[i], nil
}

// Frames 返回帧标识的副本
func (d *StateDefinition) Frames() []FrameID {
	return append([]FrameID(nil), d.frames...)
}

// Catalog 动画状态目录（StateManager）
//
// 负责注册与校验状态定义，并提供帧数/时长/帧查询。
// 读操作并发安全；重新注册同名状态会整体替换定义对象，而不是修改旧对象。
type Catalog struct {
	mu     sync.RWMutex
	states map[string]*StateDefinition
	order  []string                  // 注册顺序
	inline map[FrameID]*ebiten.Image // 内联图片：合成标识 -> 图片
}

// inlineSeq 合成标识计数器，进程内全局递增，多个目录共享同一缓存时也不会冲突
var inlineSeq atomic.Uint64

// NewCatalog 创建空目录
func NewCatalog() *Catalog {
	return &Catalog{
		states: make(map[string]*StateDefinition),
		inline: make(map[FrameID]*ebiten.Image),
	}
}

// Register 注册一个状态
//
// 参数：
//   - name: 状态名，目录内唯一
//   - frames: 帧来源序列，不能为空
//   - duration: 每帧持续秒数，必须 > 0
//   - overwrite: 为 true 时允许替换同名状态
//
// 返回：
//   - error: *ConfigError
func (c *Catalog) Register(name string, frames []FrameSource, duration float64, overwrite bool) error {
	if name == "" {
		return &ConfigError{Field: "name", Reason: "state name must not be empty"}
	}
	if len(frames) == 0 {
		return &ConfigError{Field: fmt.Sprintf("frames[%s]", name), Reason: "must not be empty"}
	}
	if !(duration > 0) || math.IsInf(duration, 0) {
		return &ConfigError{Field: fmt.Sprintf("frame_durations[%s]", name), Reason: fmt.Sprintf("must be a positive number of seconds, got %v", duration)}
	}
	for i, src := range frames {
		if src.empty() {
			return &ConfigError{Field: fmt.Sprintf("frames[%s][%d]", name, i), Reason: "empty frame source"}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, exists := c.states[name]
	if exists && !overwrite {
		return &ConfigError{Field: fmt.Sprintf("frames[%s]", name), Reason: "state already registered"}
	}

	// 内联图片在注册时一次性解析为合成标识
	ids := make([]FrameID, len(frames))
	for i, src := range frames {
		if src.IsInline() {
			id := FrameID(fmt.Sprintf("inline#%d", inlineSeq.Add(1)))
			c.inline[id] = src.image
			ids[i] = id
			continue
		}
		ids[i] = src.id
	}

	c.states[name] = &StateDefinition{name: name, frames: ids, duration: duration}
	if !exists {
		c.order = append(c.order, name)
	}
	return nil
}

// State 返回状态定义
func (c *Catalog) State(name string) (*StateDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.states[name]
	if !ok {
		return nil, &UnknownStateError{Name: name, Available: append([]string(nil), c.order...)}
	}
	return def, nil
}

// FrameCount 返回状态的帧数
func (c *Catalog) FrameCount(name string) (int, error) {
	def, err := c.State(name)
	if err != nil {
		return 0, err
	}
	return def.FrameCount(), nil
}

// Duration 返回状态的每帧时长（秒）
func (c *Catalog) Duration(name string) (float64, error) {
	def, err := c.State(name)
	if err != nil {
		return 0, err
	}
	return def.Duration(), nil
}

// FrameAt 返回状态第 index 帧的标识
func (c *Catalog) FrameAt(name string, index int) (FrameID, error) {
	def, err := c.State(name)
	if err != nil {
		return "", err
	}
	return def.Frame(index)
}

// Has 状态是否已注册
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.states[name]
	return ok
}

// Names 按注册顺序列出所有状态名
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// First 返回最先注册的状态名；目录为空时 ok 为 false
func (c *Catalog) First() (name string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.order) == 0 {
		return "", false
	}
	return c.order[0], true
}

// Len 已注册状态数
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// inlineImage 查找内联图片
func (c *Catalog) inlineImage(id FrameID) (*ebiten.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.inline[id]
	return img, ok
}
