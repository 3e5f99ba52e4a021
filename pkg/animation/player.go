// Package animation 实现基于 spritesheet 的帧动画播放核心
//
// Catalog 管理命名状态（帧序列 + 每帧时长），Player 每个 Tick 推进播放游标，
// TransformCache 以严格 LRU 缓存缩放/旋转/翻转后的帧图片，可被多个 Player 并发共享。
// 图片解码、实际绘制、窗口与输入均由调用方负责。
package animation

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gonewx/frameplayer/pkg/transform"
	"github.com/hajimehoshi/ebiten/v2"
)

// placeholderSize 加载失败且没有可用图片时显示的占位图尺寸
const placeholderSize = 32

var placeholderColor = color.RGBA{R: 255, A: 255}

// Options 播放器构造参数
type Options struct {
	Mode          PlayMode        // 播放模式，默认 Loop
	InitialState  string          // 初始状态，空则使用目录中最先注册的状态
	Provider      ImageProvider   // 原始图片提供者；只使用内联图片时可为 nil
	Transform     TransformFunc   // 变换函数，nil 时使用 transform.GPU
	Cache         *TransformCache // 共享缓存；nil 时创建私有缓存并随播放器释放
	CacheCapacity int             // 私有缓存容量，0 表示 DefaultCacheCapacity
	Logger        Logger          // nil 时使用 StdLogger
	StartStopped  bool            // 为 true 时以 Stopped 状态创建，需调用 Play
}

// Snapshot 播放进度快照
type Snapshot struct {
	State      string
	FrameIndex int
	Elapsed    float64 // 当前帧内已累积的秒数，[0, duration)
	Direction  int     // +1 / -1（往返模式）
	Status     Status
	Mode       PlayMode
}

// IsPlaying 是否正在播放
func (s Snapshot) IsPlaying() bool { return s.Status == Playing }

// Player 单个动画实例的播放状态机（PlaybackEngine）
//
// Player 不是并发安全的：每个实例应只在一个 goroutine 中驱动，
// Tick 按调用顺序依次生效。多个 Player 可以共享同一个 Catalog 与 TransformCache。
type Player struct {
	catalog *Catalog
	def     *StateDefinition

	index     int
	elapsed   float64
	direction int
	status    Status
	mode      PlayMode

	provider  ImageProvider
	transform TransformFunc
	cache     *TransformCache
	ownsCache bool
	logger    Logger

	image       *ebiten.Image // 最后一张成功渲染的图片
	placeholder *ebiten.Image

	onFrame    []func(index int)
	onState    []func(state string)
	onComplete []func()
	onCycle    []func(state string, count int)

	released bool
}

// NewPlayer 创建播放器
//
// 返回：
//   - error: 目录为空、模式非法时返回 *ConfigError；初始状态不存在时返回 *UnknownStateError
func NewPlayer(catalog *Catalog, opts Options) (*Player, error) {
	if catalog == nil || catalog.Len() == 0 {
		return nil, &ConfigError{Field: "frames", Reason: "catalog has no states"}
	}
	if !opts.Mode.Valid() {
		return nil, &ConfigError{Field: "play_mode", Reason: fmt.Sprintf("unknown play mode %d", int(opts.Mode))}
	}

	initial := opts.InitialState
	if initial == "" {
		initial, _ = catalog.First()
	}
	def, err := catalog.State(initial)
	if err != nil {
		return nil, err
	}

	logger := loggerOrDefault(opts.Logger)
	tf := opts.Transform
	if tf == nil {
		tf = transform.GPU
	}

	cache := opts.Cache
	owns := false
	if cache == nil {
		capacity := opts.CacheCapacity
		if capacity == 0 {
			capacity = DefaultCacheCapacity
		}
		cache, err = NewTransformCache(capacity, CacheOptions{Logger: logger})
		if err != nil {
			return nil, err
		}
		owns = true
	}

	status := Playing
	if opts.StartStopped {
		status = Stopped
	}

	return &Player{
		catalog:   catalog,
		def:       def,
		direction: 1,
		status:    status,
		mode:      opts.Mode,
		provider:  opts.Provider,
		transform: tf,
		cache:     cache,
		ownsCache: owns,
		logger:    logger,
	}, nil
}

func (p *Player) releasedErr(op string) error {
	return &ReleasedError{Resource: "player", Op: op}
}

// Tick 推进播放时间
//
// Stopped/Paused/Completed 状态下不做任何事。dt <= 0 被忽略。
// 单次 Tick 跨越多个完整循环时，多余的整圈会被跳过（不会逐帧回调）。
func (p *Player) Tick(dt float64) error {
	if p.released {
		return p.releasedErr("Tick")
	}
	if p.status != Playing || !(dt > 0) || math.IsInf(dt, 0) {
		return nil
	}
	p.refresh()

	p.elapsed += dt
	p.skipWholeCycles()
	for p.status == Playing && !p.released {
		d := p.def.duration
		if p.elapsed < d {
			break
		}
		p.elapsed -= d
		p.advance()
	}
	return nil
}

// cycleFrames 一个完整循环包含的推进次数（once 模式返回 0）
func (p *Player) cycleFrames() int {
	n := p.def.FrameCount()
	switch p.mode {
	case Loop:
		return n
	case PingPong:
		if n == 1 {
			return 1
		}
		return 2 * (n - 1)
	}
	return 0
}

// cycleEvents 一个完整周期内触发的循环通知次数
func (p *Player) cycleEvents() int {
	if p.mode == PingPong && p.def.FrameCount() > 1 {
		return 2 // 两个端点各折返一次
	}
	return 1
}

// skipWholeCycles 超长 dt 时整体跳过完整周期，只保留最后一个周期逐帧推进
//
// 跳过的周期帧索引不变，不触发帧变化通知；循环次数合并成一次 OnCycle 通知。
func (p *Player) skipWholeCycles() {
	cycle := p.cycleFrames()
	if cycle == 0 {
		return
	}
	period := float64(cycle) * p.def.duration
	skip := math.Floor(p.elapsed/period) - 1
	if skip <= 0 {
		return
	}
	p.elapsed -= skip * period
	p.emitCycle(p.def.name, int(skip)*p.cycleEvents())
}

// advance 按播放模式推进一帧并触发通知
func (p *Player) advance() {
	n := p.def.FrameCount()
	prev := p.index
	name := p.def.name
	cycled, completed := false, false

	switch p.mode {
	case Loop:
		p.index = (p.index + 1) % n
		cycled = p.index == 0
	case Once:
		if p.index < n-1 {
			p.index++
		}
		if p.index == n-1 {
			p.status = Completed
			p.elapsed = 0
			completed = true
		}
	case PingPong:
		if n == 1 {
			cycled = true
			break
		}
		p.index += p.direction
		if p.index >= n-1 {
			p.index = n - 1
			p.direction = -1
			cycled = true
		} else if p.index <= 0 {
			p.index = 0
			p.direction = 1
			cycled = true
		}
	}

	if p.index != prev {
		p.emitFrame(p.index)
	}
	if completed {
		p.emitComplete()
	}
	if cycled {
		p.emitCycle(name, 1)
	}
}

// refresh 同名状态被重新注册后，重新获取定义并钳制进度
func (p *Player) refresh() {
	def, err := p.catalog.State(p.def.name)
	if err != nil || def == p.def {
		return
	}
	p.rebase(def, p.index)
}

// rebase 切换到新定义，index 为期望的帧索引，越界时钳制
func (p *Player) rebase(def *StateDefinition, index int) {
	old := p.def
	p.def = def
	n := def.FrameCount()
	if index < 0 {
		index = 0
	}
	if index > n-1 {
		index = n - 1
	}
	p.index = index
	if old != nil && old.duration != def.duration {
		p.elapsed *= def.duration / old.duration
	}
	if p.elapsed >= def.duration || p.elapsed < 0 {
		p.elapsed = 0
	}
	p.fixDirection()
}

// fixDirection 保证往返模式在端点处的方向指向序列内部
func (p *Player) fixDirection() {
	n := p.def.FrameCount()
	switch {
	case p.index >= n-1 && n > 1:
		p.direction = -1
	case p.index == 0:
		p.direction = 1
	case p.direction != 1 && p.direction != -1:
		p.direction = 1
	}
}

// SetState 切换动画状态
//
// 参数：
//   - name: 目标状态名
//   - reset: 为 true 时回到第 0 帧、清零计时、方向 +1
//   - keepProgress: reset 为 false 时，把当前进度比例映射到新状态：
//     newIndex = floor(index * newCount / oldCount)，再钳制到 [0, newCount-1]
//
// 切换到当前状态是空操作。从 Completed 切换会回到 Playing。
func (p *Player) SetState(name string, reset, keepProgress bool) error {
	if p.released {
		return p.releasedErr("SetState")
	}
	def, err := p.catalog.State(name)
	if err != nil {
		return err
	}
	if name == p.def.name {
		return nil
	}

	switch {
	case reset:
		p.elapsed = 0
		p.direction = 1
		p.rebase(def, 0)
	case keepProgress:
		p.rebase(def, p.index*def.FrameCount()/p.def.FrameCount())
	default:
		p.rebase(def, p.index)
	}

	if p.status == Completed {
		p.status = Playing
	}
	p.emitState(name)
	return nil
}

// SwitchTo 切换状态并从头播放，等价于 SetState(name, true, false)
func (p *Player) SwitchTo(name string) error {
	return p.SetState(name, true, false)
}

// SetPlayMode 运行时修改播放模式；离开 once 模式时会结束 Completed 状态
func (p *Player) SetPlayMode(mode PlayMode) error {
	if p.released {
		return p.releasedErr("SetPlayMode")
	}
	if !mode.Valid() {
		return &ConfigError{Field: "play_mode", Reason: fmt.Sprintf("unknown play mode %d", int(mode))}
	}
	p.mode = mode
	if mode != Once && p.status == Completed {
		p.status = Playing
	}
	p.fixDirection()
	return nil
}

// Pause 暂停；非 Playing 状态下为空操作
func (p *Player) Pause() error {
	if p.released {
		return p.releasedErr("Pause")
	}
	if p.status == Playing {
		p.status = Paused
	}
	return nil
}

// Resume 从当前帧继续；非 Paused 状态下为空操作
func (p *Player) Resume() error {
	if p.released {
		return p.releasedErr("Resume")
	}
	if p.status == Paused {
		p.status = Playing
	}
	return nil
}

// Play 从 Stopped 开始播放；其他状态下为空操作
func (p *Player) Play() error {
	if p.released {
		return p.releasedErr("Play")
	}
	if p.status == Stopped {
		p.status = Playing
	}
	return nil
}

// Stop 停止并回到第 0 帧
func (p *Player) Stop() error {
	if p.released {
		return p.releasedErr("Stop")
	}
	p.resetCursor()
	p.status = Stopped
	return nil
}

// Rewind 回到第 0 帧、清零计时、方向 +1
//
// Completed 状态会回到 Playing；Paused 与 Stopped 保持不变。
func (p *Player) Rewind() error {
	if p.released {
		return p.releasedErr("Rewind")
	}
	p.resetCursor()
	if p.status == Completed {
		p.status = Playing
	}
	return nil
}

func (p *Player) resetCursor() {
	p.index = 0
	p.elapsed = 0
	p.direction = 1
}

// Key 为当前帧构建缓存键
func (p *Player) Key(t Transform) (TransformKey, error) {
	if p.released {
		return TransformKey{}, p.releasedErr("Key")
	}
	p.refresh()
	id, err := p.def.Frame(p.index)
	if err != nil {
		return TransformKey{}, err
	}
	return NewTransformKey(id, t), nil
}

// Render 返回当前帧经过变换的图片（唯一访问缓存的入口）
//
// 失败时返回错误，上一张成功渲染的图片仍保留在 Image() 中；
// 若此前没有任何成功渲染，Image() 返回一张红色占位图。
func (p *Player) Render(t Transform) (*ebiten.Image, error) {
	key, err := p.Key(t)
	if err != nil {
		return nil, err
	}

	img, err := p.cache.GetOrBuild(key, func() (*ebiten.Image, error) {
		return p.build(key)
	})
	if err != nil {
		if errors.Is(err, ErrReleased) {
			return nil, err
		}
		if p.image == nil {
			p.image = p.placeholderImage()
		}
		if errors.Is(err, ErrMissingResource) {
			p.logger.Warnf("render %s frame %d: %v", p.def.name, p.index, err)
		} else {
			p.logger.Errorf("render %s frame %d: %v", p.def.name, p.index, err)
		}
		return nil, err
	}
	p.image = img
	return img, nil
}

// build 获取原始像素并应用变换
func (p *Player) build(key TransformKey) (*ebiten.Image, error) {
	raw, ok := p.catalog.inlineImage(key.Frame)
	if !ok {
		if p.provider == nil {
			return nil, &MissingResourceError{Frame: key.Frame, Err: errors.New("no image provider configured")}
		}
		var err error
		raw, err = p.provider.Fetch(key.Frame)
		if err != nil {
			var missing *MissingResourceError
			if errors.As(err, &missing) {
				return nil, err
			}
			return nil, &MissingResourceError{Frame: key.Frame, Err: err}
		}
		if raw == nil {
			return nil, &MissingResourceError{Frame: key.Frame, Err: errors.New("provider returned no image")}
		}
	}
	return p.transform(raw, key.Width, key.Height, key.Angle(), key.FlipX, key.FlipY)
}

func (p *Player) placeholderImage() *ebiten.Image {
	if p.placeholder == nil {
		p.placeholder = ebiten.NewImage(placeholderSize, placeholderSize)
		p.placeholder.Fill(placeholderColor)
	}
	return p.placeholder
}

// Image 当前可绘制的图片（最后一次成功渲染的结果），尚未渲染或已释放时为 nil
func (p *Player) Image() *ebiten.Image { return p.image }

// Bounds 当前图片的包围盒（原点为左上角）
func (p *Player) Bounds() image.Rectangle {
	if p.image == nil {
		return image.Rectangle{}
	}
	return p.image.Bounds()
}

// Snapshot 返回播放进度快照
//
// 释放后仍可调用，返回释放时的进度，Status 为 Stopped。
func (p *Player) Snapshot() Snapshot {
	return Snapshot{
		State:      p.def.name,
		FrameIndex: p.index,
		Elapsed:    p.elapsed,
		Direction:  p.direction,
		Status:     p.status,
		Mode:       p.mode,
	}
}

// State 当前状态名
func (p *Player) State() string { return p.def.name }

// FrameIndex 当前帧索引
func (p *Player) FrameIndex() int { return p.index }

// Status 当前状态机状态
func (p *Player) Status() Status { return p.status }

// Mode 当前播放模式
func (p *Player) Mode() PlayMode { return p.mode }

// IsPlaying 是否正在播放
func (p *Player) IsPlaying() bool { return !p.released && p.status == Playing }

// Cache 播放器使用的缓存
func (p *Player) Cache() *TransformCache { return p.cache }

// Released 是否已释放
func (p *Player) Released() bool { return p.released }

// Release 释放播放器持有的资源
//
// 可重复调用，只有第一次返回 true。私有缓存随之释放，共享缓存保持不变。
// 释放后所有可能失败的操作都返回 ErrReleased。
func (p *Player) Release() bool {
	if p.released {
		return false
	}
	p.released = true
	p.status = Stopped
	if p.ownsCache {
		p.cache.Release()
	}
	if p.placeholder != nil {
		p.placeholder.Deallocate()
		p.placeholder = nil
	}
	p.image = nil
	p.onFrame, p.onState, p.onComplete, p.onCycle = nil, nil, nil, nil
	return true
}
