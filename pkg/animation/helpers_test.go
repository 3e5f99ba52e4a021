package animation

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// recordLogger 记录日志用于断言
type recordLogger struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
}

func (l *recordLogger) Infof(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func (l *recordLogger) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func (l *recordLogger) Errorf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func (l *recordLogger) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}

// memProvider 测试用的内存图片提供者
type memProvider struct {
	mu      sync.Mutex
	images  map[FrameID]*ebiten.Image
	fetches atomic.Int64
}

func newMemProvider(ids ...string) *memProvider {
	p := &memProvider{images: make(map[FrameID]*ebiten.Image)}
	for _, id := range ids {
		p.images[FrameID(id)] = ebiten.NewImage(4, 4)
	}
	return p
}

func (p *memProvider) Fetch(id FrameID) (*ebiten.Image, error) {
	p.fetches.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	img, ok := p.images[id]
	if !ok {
		return nil, &MissingResourceError{Frame: id}
	}
	return img, nil
}

// passThrough 不做任何变换的测试变换函数
func passThrough(src *ebiten.Image, _, _ int, _ float64, _, _ bool) (*ebiten.Image, error) {
	return src, nil
}

// frameIDs 生成 prefix0..prefixN-1
func frameIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return ids
}

// stateSpec 测试状态描述
type stateSpec struct {
	name   string
	frames int
}

// newTestPlayer 创建一个每帧 0.1 秒、使用内存提供者的播放器
func newTestPlayer(t *testing.T, mode PlayMode, states ...stateSpec) (*Player, *memProvider, *recordLogger) {
	t.Helper()
	catalog := NewCatalog()
	var all []string
	for _, s := range states {
		ids := frameIDs(s.name+"_", s.frames)
		all = append(all, ids...)
		if err := catalog.Register(s.name, Identifiers(ids...), 0.1, false); err != nil {
			t.Fatalf("注册状态 %s 失败: %v", s.name, err)
		}
	}
	provider := newMemProvider(all...)
	logger := &recordLogger{}
	player, err := NewPlayer(catalog, Options{
		Mode:      mode,
		Provider:  provider,
		Transform: passThrough,
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("创建播放器失败: %v", err)
	}
	t.Cleanup(func() { player.Release() })
	return player, provider, logger
}

// tickFrames 以整帧时长连续 Tick n 次，返回每次 Tick 后的帧索引
func tickFrames(t *testing.T, p *Player, n int) []int {
	t.Helper()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if err := p.Tick(0.1); err != nil {
			t.Fatalf("Tick 失败: %v", err)
		}
		indices = append(indices, p.FrameIndex())
	}
	return indices
}
