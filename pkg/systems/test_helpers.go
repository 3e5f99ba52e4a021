package systems

import (
	"fmt"
	"testing"

	"github.com/gonewx/frameplayer/pkg/animation"
	"github.com/gonewx/frameplayer/pkg/components"
	"github.com/gonewx/frameplayer/pkg/ecs"
	"github.com/hajimehoshi/ebiten/v2"
)

// inlineFrames 创建 n 张 w x h 的内联帧
func inlineFrames(n, w, h int) []animation.FrameSource {
	frames := make([]animation.FrameSource, n)
	for i := range frames {
		frames[i] = animation.InlineImage(ebiten.NewImage(w, h))
	}
	return frames
}

// newTestCatalog 创建包含 walk(4 帧)、attack(2 帧)、die(2 帧) 的目录，帧时长均为 0.1 秒
func newTestCatalog(t *testing.T) *animation.Catalog {
	t.Helper()
	catalog := animation.NewCatalog()
	states := []struct {
		name  string
		count int
	}{
		{"walk", 4},
		{"attack", 2},
		{"die", 2},
	}
	for _, s := range states {
		if err := catalog.Register(s.name, inlineFrames(s.count, 8, 4), 0.1, false); err != nil {
			t.Fatalf("注册状态 %s 失败: %v", s.name, err)
		}
	}
	return catalog
}

// newTestPlayer 创建使用内联帧的播放器
func newTestPlayer(t *testing.T, catalog *animation.Catalog, opts animation.Options) *animation.Player {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = animation.NopLogger{}
	}
	player, err := animation.NewPlayer(catalog, opts)
	if err != nil {
		t.Fatalf("创建播放器失败: %v", err)
	}
	return player
}

// addSpriteEntity 创建带位置、精灵与动画组件的实体
func addSpriteEntity(em *ecs.EntityManager, player *animation.Player, anim *components.AnimationComponent) (ecs.EntityID, *components.SpriteComponent) {
	id := em.CreateEntity()
	sprite := &components.SpriteComponent{Player: player}
	ecs.AddComponent(em, id, &components.PositionComponent{X: 50, Y: 50})
	ecs.AddComponent(em, id, sprite)
	if anim != nil {
		ecs.AddComponent(em, id, anim)
	}
	return id, sprite
}

// failingProvider 所有帧都加载失败
type failingProvider struct{}

func (failingProvider) Fetch(id animation.FrameID) (*ebiten.Image, error) {
	return nil, fmt.Errorf("frame %s not found", id)
}
