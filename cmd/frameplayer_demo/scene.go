// cmd/frameplayer_demo/scene.go
// 场景装配 - 加载配置、准备图片来源、按网格摆放动画实体

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/gonewx/frameplayer/pkg/animation"
	"github.com/gonewx/frameplayer/pkg/components"
	"github.com/gonewx/frameplayer/pkg/config"
	"github.com/gonewx/frameplayer/pkg/ecs"
	"github.com/gonewx/frameplayer/pkg/entities"
	"github.com/gonewx/frameplayer/pkg/provider"
	"github.com/quasilyte/gdata/v2"
)

const (
	infoBarHeight  = 60
	maxColumns     = 4
	effectDuration = 0.25 // 特效弹出过渡时长（秒）
)

// SceneOptions 场景装配参数
type SceneOptions struct {
	ConfigPath string   // 配置文件或目录（相对于当前目录）
	Units      []string // 只加载这些单元，为空加载全部
	CacheSize  int      // 共享缓存容量，0 表示按单元配置求和
	Metrics    *animation.CacheMetrics
	Width      int
	Height     int
}

// unitSource 单个单元的图片来源
type unitSource struct {
	unit    *config.AnimationConfig
	dir     *provider.Dir
	diskDir string // dir 对应的磁盘目录，供热重载监听
	spawn   entities.Spawn
}

// Scene 演示场景：所有单元共享一个 TransformCache
type Scene struct {
	em      *ecs.EntityManager
	cache   *animation.TransformCache
	store   *provider.Store
	sources map[string]*unitSource
	dirs    map[string]*provider.Dir // 磁盘目录 -> Dir，同一目录只解码一次

	entities []ecs.EntityID          // 网格中常驻的实体，按创建顺序
	unitOf   map[ecs.EntityID]string // 实体 -> 单元ID
	baseSize map[ecs.EntityID]animation.Size
}

// LoadScene 加载配置并创建场景
func LoadScene(opts SceneOptions) (*Scene, error) {
	root := "."
	manager, err := config.NewManager(os.DirFS(root), filepath.ToSlash(filepath.Clean(opts.ConfigPath)))
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	ids := opts.Units
	if len(ids) == 0 {
		ids = manager.ListUnits()
	}
	units := make([]*config.AnimationConfig, 0, len(ids))
	capacity := 0
	for _, id := range ids {
		unit, err := manager.GetUnit(id)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
		capacity += unit.MaxCacheEntries
	}
	if len(units) == 0 {
		return nil, errors.New("没有可用的动画单元")
	}
	log.Printf("✓ 加载配置成功: %d 个动画单元", len(units))

	if opts.CacheSize > 0 {
		capacity = opts.CacheSize
	}
	cache, err := animation.NewTransformCache(capacity, animation.CacheOptions{
		Metrics: opts.Metrics,
		Logger:  animation.NewStdLogger("Cache"),
	})
	if err != nil {
		return nil, err
	}

	s := &Scene{
		em:       ecs.NewEntityManager(),
		cache:    cache,
		store:    openStore(),
		sources:  make(map[string]*unitSource),
		dirs:     make(map[string]*provider.Dir),
		unitOf:   make(map[ecs.EntityID]string),
		baseSize: make(map[ecs.EntityID]animation.Size),
	}
	s.em.OnDestroy(s.forget)

	for _, unit := range units {
		src, err := s.prepareUnit(root, unit)
		if err != nil {
			cache.Release()
			return nil, err
		}
		s.sources[unit.ID] = src
	}
	if err := s.layout(units, opts.Width, opts.Height); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// openStore 打开存放生成帧的 gdata 存储；失败时返回降级模式的 Store
func openStore() *provider.Store {
	manager, err := gdata.Open(gdata.Config{AppName: "frameplayer_demo"})
	if err != nil {
		log.Printf("警告: 无法打开数据存储: %v (生成的帧不会保存)", err)
		return provider.NewStore(nil, "")
	}
	return provider.NewStore(manager, "")
}

// prepareUnit 为单元创建图片来源，缺失的帧生成占位动画写入存储
func (s *Scene) prepareUnit(root string, unit *config.AnimationConfig) (*unitSource, error) {
	src := &unitSource{unit: unit}

	diskDir := filepath.Join(root, filepath.FromSlash(unit.ImagesDir))
	if info, err := os.Stat(diskDir); err == nil && info.IsDir() && unit.ImagesDir != "" {
		if s.dirs[diskDir] == nil {
			s.dirs[diskDir] = provider.NewDir(os.DirFS(diskDir))
		}
		src.dir = s.dirs[diskDir]
		src.diskDir = diskDir
	}

	chain := provider.Chain{}
	if src.dir != nil {
		chain = append(chain, src.dir)
	}
	chain = append(chain, s.store, generatedFrames(unit))
	src.spawn = entities.Spawn{
		Images: chain,
		Cache:  s.cache,
		Logger: animation.NewStdLogger(unit.ID),
	}

	seeded := 0
	for _, id := range unit.FrameIDs() {
		if src.dir != nil {
			if _, err := src.dir.Fetch(id); err == nil {
				continue
			}
		}
		if s.store.Has(id) {
			continue
		}
		img, ok := generateFrame(unit, id)
		if !ok {
			continue
		}
		if err := s.store.PutImage(id, img); err != nil {
			// 降级模式下由 generatedFrames 直接提供
			break
		}
		seeded++
	}
	if seeded > 0 {
		log.Printf("  %s: 生成 %d 张占位帧", unit.ID, seeded)
	}
	return src, nil
}

// layout 按网格为每个单元创建一个实体
func (s *Scene) layout(units []*config.AnimationConfig, width, height int) error {
	columns := int(math.Ceil(math.Sqrt(float64(len(units)))))
	if columns > maxColumns {
		columns = maxColumns
	}
	rows := (len(units) + columns - 1) / columns
	cellW := float64(width) / float64(columns)
	cellH := float64(height-infoBarHeight) / float64(rows)

	for i, unit := range units {
		x := cellW * (float64(i%columns) + 0.5)
		y := infoBarHeight + cellH*(float64(i/columns)+0.5)
		id, err := entities.NewAnimatedEntity(s.em, unit, s.sources[unit.ID].spawn, x, y)
		if err != nil {
			return err
		}
		s.entities = append(s.entities, id)
		s.unitOf[id] = unit.ID
		sprite, _ := ecs.GetComponent[*components.SpriteComponent](s.em, id)
		s.baseSize[id] = sprite.Transform.Size
	}
	return nil
}

// Entities 返回网格中的实体
func (s *Scene) Entities() []ecs.EntityID {
	return s.entities
}

// UnitOf 返回实体对应的单元配置
func (s *Scene) UnitOf(id ecs.EntityID) *config.AnimationConfig {
	src, ok := s.sources[s.unitOf[id]]
	if !ok {
		return nil
	}
	return src.unit
}

// SpawnEffect 在指定位置生成单元的一次性特效
func (s *Scene) SpawnEffect(unitID string, x, y float64) (ecs.EntityID, error) {
	src, ok := s.sources[unitID]
	if !ok {
		return 0, fmt.Errorf("unknown unit %s", unitID)
	}
	id, err := entities.NewEffectEntity(s.em, src.unit, src.spawn, "", x, y)
	if err != nil {
		return 0, err
	}
	ecs.AddComponent(s.em, id, &components.ScaleTweenComponent{From: 0.2, To: 1.0, Duration: effectDuration})
	return id, nil
}

// resize 按比例调整渲染尺寸；原图尺寸未知时以当前图片为基准
func (s *Scene) resize(id ecs.EntityID, sprite *components.SpriteComponent, factor float64) animation.Size {
	size := sprite.Transform.Size
	if size.Width == 0 || size.Height == 0 {
		b := sprite.Player.Bounds()
		size = animation.Size{Width: b.Dx(), Height: b.Dy()}
	}
	w := int(math.Round(float64(size.Width) * factor))
	h := int(math.Round(float64(size.Height) * factor))
	if w < 1 || h < 1 {
		return s.baseSize[id]
	}
	return animation.Size{Width: w, Height: h}
}

// Watch 监听各单元的图片目录，文件变化时失效相关缓存
func (s *Scene) Watch(ctx context.Context) {
	ids := make([]string, 0, len(s.sources))
	for id := range s.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	watched := make(map[string]bool)
	for _, id := range ids {
		src := s.sources[id]
		if src.dir == nil || watched[src.diskDir] {
			continue
		}
		watched[src.diskDir] = true
		go func(src *unitSource) {
			if err := src.dir.Watch(ctx, src.diskDir, s.cache); err != nil {
				log.Printf("警告: 监听 %s 失败: %v", src.diskDir, err)
			}
		}(src)
		log.Printf("✓ 热重载: %s", src.diskDir)
	}
}

// forget 实体删除时清理场景索引
func (s *Scene) forget(id ecs.EntityID) {
	delete(s.unitOf, id)
	delete(s.baseSize, id)
	for i, e := range s.entities {
		if e == id {
			s.entities = append(s.entities[:i], s.entities[i+1:]...)
			break
		}
	}
}

// Close 删除所有实体并释放共享缓存
func (s *Scene) Close() {
	for _, id := range ecs.GetEntitiesWith1[*components.SpriteComponent](s.em) {
		sprite, _ := ecs.GetComponent[*components.SpriteComponent](s.em, id)
		if sprite.Player != nil {
			sprite.Player.Release()
		}
		s.em.DestroyEntity(id)
	}
	s.em.RemoveMarkedEntities()
	s.cache.Release()
}
