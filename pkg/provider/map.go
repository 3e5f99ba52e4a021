// Package provider 在常见图片来源之上实现 animation.ImageProvider：
// 内存表（Map）、图片文件目录（Dir）、基于 gdata 的对象存储（Store），
// 以及按顺序回退的 Chain。
//
// 图片解码只发生在这里，不会进入动画核心。提供者返回未变换的原始图片；
// 变换函数总是生成新图片，原始图片始终归提供者所有。
package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gonewx/frameplayer/pkg/animation"
	"github.com/hajimehoshi/ebiten/v2"
)

// Map 内存图片提供者，保存调用方预先提供的帧（并发安全）
//
// 使用示例：
//
//	images := provider.NewMap(map[string]*ebiten.Image{"walk_0": img0, "walk_1": img1})
//	player, err := animation.NewPlayer(catalog, animation.Options{Provider: images})
type Map struct {
	mu     sync.RWMutex
	images map[animation.FrameID]*ebiten.Image
}

// NewMap 创建 Map，复制传入的映射表
func NewMap(images map[string]*ebiten.Image) *Map {
	m := &Map{images: make(map[animation.FrameID]*ebiten.Image, len(images))}
	for id, img := range images {
		m.images[animation.FrameID(id)] = img
	}
	return m
}

// Put 添加或替换图片
func (m *Map) Put(id animation.FrameID, img *ebiten.Image) error {
	if img == nil {
		return fmt.Errorf("provider: nil image for %q", id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[id] = img
	return nil
}

// Remove 删除图片，返回图片是否存在
func (m *Map) Remove(id animation.FrameID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.images[id]
	delete(m.images, id)
	return ok
}

// Fetch 实现 animation.ImageProvider
func (m *Map) Fetch(id animation.FrameID) (*ebiten.Image, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	img, ok := m.images[id]
	if !ok {
		return nil, &animation.MissingResourceError{Frame: id}
	}
	return img, nil
}

// IDs 按字典序返回所有帧标识
func (m *Map) IDs() []animation.FrameID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]animation.FrameID, 0, len(m.images))
	for id := range m.images {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len 图片数量
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.images)
}
