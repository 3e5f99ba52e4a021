package animation

import (
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultCacheCapacity 默认缓存容量
	DefaultCacheCapacity = 200
	// MinCacheCapacity 缓存容量下限，过小的缓存每帧都会抖动
	MinCacheCapacity = 10

	sampleKeyCount = 3
)

// BuildFunc 缓存未命中时调用：获取原始像素并应用缩放/旋转/翻转
//
// 返回的图片归缓存所有（Release 时会被释放），不能与其他对象共享。
type BuildFunc func() (*ebiten.Image, error)

// CacheOptions 缓存的可选依赖
type CacheOptions struct {
	Metrics *CacheMetrics // 可为 nil
	Logger  Logger        // nil 时使用 StdLogger
}

// CacheStats 缓存状态快照
type CacheStats struct {
	Size          int
	Capacity      int
	Hits          uint64
	Misses        uint64
	Builds        uint64
	BuildFailures uint64
	Evictions     uint64
	SampleKeys    []TransformKey // 最久未使用的若干个键
}

// TransformCache 有界的变换图片缓存（严格 LRU 淘汰）
//
// 多个 Player 可以并发共享同一个缓存：
//   - 查找/插入/淘汰/失效全部在同一把互斥锁内完成
//   - 同一个键并发未命中时，builder 至多被调用一次，所有调用方拿到同一张图片
//   - 互斥锁从不在 builder 或谓词函数执行期间持有，回调中再次访问缓存不会死锁
//
// 被淘汰或失效的图片不会被主动释放（Player 可能仍把它当作最后一张可用图片），
// 只有 Release 会释放仍在缓存中的图片。
type TransformCache struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[TransformKey, *ebiten.Image]
	capacity int
	released bool
	stats    CacheStats

	flights singleflight.Group
	metrics *CacheMetrics
	logger  Logger
}

// NewTransformCache 创建缓存
//
// 参数：
//   - capacity: 最大条目数，必须 >= MinCacheCapacity
//   - opts: 指标与日志
//
// 返回：
//   - error: 容量低于下限时返回 *ConfigError
func NewTransformCache(capacity int, opts CacheOptions) (*TransformCache, error) {
	if err := checkCapacity(capacity); err != nil {
		return nil, err
	}
	lru, err := simplelru.NewLRU[TransformKey, *ebiten.Image](capacity, nil)
	if err != nil {
		return nil, &ConfigError{Field: "max_cache_entries", Reason: err.Error()}
	}
	return &TransformCache{
		lru:      lru,
		capacity: capacity,
		metrics:  opts.Metrics,
		logger:   loggerOrDefault(opts.Logger),
	}, nil
}

func checkCapacity(capacity int) error {
	if capacity < MinCacheCapacity {
		return &ConfigError{
			Field:  "max_cache_entries",
			Reason: fmt.Sprintf("must be >= %d, got %d", MinCacheCapacity, capacity),
		}
	}
	return nil
}

// GetOrBuild 返回键对应的图片
//
// 命中时刷新最近使用标记；未命中时调用 build，插入结果并在超出容量时按 LRU 淘汰。
// build 失败时错误原样返回，缓存不插入任何条目。
func (c *TransformCache) GetOrBuild(key TransformKey, build BuildFunc) (*ebiten.Image, error) {
	if build == nil {
		return nil, fmt.Errorf("transform cache: nil builder for %s", key)
	}

	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return nil, &ReleasedError{Resource: "transform cache", Op: "GetOrBuild"}
	}
	if img, ok := c.lru.Get(key); ok {
		c.stats.Hits++
		c.metrics.hit()
		c.mu.Unlock()
		return img, nil
	}
	c.stats.Misses++
	c.metrics.miss()
	c.mu.Unlock()

	v, err, _ := c.flights.Do(key.String(), func() (any, error) {
		// 上一轮 flight 可能刚刚插入
		c.mu.Lock()
		if c.released {
			c.mu.Unlock()
			return nil, &ReleasedError{Resource: "transform cache", Op: "GetOrBuild"}
		}
		if img, ok := c.lru.Get(key); ok {
			c.mu.Unlock()
			return img, nil
		}
		c.mu.Unlock()

		img, err := build()
		if err == nil && img == nil {
			err = fmt.Errorf("transform cache: builder returned no image for %s", key)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		c.stats.Builds++
		if err != nil {
			c.stats.BuildFailures++
			c.metrics.build(true)
			return nil, err
		}
		c.metrics.build(false)
		if c.released {
			img.Deallocate()
			return nil, &ReleasedError{Resource: "transform cache", Op: "GetOrBuild"}
		}
		if c.lru.Add(key, img) {
			c.stats.Evictions++
			c.metrics.evict(1)
		}
		c.metrics.size(c.lru.Len())
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ebiten.Image), nil
}

// Contains 键是否在缓存中（不刷新最近使用标记）
func (c *TransformCache) Contains(key TransformKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.released && c.lru.Contains(key)
}

// Invalidate 移除所有满足谓词的条目，返回移除数量
//
// 谓词在锁外执行。
func (c *TransformCache) Invalidate(pred func(TransformKey) bool) (int, error) {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return 0, &ReleasedError{Resource: "transform cache", Op: "Invalidate"}
	}
	keys := c.lru.Keys()
	c.mu.Unlock()

	var doomed []TransformKey
	for _, k := range keys {
		if pred(k) {
			doomed = append(doomed, k)
		}
	}
	if len(doomed) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return 0, &ReleasedError{Resource: "transform cache", Op: "Invalidate"}
	}
	removed := 0
	for _, k := range doomed {
		if c.lru.Remove(k) {
			removed++
		}
	}
	c.metrics.size(c.lru.Len())
	return removed, nil
}

// InvalidateFrame 移除某个原始帧的所有变换结果（源图片在外部发生变化时使用）
func (c *TransformCache) InvalidateFrame(id FrameID) (int, error) {
	return c.Invalidate(func(k TransformKey) bool { return k.Frame == id })
}

// Clear 清空缓存
func (c *TransformCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return &ReleasedError{Resource: "transform cache", Op: "Clear"}
	}
	c.lru.Purge()
	c.metrics.size(0)
	c.logger.Infof("transform cache cleared")
	return nil
}

// Resize 动态调整容量，缩小时立即淘汰最久未使用的条目
func (c *TransformCache) Resize(capacity int) error {
	if err := checkCapacity(capacity); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return &ReleasedError{Resource: "transform cache", Op: "Resize"}
	}
	evicted := c.lru.Resize(capacity)
	c.capacity = capacity
	c.stats.Evictions += uint64(evicted)
	c.metrics.evict(evicted)
	c.metrics.size(c.lru.Len())
	return nil
}

// Len 当前条目数（释放后为 0）
func (c *TransformCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return 0
	}
	return c.lru.Len()
}

// Capacity 当前容量
func (c *TransformCache) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity
}

// Stats 返回缓存状态快照
func (c *TransformCache) Stats() (CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return CacheStats{}, &ReleasedError{Resource: "transform cache", Op: "Stats"}
	}
	s := c.stats
	s.Size = c.lru.Len()
	s.Capacity = c.capacity
	keys := c.lru.Keys()
	if len(keys) > sampleKeyCount {
		keys = keys[:sampleKeyCount]
	}
	s.SampleKeys = keys
	return s, nil
}

// Released 是否已释放
func (c *TransformCache) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

// Release 释放所有缓存图片
//
// 可重复调用：只有第一次真正执行释放并返回 true。之后的所有操作都返回 ErrReleased。
func (c *TransformCache) Release() bool {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return false
	}
	c.released = true
	images := c.lru.Values()
	c.lru.Purge()
	c.metrics.size(0)
	c.mu.Unlock()

	for _, img := range images {
		img.Deallocate()
	}
	c.logger.Infof("transform cache released (%d images)", len(images))
	return true
}
