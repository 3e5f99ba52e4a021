package animation

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/prometheus/client_golang/prometheus"
)

func testKey(i int) TransformKey {
	return NewTransformKey(FrameID(fmt.Sprintf("f%d", i)), Transform{})
}

func newImageBuilder(builds *atomic.Int64) BuildFunc {
	return func() (*ebiten.Image, error) {
		if builds != nil {
			builds.Add(1)
		}
		return ebiten.NewImage(1, 1), nil
	}
}

func newTestCache(t *testing.T, capacity int) *TransformCache {
	t.Helper()
	c, err := NewTransformCache(capacity, CacheOptions{Logger: NopLogger{}})
	if err != nil {
		t.Fatalf("创建缓存失败: %v", err)
	}
	t.Cleanup(func() { c.Release() })
	return c
}

func fill(t *testing.T, c *TransformCache, from, to int) {
	t.Helper()
	for i := from; i < to; i++ {
		if _, err := c.GetOrBuild(testKey(i), newImageBuilder(nil)); err != nil {
			t.Fatalf("插入 %d 失败: %v", i, err)
		}
	}
}

// TestTransformCache_Capacity 测试构造参数的容量下限
func TestTransformCache_Capacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		wantErr  bool
	}{
		{"低于下限", MinCacheCapacity - 1, true},
		{"零", 0, true},
		{"负数", -5, true},
		{"等于下限", MinCacheCapacity, false},
		{"默认值", DefaultCacheCapacity, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewTransformCache(tt.capacity, CacheOptions{Logger: NopLogger{}})
			if tt.wantErr {
				if !errors.Is(err, ErrConfig) {
					t.Errorf("期望 ErrConfig，实际 %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("意外错误: %v", err)
			}
			defer c.Release()
			if c.Capacity() != tt.capacity {
				t.Errorf("期望容量 %d，实际 %d", tt.capacity, c.Capacity())
			}
		})
	}
}

// TestTransformCache_LRUEviction 超出容量时淘汰最久未使用的条目
func TestTransformCache_LRUEviction(t *testing.T) {
	c := newTestCache(t, 10)
	fill(t, c, 0, 11)

	if c.Len() != 10 {
		t.Errorf("期望 10 项，实际 %d", c.Len())
	}
	if c.Contains(testKey(0)) {
		t.Error("最旧的键应被淘汰")
	}
	for i := 1; i <= 10; i++ {
		if !c.Contains(testKey(i)) {
			t.Errorf("键 %d 不应被淘汰", i)
		}
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Evictions != 1 || stats.Builds != 11 || stats.Misses != 11 {
		t.Errorf("统计不符: %+v", stats)
	}
}

// TestTransformCache_AccessRefreshesRecency 命中会刷新最近使用标记
func TestTransformCache_AccessRefreshesRecency(t *testing.T) {
	c := newTestCache(t, 10)
	fill(t, c, 0, 10)

	builds := &atomic.Int64{}
	if _, err := c.GetOrBuild(testKey(0), newImageBuilder(builds)); err != nil {
		t.Fatal(err)
	}
	if builds.Load() != 0 {
		t.Fatal("命中时不应调用 builder")
	}

	fill(t, c, 10, 11)
	if !c.Contains(testKey(0)) {
		t.Error("刚访问过的键不应被淘汰")
	}
	if c.Contains(testKey(1)) {
		t.Error("键 1 应成为最久未使用并被淘汰")
	}
}

// TestTransformCache_SingleBuildPerKey 并发未命中同一个键时只构建一次
func TestTransformCache_SingleBuildPerKey(t *testing.T) {
	c := newTestCache(t, 10)
	key := testKey(7)

	var builds atomic.Int64
	gate := make(chan struct{})
	builder := func() (*ebiten.Image, error) {
		builds.Add(1)
		<-gate
		return ebiten.NewImage(2, 2), nil
	}

	const workers = 32
	results := make([]*ebiten.Image, workers)
	errs := make([]error, workers)
	var started, done sync.WaitGroup
	started.Add(workers)
	done.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i], errs[i] = c.GetOrBuild(key, builder)
		}(i)
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(gate)
	done.Wait()

	if n := builds.Load(); n != 1 {
		t.Fatalf("期望构建 1 次，实际 %d 次", n)
	}
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("第 %d 个调用失败: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatalf("第 %d 个调用拿到了不同的图片", i)
		}
	}
	if c.Len() != 1 {
		t.Errorf("期望 1 项，实际 %d", c.Len())
	}
}

// TestTransformCache_BuildFailure 构建失败不插入条目，下次重新构建
func TestTransformCache_BuildFailure(t *testing.T) {
	c := newTestCache(t, 10)
	boom := errors.New("decode failed")

	_, err := c.GetOrBuild(testKey(1), func() (*ebiten.Image, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("期望原样返回构建错误，实际 %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("失败时不应插入，实际 %d 项", c.Len())
	}

	_, err = c.GetOrBuild(testKey(1), func() (*ebiten.Image, error) { return nil, nil })
	if err == nil {
		t.Error("builder 返回 nil 图片时应报错")
	}

	builds := &atomic.Int64{}
	if _, err := c.GetOrBuild(testKey(1), newImageBuilder(builds)); err != nil {
		t.Fatal(err)
	}
	if builds.Load() != 1 {
		t.Error("失败之后应重新构建")
	}

	stats, _ := c.Stats()
	if stats.BuildFailures != 2 || stats.Builds != 3 {
		t.Errorf("统计不符: %+v", stats)
	}

	if _, err := c.GetOrBuild(testKey(2), nil); err == nil {
		t.Error("nil builder 应报错")
	}
}

// TestTransformCache_Invalidate 测试按谓词失效与清空
func TestTransformCache_Invalidate(t *testing.T) {
	c := newTestCache(t, 20)
	for _, tf := range []Transform{{}, {FlipX: true}, {Angle: 45}} {
		for _, id := range []FrameID{"a", "b"} {
			if _, err := c.GetOrBuild(NewTransformKey(id, tf), newImageBuilder(nil)); err != nil {
				t.Fatal(err)
			}
		}
	}

	n, err := c.InvalidateFrame("a")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 || c.Len() != 3 {
		t.Errorf("期望移除 3 项剩余 3 项，实际移除 %d 剩余 %d", n, c.Len())
	}

	n, _ = c.Invalidate(func(k TransformKey) bool { return k.Rotation == 4500 })
	if n != 1 {
		t.Errorf("期望移除 1 项，实际 %d", n)
	}

	n, _ = c.Invalidate(func(TransformKey) bool { return false })
	if n != 0 {
		t.Errorf("不匹配时不应移除，实际 %d", n)
	}

	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Errorf("Clear 后应为空，实际 %d", c.Len())
	}
}

// TestTransformCache_Resize 测试动态调整容量
func TestTransformCache_Resize(t *testing.T) {
	c := newTestCache(t, 20)
	fill(t, c, 0, 20)

	if err := c.Resize(MinCacheCapacity - 1); !errors.Is(err, ErrConfig) {
		t.Errorf("低于下限应返回 ErrConfig，实际 %v", err)
	}
	if c.Capacity() != 20 {
		t.Errorf("失败的 Resize 不应修改容量")
	}

	if err := c.Resize(10); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 10 || c.Capacity() != 10 {
		t.Errorf("缩容后期望 10/10，实际 %d/%d", c.Len(), c.Capacity())
	}
	for i := 0; i < 10; i++ {
		if c.Contains(testKey(i)) {
			t.Errorf("缩容应淘汰最旧的键 %d", i)
		}
	}

	if err := c.Resize(30); err != nil {
		t.Fatal(err)
	}
	fill(t, c, 100, 120)
	if c.Len() != 30 {
		t.Errorf("扩容后期望 30 项，实际 %d", c.Len())
	}
}

// TestTransformCache_StatsSampleKeys 样本键按最久未使用排序
func TestTransformCache_StatsSampleKeys(t *testing.T) {
	c := newTestCache(t, 10)
	fill(t, c, 0, 5)
	c.GetOrBuild(testKey(0), newImageBuilder(nil))

	stats, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	want := []TransformKey{testKey(1), testKey(2), testKey(3)}
	if diff := cmp.Diff(want, stats.SampleKeys); diff != "" {
		t.Errorf("样本键不符 (-want +got):\n%s", diff)
	}
	if stats.Size != 5 || stats.Capacity != 10 || stats.Hits != 1 {
		t.Errorf("统计不符: %+v", stats)
	}
}

// TestTransformCache_Reentrant builder 与谓词中可以再次访问缓存
func TestTransformCache_Reentrant(t *testing.T) {
	c := newTestCache(t, 10)

	outer := func() (*ebiten.Image, error) {
		if _, err := c.GetOrBuild(testKey(2), newImageBuilder(nil)); err != nil {
			return nil, err
		}
		_ = c.Len()
		return ebiten.NewImage(1, 1), nil
	}

	finished := make(chan error, 1)
	go func() {
		_, err := c.GetOrBuild(testKey(1), outer)
		if err == nil {
			_, err = c.Invalidate(func(k TransformKey) bool {
				return c.Contains(k) && k == testKey(2)
			})
		}
		finished <- err
	}()

	select {
	case err := <-finished:
		if err != nil {
			t.Fatalf("重入访问失败: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("重入访问死锁")
	}
	if !c.Contains(testKey(1)) || c.Contains(testKey(2)) {
		t.Errorf("重入后的缓存内容不符")
	}
}

// TestTransformCache_Release 释放幂等，释放后的操作返回 ErrReleased
func TestTransformCache_Release(t *testing.T) {
	c, err := NewTransformCache(10, CacheOptions{Logger: NopLogger{}})
	if err != nil {
		t.Fatal(err)
	}
	fill(t, c, 0, 3)

	if !c.Release() {
		t.Fatal("第一次 Release 应返回 true")
	}
	if c.Release() {
		t.Error("第二次 Release 应返回 false")
	}
	if c.Len() != 0 || c.Contains(testKey(1)) {
		t.Error("释放后应为空")
	}

	checks := map[string]error{}
	_, checks["GetOrBuild"] = c.GetOrBuild(testKey(9), newImageBuilder(nil))
	_, checks["Invalidate"] = c.Invalidate(func(TransformKey) bool { return true })
	checks["Clear"] = c.Clear()
	checks["Resize"] = c.Resize(20)
	_, checks["Stats"] = c.Stats()
	for op, err := range checks {
		if !errors.Is(err, ErrReleased) {
			t.Errorf("%s: 期望 ErrReleased，实际 %v", op, err)
		}
	}
}

// TestTransformCache_Metrics 测试 Prometheus 指标
func TestTransformCache_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewCacheMetrics(reg, "test")
	if err != nil {
		t.Fatalf("注册指标失败: %v", err)
	}
	if _, err := NewCacheMetrics(reg, "test"); err == nil {
		t.Error("重复注册应报错")
	}

	c, err := NewTransformCache(10, CacheOptions{Metrics: metrics, Logger: NopLogger{}})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Release()

	fill(t, c, 0, 12)
	c.GetOrBuild(testKey(11), newImageBuilder(nil))
	c.GetOrBuild(testKey(50), func() (*ebiten.Image, error) { return nil, errors.New("x") })

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	got := make(map[string]float64)
	for _, mf := range families {
		m := mf.GetMetric()[0]
		if m.GetCounter() != nil {
			got[mf.GetName()] = m.GetCounter().GetValue()
		} else {
			got[mf.GetName()] = m.GetGauge().GetValue()
		}
	}
	want := map[string]float64{
		"test_transform_cache_hits_total":           1,
		"test_transform_cache_misses_total":         13,
		"test_transform_cache_builds_total":         13,
		"test_transform_cache_build_failures_total": 1,
		"test_transform_cache_evictions_total":      2,
		"test_transform_cache_entries":              10,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("指标不符 (-want +got):\n%s", diff)
	}
}
