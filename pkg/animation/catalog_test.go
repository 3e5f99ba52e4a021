package animation

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hajimehoshi/ebiten/v2"
)

// TestCatalog_Register 测试状态注册与校验
func TestCatalog_Register(t *testing.T) {
	tests := []struct {
		name     string
		state    string
		frames   []FrameSource
		duration float64
		wantErr  bool
	}{
		{"合法状态", "walk", Identifiers("w0", "w1"), 0.1, false},
		{"空状态名", "", Identifiers("w0"), 0.1, true},
		{"空帧序列", "walk", nil, 0.1, true},
		{"零时长", "walk", Identifiers("w0"), 0, true},
		{"负时长", "walk", Identifiers("w0"), -0.5, true},
		{"NaN 时长", "walk", Identifiers("w0"), math.NaN(), true},
		{"无穷时长", "walk", Identifiers("w0"), math.Inf(1), true},
		{"空帧来源", "walk", []FrameSource{Identifier("w0"), {}}, 0.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCatalog()
			err := c.Register(tt.state, tt.frames, tt.duration, false)
			if tt.wantErr {
				if !errors.Is(err, ErrConfig) {
					t.Errorf("期望 ErrConfig，实际 %v", err)
				}
				if c.Len() != 0 {
					t.Error("失败的注册不应留下状态")
				}
				return
			}
			if err != nil {
				t.Fatalf("意外错误: %v", err)
			}
			if !c.Has(tt.state) {
				t.Errorf("状态 %s 未注册", tt.state)
			}
		})
	}
}

// TestCatalog_Overwrite 同名状态需要显式允许覆盖
func TestCatalog_Overwrite(t *testing.T) {
	c := NewCatalog()
	if err := c.Register("walk", Identifiers("a", "b"), 0.1, false); err != nil {
		t.Fatal(err)
	}
	old, _ := c.State("walk")

	if err := c.Register("walk", Identifiers("c"), 0.2, false); !errors.Is(err, ErrConfig) {
		t.Fatalf("重复注册应返回 ErrConfig，实际 %v", err)
	}
	if err := c.Register("walk", Identifiers("c"), 0.2, true); err != nil {
		t.Fatalf("覆盖注册失败: %v", err)
	}

	def, _ := c.State("walk")
	if def == old {
		t.Error("覆盖应产生新的定义对象")
	}
	if old.FrameCount() != 2 {
		t.Error("旧定义不应被修改")
	}
	if def.FrameCount() != 1 || def.Duration() != 0.2 {
		t.Errorf("新定义不符: %d 帧 %v 秒", def.FrameCount(), def.Duration())
	}
	if diff := cmp.Diff([]string{"walk"}, c.Names()); diff != "" {
		t.Errorf("覆盖不应改变注册顺序 (-want +got):\n%s", diff)
	}
}

// TestCatalog_Queries 测试只读查询
func TestCatalog_Queries(t *testing.T) {
	c := NewCatalog()
	c.Register("idle", Identifiers("i0"), 0.2, false)
	c.Register("attack", Identifiers("a0", "a1", "a2"), 0.05, false)

	if name, ok := c.First(); !ok || name != "idle" {
		t.Errorf("First 期望 idle，实际 %q %v", name, ok)
	}
	if diff := cmp.Diff([]string{"idle", "attack"}, c.Names()); diff != "" {
		t.Errorf("Names 不符 (-want +got):\n%s", diff)
	}

	n, err := c.FrameCount("attack")
	if err != nil || n != 3 {
		t.Errorf("FrameCount 期望 3，实际 %d (%v)", n, err)
	}
	d, err := c.Duration("attack")
	if err != nil || d != 0.05 {
		t.Errorf("Duration 期望 0.05，实际 %v (%v)", d, err)
	}
	id, err := c.FrameAt("attack", 2)
	if err != nil || id != "a2" {
		t.Errorf("FrameAt 期望 a2，实际 %q (%v)", id, err)
	}
	if _, err := c.FrameAt("attack", 3); !errors.Is(err, ErrFrameIndex) {
		t.Errorf("越界索引应返回 ErrFrameIndex，实际 %v", err)
	}
	if _, err := c.FrameAt("attack", -1); !errors.Is(err, ErrFrameIndex) {
		t.Errorf("负索引应返回 ErrFrameIndex，实际 %v", err)
	}

	_, err = c.FrameCount("fly")
	var use *UnknownStateError
	if !errors.As(err, &use) {
		t.Fatalf("期望 *UnknownStateError，实际 %v", err)
	}
	if diff := cmp.Diff([]string{"idle", "attack"}, use.Available); diff != "" {
		t.Errorf("错误应列出可用状态 (-want +got):\n%s", diff)
	}

	def, _ := c.State("attack")
	frames := def.Frames()
	frames[0] = "mutated"
	if got, _ := def.Frame(0); got != "a0" {
		t.Error("Frames 应返回副本")
	}

	if _, ok := NewCatalog().First(); ok {
		t.Error("空目录的 First 应返回 false")
	}
}

// TestCatalog_InlineImages 内联图片被分配全局唯一的合成标识
func TestCatalog_InlineImages(t *testing.T) {
	img := ebiten.NewImage(2, 2)
	a, b := NewCatalog(), NewCatalog()
	a.Register("idle", []FrameSource{InlineImage(img), Identifier("x")}, 0.1, false)
	b.Register("idle", []FrameSource{InlineImage(img)}, 0.1, false)

	ida, _ := a.FrameAt("idle", 0)
	idb, _ := b.FrameAt("idle", 0)
	if ida == idb {
		t.Errorf("不同目录的合成标识不应冲突: %q", ida)
	}
	if got, ok := a.inlineImage(ida); !ok || got != img {
		t.Error("应能按合成标识找回内联图片")
	}
	if id, _ := a.FrameAt("idle", 1); id != "x" {
		t.Errorf("标识来源应保持原样，实际 %q", id)
	}
	if _, ok := a.inlineImage("x"); ok {
		t.Error("标识来源不应被当作内联图片")
	}
}
