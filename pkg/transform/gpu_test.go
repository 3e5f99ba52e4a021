package transform

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// TestGPU_OutputBounds GPU 变换返回新图片，尺寸与 Plan 一致
func TestGPU_OutputBounds(t *testing.T) {
	src := ebiten.NewImage(4, 2)
	defer src.Deallocate()

	tests := []struct {
		name          string
		width, height int
		angle         float64
		flipX         bool
		wantW, wantH  int
	}{
		{"恒等", 0, 0, 0, false, 4, 2},
		{"缩放", 16, 8, 0, false, 16, 8},
		{"旋转 90 度", 0, 0, 90, false, 2, 4},
		{"翻转", 0, 0, 0, true, 4, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := GPU(src, tt.width, tt.height, tt.angle, tt.flipX, false)
			if err != nil {
				t.Fatalf("变换失败: %v", err)
			}
			defer out.Deallocate()
			if out == src {
				t.Fatal("应返回新图片")
			}
			b := out.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("期望 %dx%d，实际 %dx%d", tt.wantW, tt.wantH, b.Dx(), b.Dy())
			}
		})
	}

	if _, err := GPU(nil, 0, 0, 0, false, false); err == nil {
		t.Error("nil 原图应报错")
	}
}
