package provider

import (
	"errors"

	"github.com/gonewx/frameplayer/pkg/animation"
	"github.com/hajimehoshi/ebiten/v2"
)

// Chain 按顺序尝试各个图片提供者，返回第一张找到的图片
// 返回 ErrMissingResource 的提供者会把请求交给下一个，其他错误立即终止查找。
//
// 使用示例：
//
//	images := provider.Chain{provider.NewDir(os.DirFS("assets/frames")), provider.NewStore(manager, "")}
type Chain []animation.ImageProvider

// Fetch 实现 animation.ImageProvider
func (c Chain) Fetch(id animation.FrameID) (*ebiten.Image, error) {
	var errs []error
	for _, p := range c {
		if p == nil {
			continue
		}
		img, err := p.Fetch(id)
		if err == nil {
			return img, nil
		}
		if !errors.Is(err, animation.ErrMissingResource) {
			return nil, err
		}
		errs = append(errs, err)
	}
	return nil, &animation.MissingResourceError{Frame: id, Err: errors.Join(errs...)}
}
