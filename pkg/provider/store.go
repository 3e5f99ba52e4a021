package provider

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"net/url"
	"sync"

	"github.com/gonewx/frameplayer/pkg/animation"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/quasilyte/gdata/v2"
)

// DefaultStoreObject 存放帧图片的 gdata 对象名
const DefaultStoreObject = "frames"

// Store 把编码后的帧图片保存在 gdata 对象存储中（每帧一个属性），首次 Fetch 时解码
//
// 用于运行时生成或下载、需要跨进程保留的帧，例如玩家自定义的精灵。
// manager 为 nil 时进入降级模式：Fetch 报告所有帧缺失，Put 返回错误。
type Store struct {
	manager *gdata.Manager
	object  string

	mu  sync.RWMutex
	raw map[animation.FrameID]*ebiten.Image // 解码缓存
}

// NewStore 在 gdata manager 上创建 Store，object 为空时使用 DefaultStoreObject
func NewStore(manager *gdata.Manager, object string) *Store {
	if object == "" {
		object = DefaultStoreObject
	}
	return &Store{
		manager: manager,
		object:  object,
		raw:     make(map[animation.FrameID]*ebiten.Image),
	}
}

// propKey 把帧标识转换为可作为文件名的 gdata 属性键
func propKey(id animation.FrameID) string {
	return url.QueryEscape(string(id))
}

// Put 保存编码后的图片字节（image 包已注册的任意格式），并丢弃旧的解码结果
func (s *Store) Put(id animation.FrameID, data []byte) error {
	if s.manager == nil {
		return fmt.Errorf("provider: gdata manager not available, cannot store %q", id)
	}
	if err := s.manager.SaveObjectProp(s.object, propKey(id), data); err != nil {
		return fmt.Errorf("provider: store %q: %w", id, err)
	}
	s.mu.Lock()
	delete(s.raw, id)
	s.mu.Unlock()
	return nil
}

// PutImage 把 img 编码为 PNG 后保存
func (s *Store) PutImage(id animation.FrameID, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("provider: encode %q: %w", id, err)
	}
	return s.Put(id, buf.Bytes())
}

// Has 帧是否存在于存储中
func (s *Store) Has(id animation.FrameID) bool {
	return s.manager != nil && s.manager.ObjectPropExists(s.object, propKey(id))
}

// Fetch 实现 animation.ImageProvider
func (s *Store) Fetch(id animation.FrameID) (*ebiten.Image, error) {
	s.mu.RLock()
	img, ok := s.raw[id]
	s.mu.RUnlock()
	if ok {
		return img, nil
	}

	if !s.Has(id) {
		return nil, &animation.MissingResourceError{Frame: id}
	}
	data, err := s.manager.LoadObjectProp(s.object, propKey(id))
	if err != nil {
		return nil, &animation.MissingResourceError{Frame: id, Err: err}
	}
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &animation.MissingResourceError{Frame: id, Err: fmt.Errorf("decode: %w", err)}
	}
	img = ebiten.NewImageFromImage(decoded)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.raw[id]; ok {
		return cached, nil
	}
	s.raw[id] = img
	return img, nil
}
