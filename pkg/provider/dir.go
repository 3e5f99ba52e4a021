package provider

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gonewx/frameplayer/pkg/animation"
	"github.com/hajimehoshi/ebiten/v2"
)

// DefaultExtensions 帧标识不带扩展名时依次尝试的扩展名
var DefaultExtensions = []string{".png", ".jpg", ".jpeg"}

// Invalidator 失效某一帧派生出的所有变换图片
// *animation.TransformCache 实现了该接口
type Invalidator interface {
	InvalidateFrame(id animation.FrameID) (int, error)
}

// Dir 把帧标识解析为文件系统中的图片文件，并缓存解码后的原始图片（并发安全）
//
// 帧标识是相对根目录、以 / 分隔的路径，扩展名可省略：
// 文件存在时 "knight/walk_0" 解析为 "knight/walk_0.png"。
//
// 使用示例：
//
//	images := provider.NewDir(os.DirFS("assets/frames"))
//	img, err := images.Fetch("knight/walk_0")
//	if err != nil {
//	    log.Printf("加载帧失败: %v", err)
//	}
type Dir struct {
	fsys       fs.FS
	extensions []string

	mu  sync.RWMutex
	raw map[animation.FrameID]*ebiten.Image // 解码缓存：帧标识 -> 图片
}

// NewDir 创建从 fsys 读取图片的提供者
func NewDir(fsys fs.FS) *Dir {
	return &Dir{
		fsys:       fsys,
		extensions: DefaultExtensions,
		raw:        make(map[animation.FrameID]*ebiten.Image),
	}
}

// Fetch 实现 animation.ImageProvider
// 解码结果一直缓存，直到对同一标识调用 Forget
func (d *Dir) Fetch(id animation.FrameID) (*ebiten.Image, error) {
	d.mu.RLock()
	img, ok := d.raw[id]
	d.mu.RUnlock()
	if ok {
		return img, nil
	}

	name, err := d.resolve(id)
	if err != nil {
		return nil, &animation.MissingResourceError{Frame: id, Err: err}
	}
	decoded, err := d.decode(name)
	if err != nil {
		return nil, &animation.MissingResourceError{Frame: id, Err: err}
	}
	img = ebiten.NewImageFromImage(decoded)

	d.mu.Lock()
	defer d.mu.Unlock()
	// 并发解码同一帧时保留先写入的那张
	if cached, ok := d.raw[id]; ok {
		return cached, nil
	}
	d.raw[id] = img
	return img, nil
}

// resolve 查找帧标识对应的文件
func (d *Dir) resolve(id animation.FrameID) (string, error) {
	name := strings.TrimPrefix(string(id), "/")
	if !fs.ValidPath(name) {
		return "", fmt.Errorf("invalid frame path %q", id)
	}
	if path.Ext(name) != "" {
		if _, err := fs.Stat(d.fsys, name); err == nil {
			return name, nil
		}
	}
	for _, ext := range d.extensions {
		if _, err := fs.Stat(d.fsys, name+ext); err == nil {
			return name + ext, nil
		}
	}
	return "", fmt.Errorf("no image file for %q: %w", id, fs.ErrNotExist)
}

func (d *Dir) decode(name string) (image.Image, error) {
	f, err := d.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", name, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", name, err)
	}
	return img, nil
}

// Forget 丢弃缓存的原始图片，下次 Fetch 重新解码文件
func (d *Dir) Forget(id animation.FrameID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.raw[id]
	delete(d.raw, id)
	return ok
}

// Preload 预先解码指定帧，返回第一个错误
func (d *Dir) Preload(ids []animation.FrameID) error {
	for _, id := range ids {
		if _, err := d.Fetch(id); err != nil {
			return err
		}
	}
	return nil
}

// Watch 监听 root（提供者文件系统对应的磁盘目录）下的文件变化
//
// 图片文件被写入、替换或删除时，丢弃其原始图片并失效派生的变换图片，
// 下一次 Render 会使用新的像素。
// Watch 会阻塞，直到 ctx 取消或监听器出错。
func (d *Dir) Watch(ctx context.Context, root string, inv Invalidator) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	err = filepath.WalkDir(root, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			d.handleEvent(watcher, root, ev, inv)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[Provider] watch error: %v", err)
		}
	}
}

func (d *Dir) handleEvent(watcher *fsnotify.Watcher, root string, ev fsnotify.Event, inv Invalidator) {
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if err := watcher.Add(ev.Name); err != nil {
				log.Printf("[Provider] watch %s: %v", ev.Name, err)
			}
			return
		}
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}

	rel, err := filepath.Rel(root, ev.Name)
	if err != nil {
		return
	}
	for _, id := range frameIDsForFile(filepath.ToSlash(rel)) {
		d.Forget(id)
		if inv == nil {
			continue
		}
		n, err := inv.InvalidateFrame(id)
		if err != nil {
			if !errors.Is(err, animation.ErrReleased) {
				log.Printf("[Provider] invalidate %s: %v", id, err)
			}
			continue
		}
		if n > 0 {
			log.Printf("[Provider] %s changed, invalidated %d cached images", id, n)
		}
	}
}

// frameIDsForFile 返回可能指向该文件的帧标识：完整路径，以及去掉扩展名的路径
func frameIDsForFile(rel string) []animation.FrameID {
	ids := []animation.FrameID{animation.FrameID(rel)}
	if ext := path.Ext(rel); ext != "" {
		ids = append(ids, animation.FrameID(strings.TrimSuffix(rel, ext)))
	}
	return ids
}
