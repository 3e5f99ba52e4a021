package animation

import (
	"errors"
	"fmt"
	"strings"
)

// 错误分类
//
// 所有具体错误类型都可以通过 errors.Is 与下列哨兵错误匹配。
var (
	// ErrConfig 配置/状态目录非法（构建阶段的致命错误）
	ErrConfig = errors.New("animation: invalid configuration")
	// ErrUnknownState 请求的动画状态未注册
	ErrUnknownState = errors.New("animation: unknown state")
	// ErrMissingResource 图片提供者无法解析帧标识
	ErrMissingResource = errors.New("animation: missing resource")
	// ErrReleased 资源已被显式释放后仍被使用
	ErrReleased = errors.New("animation: resource released")
	// ErrFrameIndex 帧索引越界（内部契约，调用方应先钳制）
	ErrFrameIndex = errors.New("animation: frame index out of range")
)

// ConfigError 描述一个非法的配置字段
type ConfigError struct {
	Field  string // 出错的字段，如 "frames[walk]"
	Reason string // 人类可读的原因
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("animation: invalid configuration: %s", e.Reason)
	}
	return fmt.Sprintf("animation: invalid configuration %s: %s", e.Field, e.Reason)
}

// Is 使 errors.Is(err, ErrConfig) 成立
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// UnknownStateError 请求了未注册的状态
type UnknownStateError struct {
	Name      string
	Available []string
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("animation: unknown state %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

func (e *UnknownStateError) Is(target error) bool { return target == ErrUnknownState }

// MissingResourceError 图片提供者无法提供指定帧
type MissingResourceError struct {
	Frame FrameID
	Err   error // 底层原因，可为 nil
}

func (e *MissingResourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("animation: missing resource %q", string(e.Frame))
	}
	return fmt.Sprintf("animation: missing resource %q: %v", string(e.Frame), e.Err)
}

func (e *MissingResourceError) Is(target error) bool { return target == ErrMissingResource }

func (e *MissingResourceError) Unwrap() error { return e.Err }

// ReleasedError 在 Release 之后调用了操作
type ReleasedError struct {
	Resource string // "player" 或 "transform cache"
	Op       string
}

func (e *ReleasedError) Error() string {
	return fmt.Sprintf("animation: %s: %s used after release", e.Op, e.Resource)
}

func (e *ReleasedError) Is(target error) bool { return target == ErrReleased }
