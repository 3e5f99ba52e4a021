package config

import (
	"bytes"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gonewx/frameplayer/pkg/animation"
	"gopkg.in/yaml.v3"
)

// AnimationConfig 单个动画单元的配置
//
// 文件示例（YAML）：
//
//	id: knight
//	frames:
//	  idle: [knight/idle_0, knight/idle_1]
//	  walk: [knight/walk_0, knight/walk_1, knight/walk_2]
//	frame_durations:
//	  walk: 0.08
//	frame_duration: 0.1
//	initial_state: idle
//	initial_scale: [64, 64]
//	play_mode: pingpong
//	max_cache_entries: 200
type AnimationConfig struct {
	ID   string `yaml:"id" toml:"id"`
	Name string `yaml:"name,omitempty" toml:"name,omitempty"`

	// Frames 状态名 -> 帧标识序列
	Frames map[string][]string `yaml:"frames" toml:"frames"`

	// FrameDurations 状态名 -> 每帧秒数
	// 未列出的状态使用 FrameDuration；两者都没有时校验失败
	FrameDurations map[string]float64 `yaml:"frame_durations,omitempty" toml:"frame_durations,omitempty"`
	FrameDuration  float64            `yaml:"frame_duration,omitempty" toml:"frame_duration,omitempty"`

	InitialState string `yaml:"initial_state,omitempty" toml:"initial_state,omitempty"`

	// InitialScale 目标尺寸 [宽, 高]，[0, 0] 或省略表示保持原图尺寸
	InitialScale []int `yaml:"initial_scale,omitempty" toml:"initial_scale,omitempty"`

	PlayMode        string `yaml:"play_mode,omitempty" toml:"play_mode,omitempty"`
	MaxCacheEntries int    `yaml:"max_cache_entries,omitempty" toml:"max_cache_entries,omitempty"`

	// ImagesDir 帧图片目录（相对于配置文件所在目录），供 provider.Dir 使用
	ImagesDir string `yaml:"images_dir,omitempty" toml:"images_dir,omitempty"`
}

// Format 配置文件格式
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
)

// FormatOf 根据扩展名判断格式
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return 0, fmt.Errorf("不支持的配置文件格式: %s", name)
}

// isConfigFile 目录模式下参与加载的文件
func isConfigFile(name string) bool {
	_, err := FormatOf(name)
	return err == nil
}

// decode 严格解码：出现未知字段时报错，避免拼写错误被静默忽略
func decode(data []byte, format Format, v any) error {
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), v)
		if err != nil {
			return fmt.Errorf("无法解析 TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return fmt.Errorf("未知字段: %s", strings.Join(keys, ", "))
		}
		return nil
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("无法解析 YAML: %w", err)
		}
		return nil
	}
}

// ParseAnimationConfig 解析、补全默认值并校验配置
func ParseAnimationConfig(data []byte, format Format) (*AnimationConfig, error) {
	var cfg AnimationConfig
	if err := decode(data, format, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadAnimationConfig 从磁盘加载配置文件
//
// 参数：
//   - path: 配置文件路径（.yaml / .yml / .toml）
//
// 返回：
//   - *AnimationConfig: 已补全默认值并通过校验的配置
//   - error: 读取、解析或校验错误（校验错误可用 errors.Is(err, animation.ErrConfig) 判断）
func LoadAnimationConfig(path string) (*AnimationConfig, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取配置文件 %s: %w", path, err)
	}
	cfg, err := ParseAnimationConfig(data, format)
	if err != nil {
		return nil, fmt.Errorf("配置文件 %s: %w", path, err)
	}
	if cfg.ImagesDir != "" && !filepath.IsAbs(cfg.ImagesDir) {
		cfg.ImagesDir = filepath.Join(filepath.Dir(path), cfg.ImagesDir)
	}
	return cfg, nil
}

// ApplyDefaults 补全默认值
func (c *AnimationConfig) ApplyDefaults() {
	if c.MaxCacheEntries == 0 {
		c.MaxCacheEntries = animation.DefaultCacheCapacity
	}
	if c.PlayMode == "" {
		c.PlayMode = animation.Loop.String()
	}
	if c.InitialState == "" {
		if names := c.StateNames(); len(names) > 0 {
			c.InitialState = names[0]
		}
	}
}

// StateNames 按字典序返回所有状态名（也是注册顺序）
func (c *AnimationConfig) StateNames() []string {
	names := make([]string, 0, len(c.Frames))
	for name := range c.Frames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DurationOf 返回状态的每帧秒数
func (c *AnimationConfig) DurationOf(state string) (float64, bool) {
	if d, ok := c.FrameDurations[state]; ok {
		return d, true
	}
	if c.FrameDuration > 0 {
		return c.FrameDuration, true
	}
	return 0, false
}

// Validate 校验配置
//
// 返回：
//   - error: 第一个非法字段对应的 *animation.ConfigError
func (c *AnimationConfig) Validate() error {
	if len(c.Frames) == 0 {
		return &animation.ConfigError{Field: "frames", Reason: "at least one state is required"}
	}

	for _, name := range c.StateNames() {
		frames := c.Frames[name]
		if len(frames) == 0 {
			return &animation.ConfigError{Field: fmt.Sprintf("frames[%s]", name), Reason: "must not be empty"}
		}
		for i, id := range frames {
			if id == "" {
				return &animation.ConfigError{Field: fmt.Sprintf("frames[%s][%d]", name, i), Reason: "empty frame identifier"}
			}
		}
		d, ok := c.DurationOf(name)
		if !ok {
			return &animation.ConfigError{Field: fmt.Sprintf("frame_durations[%s]", name), Reason: "missing and no frame_duration fallback"}
		}
		if !(d > 0) || math.IsInf(d, 0) {
			return &animation.ConfigError{Field: fmt.Sprintf("frame_durations[%s]", name), Reason: fmt.Sprintf("must be a positive number of seconds, got %v", d)}
		}
	}

	// frame_durations 中多出的状态名通常是拼写错误
	var extra []string
	for name := range c.FrameDurations {
		if _, ok := c.Frames[name]; !ok {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return &animation.ConfigError{Field: "frame_durations", Reason: fmt.Sprintf("states not present in frames: %s", strings.Join(extra, ", "))}
	}

	if c.FrameDuration < 0 || math.IsNaN(c.FrameDuration) || math.IsInf(c.FrameDuration, 0) {
		return &animation.ConfigError{Field: "frame_duration", Reason: fmt.Sprintf("must be a positive number of seconds, got %v", c.FrameDuration)}
	}

	if c.InitialState != "" {
		if _, ok := c.Frames[c.InitialState]; !ok {
			return &animation.ConfigError{Field: "initial_state", Reason: fmt.Sprintf("unknown state %q", c.InitialState)}
		}
	}

	if len(c.InitialScale) != 0 {
		if len(c.InitialScale) != 2 {
			return &animation.ConfigError{Field: "initial_scale", Reason: fmt.Sprintf("want [width, height], got %d values", len(c.InitialScale))}
		}
		if c.InitialScale[0] < 0 || c.InitialScale[1] < 0 {
			return &animation.ConfigError{Field: "initial_scale", Reason: fmt.Sprintf("must not be negative, got %v", c.InitialScale)}
		}
	}

	if _, err := animation.ParsePlayMode(c.PlayMode); err != nil {
		return err
	}

	// 0 表示使用默认容量
	if c.MaxCacheEntries != 0 && c.MaxCacheEntries < animation.MinCacheCapacity {
		return &animation.ConfigError{Field: "max_cache_entries", Reason: fmt.Sprintf("must be >= %d, got %d", animation.MinCacheCapacity, c.MaxCacheEntries)}
	}
	return nil
}

// Mode 返回解析后的播放模式
func (c *AnimationConfig) Mode() (animation.PlayMode, error) {
	return animation.ParsePlayMode(c.PlayMode)
}

// Scale 返回初始目标尺寸
func (c *AnimationConfig) Scale() animation.Size {
	if len(c.InitialScale) != 2 {
		return animation.Size{}
	}
	return animation.Size{Width: c.InitialScale[0], Height: c.InitialScale[1]}
}

// FrameIDs 返回配置中出现的所有帧标识（去重，按字典序）
func (c *AnimationConfig) FrameIDs() []animation.FrameID {
	seen := make(map[string]struct{})
	for _, frames := range c.Frames {
		for _, id := range frames {
			seen[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]animation.FrameID, len(ids))
	for i, id := range ids {
		out[i] = animation.FrameID(id)
	}
	return out
}

// Catalog 根据配置构建状态目录
func (c *AnimationConfig) Catalog() (*animation.Catalog, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	catalog := animation.NewCatalog()
	for _, name := range c.StateNames() {
		d, _ := c.DurationOf(name)
		if err := catalog.Register(name, animation.Identifiers(c.Frames[name]...), d, false); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

// NewCache 按 max_cache_entries 创建缓存
//
// 多个同类单元共享一个缓存时，由调用方只调用一次并传给每个播放器。
func (c *AnimationConfig) NewCache(metrics *animation.CacheMetrics, logger animation.Logger) (*animation.TransformCache, error) {
	capacity := c.MaxCacheEntries
	if capacity == 0 {
		capacity = animation.DefaultCacheCapacity
	}
	return animation.NewTransformCache(capacity, animation.CacheOptions{Metrics: metrics, Logger: logger})
}

// PlayerOptions 根据配置生成播放器参数
//
// provider、cache、logger 由调用方注入；cache 为 nil 时播放器按 max_cache_entries 创建私有缓存。
func (c *AnimationConfig) PlayerOptions(provider animation.ImageProvider, cache *animation.TransformCache, logger animation.Logger) (animation.Options, error) {
	mode, err := c.Mode()
	if err != nil {
		return animation.Options{}, err
	}
	return animation.Options{
		Mode:          mode,
		InitialState:  c.InitialState,
		Provider:      provider,
		Cache:         cache,
		CacheCapacity: c.MaxCacheEntries,
		Logger:        logger,
	}, nil
}

// NewPlayer 一步创建目录与播放器，缓存归播放器私有
func (c *AnimationConfig) NewPlayer(provider animation.ImageProvider, logger animation.Logger) (*animation.Player, error) {
	catalog, err := c.Catalog()
	if err != nil {
		return nil, err
	}
	opts, err := c.PlayerOptions(provider, nil, logger)
	if err != nil {
		return nil, err
	}
	return animation.NewPlayer(catalog, opts)
}

// loadFromFS 从 fs.FS 读取并解析单个配置
func loadFromFS(fsys fs.FS, name string) (*AnimationConfig, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件: %w", err)
	}
	var cfg AnimationConfig
	if err := decode(data, format, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
