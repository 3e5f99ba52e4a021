package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"sync"
)

// Document 单文件模式的顶层结构：一个文件包含多个动画单元
type Document struct {
	Animations []AnimationConfig `yaml:"animations" toml:"animations"`
}

// Manager 动画配置管理器
// 负责加载和管理全部动画单元配置，按 id 索引
type Manager struct {
	units   []*AnimationConfig          // 按加载顺序
	unitMap map[string]*AnimationConfig // 按 id 索引的配置映射
	mu      sync.RWMutex                // 读写锁（并发安全）
}

// NewManager 创建配置管理器
//
// 参数：
//   - fsys: 配置所在的文件系统（磁盘目录用 os.DirFS，打包资源用 embed.FS）
//   - configPath: fsys 内的文件路径或目录路径
//   - 如果是文件路径（如 "units.yaml"），则使用单文件模式，文件内以 animations 列出所有单元
//   - 如果是目录路径（如 "units"），则目录下每个 .yaml/.yml/.toml 文件是一个单元
//
// 返回：
//   - *Manager: 配置管理器实例
//   - error: 加载、解析或校验错误
func NewManager(fsys fs.FS, configPath string) (*Manager, error) {
	info, err := fs.Stat(fsys, configPath)
	if err != nil {
		return nil, fmt.Errorf("无法访问路径 %s: %w", configPath, err)
	}
	if info.IsDir() {
		return loadFromDirectory(fsys, configPath)
	}
	return loadFromFile(fsys, configPath)
}

// loadFromFile 从单个文件加载所有单元
func loadFromFile(fsys fs.FS, configPath string) (*Manager, error) {
	format, err := FormatOf(configPath)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(fsys, configPath)
	if err != nil {
		return nil, fmt.Errorf("无法读取配置文件 %s: %w", configPath, err)
	}

	var doc Document
	if err := decode(data, format, &doc); err != nil {
		return nil, fmt.Errorf("无法解析配置文件 %s: %w", configPath, err)
	}

	units := make([]*AnimationConfig, 0, len(doc.Animations))
	for i := range doc.Animations {
		unit := &doc.Animations[i]
		if unit.ID == "" {
			return nil, fmt.Errorf("动画单元 #%d 缺少 'id' 字段", i)
		}
		units = append(units, unit)
	}
	return newManager(units, path.Dir(configPath))
}

// loadFromDirectory 从目录加载所有配置文件
func loadFromDirectory(fsys fs.FS, dirPath string) (*Manager, error) {
	entries, err := fs.ReadDir(fsys, dirPath)
	if err != nil {
		return nil, fmt.Errorf("扫描目录 %s 失败: %w", dirPath, err)
	}

	var units []*AnimationConfig
	for _, entry := range entries {
		if entry.IsDir() || !isConfigFile(entry.Name()) {
			continue
		}
		file := path.Join(dirPath, entry.Name())
		unit, err := loadFromFS(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("加载文件 %s 失败: %w", file, err)
		}
		// 跳过没有 id 字段的文件（如共享片段）
		if unit.ID == "" {
			continue
		}
		units = append(units, unit)
	}
	return newManager(units, dirPath)
}

// newManager 补全默认值、校验并构建索引
func newManager(units []*AnimationConfig, baseDir string) (*Manager, error) {
	unitMap := make(map[string]*AnimationConfig, len(units))
	for _, unit := range units {
		if _, exists := unitMap[unit.ID]; exists {
			return nil, fmt.Errorf("重复的动画单元 ID: %s", unit.ID)
		}
		unit.ApplyDefaults()
		if err := unit.Validate(); err != nil {
			return nil, fmt.Errorf("动画单元 '%s' 配置非法: %w", unit.ID, err)
		}
		// images_dir 相对于配置所在目录
		if unit.ImagesDir != "" && !path.IsAbs(unit.ImagesDir) {
			unit.ImagesDir = path.Join(baseDir, unit.ImagesDir)
		}
		unitMap[unit.ID] = unit
	}

	return &Manager{
		units:   units,
		unitMap: unitMap,
	}, nil
}

// ErrUnitNotFound 动画单元不存在
var ErrUnitNotFound = errors.New("config: animation unit not found")

// GetUnit 获取动画单元配置
//
// 参数：
//   - id: 动画单元 ID（如 "knight"）
//
// 返回：
//   - *AnimationConfig: 动画单元配置
//   - error: 单元不存在时返回包装了 ErrUnitNotFound 的错误
func (m *Manager) GetUnit(id string) (*AnimationConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	unit, exists := m.unitMap[id]
	if !exists {
		return nil, fmt.Errorf("动画单元 '%s' 不存在: %w", id, ErrUnitNotFound)
	}

	return unit, nil
}

// ListUnits 按字典序列出所有动画单元 ID
func (m *Manager) ListUnits() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.unitMap))
	for id := range m.unitMap {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len 动画单元数量
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.units)
}

// Register 运行时添加或替换一个动画单元（例如编辑器热加载）
func (m *Manager) Register(unit AnimationConfig) error {
	if unit.ID == "" {
		return fmt.Errorf("动画单元缺少 'id' 字段")
	}
	unit.ApplyDefaults()
	if err := unit.Validate(); err != nil {
		return fmt.Errorf("动画单元 '%s' 配置非法: %w", unit.ID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	u := &unit
	// 替换指针而不是修改旧对象，已取出的配置保持不变
	if old, exists := m.unitMap[unit.ID]; exists {
		for i := range m.units {
			if m.units[i] == old {
				m.units[i] = u
			}
		}
	} else {
		m.units = append(m.units, u)
	}
	m.unitMap[unit.ID] = u
	return nil
}
