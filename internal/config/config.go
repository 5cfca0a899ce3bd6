package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Upload UploadConfig `toml:"upload"`
	Import ImportConfig `toml:"import"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port     int  `toml:"port"`
	DevMode  bool `toml:"dev_mode"`
	AutoPort bool `toml:"auto_port"` // 端口被占用时顺延查找
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// UploadConfig 上传限制
type UploadConfig struct {
	MaxBytes int64 `toml:"max_bytes"`
}

// ImportConfig 导入配置
type ImportConfig struct {
	UpsertConcurrency int `toml:"upsert_concurrency"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

const (
	envDataDir = "RETAILDASH_DATA_DIR"
	envPort    = "RETAILDASH_PORT"

	// DefaultMaxUploadBytes 默认上传上限 10MB
	DefaultMaxUploadBytes int64 = 10 * 1024 * 1024
)

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:     20262,
			DevMode:  false,
			AutoPort: true,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Upload: UploadConfig{
			MaxBytes: DefaultMaxUploadBytes,
		},
		Import: ImportConfig{
			UpsertConcurrency: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverMap, ok := raw["server"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultPath 可执行文件同目录下的 config.toml
func DefaultPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadFile 从指定路径加载配置；文件不存在时使用默认配置
// 环境变量在文件之后生效。
func LoadFile(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("decode %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	// 环境变量覆盖（用于部署 / 本地运行）
	if v := os.Getenv(envDataDir); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv(envPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return nil, info, fmt.Errorf("invalid %s %q", envPort, v)
		}
		config.Server.Port = port
		info.PortSpecified = true
	}

	config.normalize()
	return config, info, nil
}

// LoadConfigWithInfo 从 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadFile(DefaultPath())
}

// normalize 把非法值收敛到默认值
func (c *AppConfig) normalize() {
	def := DefaultConfig()
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = def.Upload.MaxBytes
	}
	if c.Import.UpsertConcurrency <= 0 {
		c.Import.UpsertConcurrency = def.Import.UpsertConcurrency
	}
	if c.Data.DataDir == "" {
		c.Data.DataDir = def.Data.DataDir
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

// SaveConfig 保存配置到指定路径
func SaveConfig(config *AppConfig, path string) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EnsureDataDir 确保数据目录存在，返回其绝对路径
// 相对路径相对于可执行文件所在目录。
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(filepath.Join(dataDir, "uploads"), 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// DatabasePath 数据库文件路径
func DatabasePath(dataDir string) string {
	return filepath.Join(dataDir, "retaildash.db")
}
