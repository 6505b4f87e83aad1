package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 配置文件结构体
type Config struct {
	Version string `yaml:"version"`

	Window struct {
		Width           int            `yaml:"width"`
		Height          int            `yaml:"height"`
		PlatformOffsets map[string]int `yaml:"platform_offsets"`
	} `yaml:"window"`

	C2paTool struct {
		Binary  string `yaml:"binary"`
		TempDir string `yaml:"temp_dir"`
	} `yaml:"c2patool"`

	Verify struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"verify"`

	Sqlite struct {
		Enabled bool   `yaml:"enabled"`
		Dsn     string `yaml:"dsn"`
		Prefix  string `yaml:"prefix"`
	} `yaml:"sqlite"`

	Log struct {
		Level  string   `yaml:"level"`
		Writer []string `yaml:"writer"`
		File   struct {
			Path       string `yaml:"path"`
			MaxSizeMB  int    `yaml:"max_size_mb"`
			MaxBackups int    `yaml:"max_backups"`
			MaxAgeDays int    `yaml:"max_age_days"`
		} `yaml:"file"`
	} `yaml:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	cfg := &Config{Version: "1.0.0"}

	cfg.Window.Width = 304
	cfg.Window.Height = 242
	// macOS 标题栏导致内容高度少 28 像素
	cfg.Window.PlatformOffsets = map[string]int{"darwin": 28}

	cfg.C2paTool.Binary = "c2patool"

	cfg.Verify.BaseURL = "https://contentcredentials.org/verify"

	cfg.Sqlite.Enabled = true
	cfg.Sqlite.Dsn = "file::memory:?cache=shared"
	cfg.Sqlite.Prefix = "c2pa_preview_"

	cfg.Log.Level = "debug"
	cfg.Log.Writer = []string{"console", "file"}
	cfg.Log.File.Path = "logs/c2pa-preview.log"
	cfg.Log.File.MaxSizeMB = 10
	cfg.Log.File.MaxBackups = 3
	cfg.Log.File.MaxAgeDays = 7
	return cfg
}

// Load 读取配置文件，文件不存在时返回默认配置
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if strings.TrimSpace(c.C2paTool.Binary) == "" {
		return errors.New("c2patool.binary must not be empty")
	}
	for _, w := range c.Log.Writer {
		if w != "console" && w != "file" {
			return fmt.Errorf("unknown log writer %q", w)
		}
	}
	if c.Sqlite.Enabled && strings.TrimSpace(c.Sqlite.Dsn) == "" {
		return errors.New("sqlite.dsn must not be empty when the report cache is enabled")
	}
	return nil
}

// PlatformOffset 返回指定平台的窗口高度修正值
func (c *Config) PlatformOffset(platform string) int {
	return c.Window.PlatformOffsets[platform]
}
