package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// FromJSON 从 JSON 数据创建配置
//
// 数据可以是 JSONC（允许注释与尾随逗号），未出现的字段保留默认值。
//
// 示例:
//
//	{
//	  // 局域网中的其它机器
//	  "connect": {"address": "192.168.1.20", "retry_interval": 500},
//	  "discovery": {"instance_timeout": "45s"},
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadFile 从文件加载配置并验证
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ToJSON 将配置序列化为带缩进的 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// ParseLaunchConfig 解析编辑器启动配置片段
func ParseLaunchConfig(data []byte) (LaunchConfig, error) {
	var lc LaunchConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &lc); err != nil {
		return LaunchConfig{}, fmt.Errorf("failed to unmarshal launch config: %w", err)
	}
	return lc, nil
}
