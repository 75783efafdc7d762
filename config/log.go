package config

import (
	"fmt"
	"strings"
)

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别
	// 格式: 子系统=级别,子系统=级别,默认级别
	// 示例: broadcast=trace,connect=debug,info
	Level string `json:"level"`

	// Format 输出格式（text 或 json）
	Format string `json:"format"`

	// FXEvents 是否输出依赖注入容器事件
	FXEvents bool `json:"fx_events"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate 验证日志配置
func (c LogConfig) Validate() error {
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
		return nil
	default:
		return fmt.Errorf("unknown log format: %s", c.Format)
	}
}
