// Package logger 提供统一的日志接口
//
// 级别字符串格式: 子系统=级别,子系统=级别,默认级别
// 示例: broadcast=trace,connect=debug,info
//
// 可通过环境变量配置：
//   - SHARDS_LOG_LEVEL: 日志级别配置
//   - SHARDS_LOG_FORMAT: 日志格式 (text 或 json)
//   - SHARDS_LOG_ADD_SOURCE: 是否输出源码位置
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// LevelTrace 低于 Debug 的跟踪级别，用于逐报文日志
const LevelTrace = slog.LevelDebug - 4

// LogFormat 日志输出格式
type LogFormat int

const (
	// FormatText 文本格式（默认）
	FormatText LogFormat = iota
	// FormatJSON JSON 格式
	FormatJSON
)

// Config 日志配置
type Config struct {
	// DefaultLevel 默认日志级别
	DefaultLevel slog.Level

	// SubsystemLevels 各子系统的日志级别
	SubsystemLevels map[string]slog.Level

	// Format 输出格式
	Format LogFormat

	// AddSource 是否添加源码位置
	AddSource bool
}

// LevelForSubsystem 获取指定子系统的日志级别
func (c *Config) LevelForSubsystem(subsystem string) slog.Level {
	if level, ok := c.SubsystemLevels[subsystem]; ok {
		return level
	}
	return c.DefaultLevel
}

// ParseConfig 由级别字符串与格式字符串构造配置
//
// 空字符串使用默认值（info、text）。
func ParseConfig(level, format string) *Config {
	cfg := &Config{
		DefaultLevel:    slog.LevelInfo,
		SubsystemLevels: make(map[string]slog.Level),
		Format:          FormatText,
	}
	if level != "" {
		parseLevelConfig(cfg, level)
	}
	if strings.EqualFold(format, "json") {
		cfg.Format = FormatJSON
	}
	return cfg
}

// ConfigFromEnv 从环境变量解析配置
//
// 环境变量:
//   - SHARDS_LOG_LEVEL: 日志级别配置
//   - SHARDS_LOG_FORMAT: text 或 json
//   - SHARDS_LOG_ADD_SOURCE: true 或 false
func ConfigFromEnv() *Config {
	cfg := ParseConfig(os.Getenv("SHARDS_LOG_LEVEL"), os.Getenv("SHARDS_LOG_FORMAT"))
	if s := os.Getenv("SHARDS_LOG_ADD_SOURCE"); s != "" {
		cfg.AddSource = s != "false" && s != "0"
	}
	return cfg
}

// parseLevelConfig 解析日志级别配置字符串
func parseLevelConfig(cfg *Config, levelStr string) {
	for _, part := range strings.Split(levelStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if subsystem, levelName, ok := strings.Cut(part, "="); ok {
			// 子系统级别: subsystem=level
			if level, ok := ParseLevel(strings.TrimSpace(levelName)); ok {
				cfg.SubsystemLevels[strings.TrimSpace(subsystem)] = level
			}
			continue
		}

		// 默认级别
		if level, ok := ParseLevel(part); ok {
			cfg.DefaultLevel = level
		}
	}
}

// ParseLevel 解析日志级别名称
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "trace":
		return LevelTrace, true
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
