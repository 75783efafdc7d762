package connect

import (
	"errors"
	"time"

	"github.com/shards-lang/go-attach/config"
)

// 默认值
const (
	// DefaultMaxAttempts 默认最大探测次数
	DefaultMaxAttempts = 10

	// DefaultInterval 默认重试间隔
	DefaultInterval = 2 * time.Second

	// DefaultProbeTimeout 单次探测超时
	DefaultProbeTimeout = time.Second
)

// Config 连接建立配置
type Config struct {
	// MaxAttempts 最大探测次数（含第一次）
	MaxAttempts int

	// Interval 两次探测之间的等待
	Interval time.Duration

	// ProbeTimeout 单次探测超时
	ProbeTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:  DefaultMaxAttempts,
		Interval:     DefaultInterval,
		ProbeTimeout: DefaultProbeTimeout,
	}
}

// ConfigFromUnified 从统一配置创建连接配置
func ConfigFromUnified(cfg *config.Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return &Config{
		MaxAttempts:  cfg.Connect.MaxRetries,
		Interval:     cfg.Connect.RetryInterval.Duration(),
		ProbeTimeout: cfg.Connect.ProbeTimeout.Duration(),
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.MaxAttempts < 1 {
		return errors.New("max attempts must be at least 1")
	}
	if c.Interval < 0 {
		return errors.New("interval must be non-negative")
	}
	if c.ProbeTimeout <= 0 {
		return errors.New("probe timeout must be positive")
	}
	return nil
}
