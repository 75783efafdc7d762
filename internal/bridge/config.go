package bridge

import (
	"errors"
	"net"
	"time"

	"github.com/shards-lang/go-attach/config"
)

// DefaultWriteTimeout WebSocket 单次写超时
const DefaultWriteTimeout = 5 * time.Second

// Config HTTP 桥配置
type Config struct {
	// ListenAddr 监听地址，端口为 0 时由系统分配
	ListenAddr string

	// EnableMetrics 是否暴露 /metrics
	EnableMetrics bool

	// WriteTimeout WebSocket 写超时
	WriteTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:    "127.0.0.1:57428",
		EnableMetrics: true,
		WriteTimeout:  DefaultWriteTimeout,
	}
}

// ConfigFromUnified 从统一配置创建桥配置
func ConfigFromUnified(cfg *config.Config) *Config {
	out := DefaultConfig()
	if cfg == nil {
		return out
	}
	out.ListenAddr = cfg.Bridge.ListenAddr
	out.EnableMetrics = cfg.Bridge.EnableMetrics
	return out
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return err
	}
	if c.WriteTimeout <= 0 {
		return errors.New("write timeout must be positive")
	}
	return nil
}
