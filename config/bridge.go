package config

import (
	"fmt"
	"net"
)

// BridgeConfig HTTP 桥配置
//
// 为外部 UI 提供实例列表、变更推送与附加入口。
type BridgeConfig struct {
	// ListenAddr 监听地址
	ListenAddr string `json:"listen_addr"`

	// EnableMetrics 是否暴露 /metrics
	EnableMetrics bool `json:"enable_metrics"`
}

// DefaultBridgeConfig 返回默认 HTTP 桥配置
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		ListenAddr:    "127.0.0.1:57428",
		EnableMetrics: true,
	}
}

// Validate 验证 HTTP 桥配置
func (c BridgeConfig) Validate() error {
	if c.ListenAddr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("invalid bridge listen address %q: %w", c.ListenAddr, err)
	}
	return nil
}
