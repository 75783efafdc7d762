package config

import (
	"errors"
	"time"

	"github.com/shards-lang/go-attach/pkg/types"
)

// ConnectConfig 连接建立配置
//
// 附加前以 TCP 探测确认目标可达，失败后按固定间隔重试，
// 直到成功、被取消或用尽次数。
type ConnectConfig struct {
	// Address 默认附加地址
	Address string `json:"address"`

	// Port 默认附加端口
	Port int `json:"port"`

	// MaxRetries 最大探测次数
	MaxRetries int `json:"max_retries"`

	// RetryInterval 两次探测之间的等待
	RetryInterval Duration `json:"retry_interval"`

	// ProbeTimeout 单次探测的连接超时
	ProbeTimeout Duration `json:"probe_timeout"`
}

// DefaultConnectConfig 返回默认连接配置
func DefaultConnectConfig() ConnectConfig {
	return ConnectConfig{
		Address:       types.DefaultAddress,
		Port:          types.DefaultDebugPort,
		MaxRetries:    10,
		RetryInterval: Duration(2 * time.Second),
		ProbeTimeout:  Duration(time.Second),
	}
}

// Validate 验证连接配置
func (c ConnectConfig) Validate() error {
	if err := c.Endpoint().Validate(); err != nil {
		return err
	}
	if c.MaxRetries < 1 {
		return errors.New("max retries must be at least 1")
	}
	if c.RetryInterval < 0 {
		return errors.New("retry interval must be non-negative")
	}
	if c.ProbeTimeout <= 0 {
		return errors.New("probe timeout must be positive")
	}
	return nil
}

// Endpoint 返回配置的附加目标
func (c ConnectConfig) Endpoint() types.Endpoint {
	return types.Endpoint{Address: c.Address, Port: c.Port}
}

// WithMaxRetries 设置最大探测次数
func (c ConnectConfig) WithMaxRetries(n int) ConnectConfig {
	c.MaxRetries = n
	return c
}

// WithRetryInterval 设置重试间隔
func (c ConnectConfig) WithRetryInterval(d time.Duration) ConnectConfig {
	c.RetryInterval = Duration(d)
	return c
}

// ============================================================================
//                              LaunchConfig
// ============================================================================

// LaunchConfig 编辑器启动配置中的附加目标
//
// 所有字段可选，缺省时回落到 ConnectConfig。retryInterval 为毫秒数
// 或时长字符串。
type LaunchConfig struct {
	Address       *string   `json:"address,omitempty"`
	Port          *int      `json:"port,omitempty"`
	MaxRetries    *int      `json:"maxRetries,omitempty"`
	RetryInterval *Duration `json:"retryInterval,omitempty"`
}

// Resolve 以 defaults 填充未设置的字段
func (l LaunchConfig) Resolve(defaults ConnectConfig) ConnectConfig {
	out := defaults
	if l.Address != nil && *l.Address != "" {
		out.Address = *l.Address
	}
	if l.Port != nil {
		out.Port = *l.Port
	}
	if l.MaxRetries != nil {
		out.MaxRetries = *l.MaxRetries
	}
	if l.RetryInterval != nil {
		out.RetryInterval = *l.RetryInterval
	}
	return out
}
