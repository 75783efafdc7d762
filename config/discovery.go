package config

import (
	"errors"
	"time"

	"github.com/shards-lang/go-attach/pkg/types"
)

// DiscoveryConfig 广播发现配置
//
// 描述监听套接字与实例存活窗口。监听方与实例通过带外约定
// 使用同一个发现端口，本端从不主动发送报文。
type DiscoveryConfig struct {
	// Enabled 是否启动广播监听
	Enabled bool `json:"enabled"`

	// ListenAddress 绑定地址，默认所有 IPv4 接口
	ListenAddress string `json:"listen_address"`

	// Port 发现端口
	Port int `json:"port"`

	// ServiceName 报文 service 字段要求的值
	ServiceName string `json:"service_name"`

	// InstanceTimeout 存活窗口，超过该时间未收到广播即视为停止
	InstanceTimeout Duration `json:"instance_timeout"`

	// RestartBackoff 套接字失败后重新监听前的等待时间
	RestartBackoff Duration `json:"restart_backoff"`

	// MulticastTTL 组播 TTL
	MulticastTTL int `json:"multicast_ttl"`

	// ReadBufferSize 单个数据报读缓冲大小
	ReadBufferSize int `json:"read_buffer_size"`
}

// DefaultDiscoveryConfig 返回默认发现配置
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		Enabled:         true,
		ListenAddress:   "0.0.0.0",
		Port:            types.DefaultDiscoveryPort,
		ServiceName:     types.ServiceName,
		InstanceTimeout: Duration(30 * time.Second),
		RestartBackoff:  Duration(5 * time.Second),
		MulticastTTL:    128,
		ReadBufferSize:  64 * 1024,
	}
}

// Validate 验证发现配置
func (c DiscoveryConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("discovery port must be in 1-65535")
	}
	if c.ServiceName == "" {
		return errors.New("discovery service name must not be empty")
	}
	if c.InstanceTimeout <= 0 {
		return errors.New("instance timeout must be positive")
	}
	if c.RestartBackoff <= 0 {
		return errors.New("restart backoff must be positive")
	}
	if c.MulticastTTL < 1 || c.MulticastTTL > 255 {
		return errors.New("multicast TTL must be in 1-255")
	}
	if c.ReadBufferSize < 512 {
		return errors.New("read buffer size must be at least 512")
	}
	return nil
}

// WithPort 设置发现端口
func (c DiscoveryConfig) WithPort(port int) DiscoveryConfig {
	c.Port = port
	return c
}

// WithListenAddress 设置绑定地址
func (c DiscoveryConfig) WithListenAddress(addr string) DiscoveryConfig {
	c.ListenAddress = addr
	return c
}

// WithInstanceTimeout 设置存活窗口
func (c DiscoveryConfig) WithInstanceTimeout(d time.Duration) DiscoveryConfig {
	c.InstanceTimeout = Duration(d)
	return c
}
