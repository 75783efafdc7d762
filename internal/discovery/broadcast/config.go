package broadcast

import (
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/shards-lang/go-attach/config"
	"github.com/shards-lang/go-attach/pkg/types"
)

const (
	// DefaultRestartBackoff 套接字失败后重新监听前的等待
	DefaultRestartBackoff = 5 * time.Second

	// DefaultMulticastTTL 组播 TTL
	DefaultMulticastTTL = 128

	// DefaultReadBufferSize 单个数据报读缓冲
	DefaultReadBufferSize = 64 * 1024

	// badSenderCacheSize 记录已丢弃过报文的来源数上限
	badSenderCacheSize = 256
)

// Config 广播监听配置
type Config struct {
	// ListenAddress 绑定地址，默认 0.0.0.0
	ListenAddress string

	// Port 发现端口，0 表示由系统分配（测试使用）
	Port int

	// ServiceName 报文 service 字段要求的值
	ServiceName string

	// InstanceTimeout 实例存活窗口
	InstanceTimeout time.Duration

	// RestartBackoff 套接字失败后的重启等待
	RestartBackoff time.Duration

	// MulticastTTL 组播 TTL
	MulticastTTL int

	// ReadBufferSize 读缓冲大小
	ReadBufferSize int

	// Enabled 是否随生命周期启动监听
	Enabled bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		ListenAddress:   "0.0.0.0",
		Port:            types.DefaultDiscoveryPort,
		ServiceName:     types.ServiceName,
		InstanceTimeout: 30 * time.Second,
		RestartBackoff:  DefaultRestartBackoff,
		MulticastTTL:    DefaultMulticastTTL,
		ReadBufferSize:  DefaultReadBufferSize,
		Enabled:         true,
	}
}

// ConfigFromUnified 从统一配置创建广播配置
func ConfigFromUnified(cfg *config.Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	d := cfg.Discovery
	return &Config{
		ListenAddress:   d.ListenAddress,
		Port:            d.Port,
		ServiceName:     d.ServiceName,
		InstanceTimeout: d.InstanceTimeout.Duration(),
		RestartBackoff:  d.RestartBackoff.Duration(),
		MulticastTTL:    d.MulticastTTL,
		ReadBufferSize:  d.ReadBufferSize,
		Enabled:         d.Enabled,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Port < 0 || c.Port > 65535 {
		return errors.New("port out of range")
	}
	if c.ServiceName == "" {
		return errors.New("service name is empty")
	}
	if c.RestartBackoff <= 0 {
		return errors.New("restart backoff must be positive")
	}
	if c.ReadBufferSize <= 0 {
		return errors.New("read buffer size must be positive")
	}
	return nil
}

// Address 返回绑定地址 host:port
func (c *Config) Address() string {
	return net.JoinHostPort(c.ListenAddress, strconv.Itoa(c.Port))
}

// ApplyOptions 应用配置选项
func (c *Config) ApplyOptions(opts ...ConfigOption) {
	for _, opt := range opts {
		opt(c)
	}
}

// ConfigOption 配置选项函数
type ConfigOption func(*Config)

// WithListenAddress 设置绑定地址
func WithListenAddress(addr string) ConfigOption {
	return func(c *Config) {
		c.ListenAddress = addr
	}
}

// WithPort 设置发现端口
func WithPort(port int) ConfigOption {
	return func(c *Config) {
		c.Port = port
	}
}

// WithRestartBackoff 设置重启等待
func WithRestartBackoff(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RestartBackoff = d
	}
}
