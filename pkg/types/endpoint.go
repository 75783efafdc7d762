package types

import (
	"fmt"
	"net"
	"strconv"
)

// 默认附加目标
const (
	// DefaultAddress 默认附加地址
	DefaultAddress = "127.0.0.1"

	// DefaultDebugPort 默认调试端口（SHARD 在电话键盘上的数字）
	DefaultDebugPort = 57427

	// DefaultDiscoveryPort 默认发现端口，实例与监听方通过带外约定使用同一端口
	DefaultDiscoveryPort = 57426
)

// Endpoint 附加目标
type Endpoint struct {
	// Address 目标地址（IP 或主机名）
	Address string `json:"address"`

	// Port 目标端口
	Port int `json:"port"`
}

// DefaultEndpoint 返回默认附加目标 127.0.0.1:57427
func DefaultEndpoint() Endpoint {
	return Endpoint{Address: DefaultAddress, Port: DefaultDebugPort}
}

// String 返回 host:port 形式（IPv6 地址带方括号）
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Address, strconv.Itoa(e.Port))
}

// Validate 验证目标地址
func (e Endpoint) Validate() error {
	if e.Address == "" {
		return ErrEmptyAddress
	}
	if e.Port < 1 || e.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrPortOutOfRange, e.Port)
	}
	return nil
}
