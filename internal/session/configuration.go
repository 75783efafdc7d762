package session

import (
	"time"

	"github.com/shards-lang/go-attach/config"
	"github.com/shards-lang/go-attach/pkg/types"
)

// 调试配置常量
const (
	// DebugType 调试器类型
	DebugType = "shards"

	// RequestAttach 附加请求
	RequestAttach = "attach"

	// DefaultMaxRetries 附加配置中的默认重试次数
	DefaultMaxRetries = 10

	// DefaultRetryIntervalMs 附加配置中的默认重试间隔（毫秒）
	DefaultRetryIntervalMs = 2000
)

// DebugConfiguration 交给 Launcher 的调试配置
type DebugConfiguration struct {
	Type          string `json:"type"`
	Request       string `json:"request"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	Port          int    `json:"port"`
	MaxRetries    int    `json:"maxRetries"`
	RetryInterval int64  `json:"retryInterval"`
}

// ConfigurationFor 返回附加到实例的调试配置
func ConfigurationFor(inst types.Instance) DebugConfiguration {
	return DebugConfiguration{
		Type:          DebugType,
		Request:       RequestAttach,
		Name:          "Attach to " + inst.Name,
		Address:       inst.Address,
		Port:          inst.Port,
		MaxRetries:    DefaultMaxRetries,
		RetryInterval: DefaultRetryIntervalMs,
	}
}

// ConfigurationForConnect 由解析后的连接配置生成调试配置
func ConfigurationForConnect(c config.ConnectConfig) DebugConfiguration {
	ep := c.Endpoint()
	return DebugConfiguration{
		Type:          DebugType,
		Request:       RequestAttach,
		Name:          "Attach to " + ep.String(),
		Address:       ep.Address,
		Port:          ep.Port,
		MaxRetries:    c.MaxRetries,
		RetryInterval: c.RetryInterval.Milliseconds(),
	}
}

// Endpoint 返回附加目标
func (c DebugConfiguration) Endpoint() types.Endpoint {
	return types.Endpoint{Address: c.Address, Port: c.Port}
}

// Interval 返回重试间隔
func (c DebugConfiguration) Interval() time.Duration {
	return time.Duration(c.RetryInterval) * time.Millisecond
}
