// Package config 提供统一的配置管理
//
// 本包采用分段配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义，带 Default*() 与 Validate()
//   - 支持从 JSON/JSONC 文件加载
//   - 支持 SHARDS_* 环境变量覆盖
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Connect.MaxRetries = 20
//
//	// 从文件加载（允许注释与尾随逗号）
//	cfg, err := config.LoadFile("shards-attach.jsonc")
//
//	// 应用环境变量
//	err = config.ApplyEnv(cfg, os.LookupEnv)
package config

import "errors"

// Config 是完整的配置结构
//
// 配置按照功能模块组织：
//   - Discovery: 广播发现与实例存活
//   - Connect: 附加目标与重试策略
//   - Log: 日志输出
//   - Bridge: 面向外部 UI 的 HTTP 桥
type Config struct {
	// Discovery 发现配置
	Discovery DiscoveryConfig `json:"discovery"`

	// Connect 连接建立配置
	Connect ConnectConfig `json:"connect"`

	// Log 日志配置
	Log LogConfig `json:"log"`

	// Bridge HTTP 桥配置
	Bridge BridgeConfig `json:"bridge"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Discovery: DefaultDiscoveryConfig(),
		Connect:   DefaultConnectConfig(),
		Log:       DefaultLogConfig(),
		Bridge:    DefaultBridgeConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置，返回第一个发现的错误。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Discovery.Validate(); err != nil {
		return err
	}
	if err := c.Connect.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.Bridge.Validate(); err != nil {
		return err
	}
	return nil
}
