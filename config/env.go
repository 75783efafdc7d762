package config

import (
	"fmt"
	"strconv"
	"time"
)

// 环境变量名
const (
	EnvDiscoveryPort        = "SHARDS_DISCOVERY_PORT"
	EnvDiscoveryAddr        = "SHARDS_DISCOVERY_ADDR"
	EnvConnectAddress       = "SHARDS_CONNECT_ADDRESS"
	EnvConnectPort          = "SHARDS_CONNECT_PORT"
	EnvConnectMaxRetries    = "SHARDS_CONNECT_MAX_RETRIES"
	EnvConnectRetryInterval = "SHARDS_CONNECT_RETRY_INTERVAL"
	EnvLogLevel             = "SHARDS_LOG_LEVEL"
	EnvLogFormat            = "SHARDS_LOG_FORMAT"
)

// LookupFunc 环境变量查找函数，签名与 os.LookupEnv 一致
type LookupFunc func(key string) (string, bool)

// ApplyEnv 用环境变量覆盖配置
//
// 未设置或为空的变量被忽略；数值无法解析时返回错误并指明变量名。
// SHARDS_CONNECT_RETRY_INTERVAL 接受毫秒数或时长字符串。
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return v, ok && v != ""
	}

	if v, ok := get(EnvDiscoveryAddr); ok {
		cfg.Discovery.ListenAddress = v
	}
	if v, ok := get(EnvDiscoveryPort); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDiscoveryPort, err)
		}
		cfg.Discovery.Port = n
	}
	if v, ok := get(EnvConnectAddress); ok {
		cfg.Connect.Address = v
	}
	if v, ok := get(EnvConnectPort); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvConnectPort, err)
		}
		cfg.Connect.Port = n
	}
	if v, ok := get(EnvConnectMaxRetries); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvConnectMaxRetries, err)
		}
		cfg.Connect.MaxRetries = n
	}
	if v, ok := get(EnvConnectRetryInterval); ok {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvConnectRetryInterval, err)
		}
		cfg.Connect.RetryInterval = d
	}
	if v, ok := get(EnvLogLevel); ok {
		cfg.Log.Level = v
	}
	if v, ok := get(EnvLogFormat); ok {
		cfg.Log.Format = v
	}
	return nil
}

// parseDuration 解析毫秒数或时长字符串
func parseDuration(s string) (Duration, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Millis(ms), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return Duration(d), nil
}
