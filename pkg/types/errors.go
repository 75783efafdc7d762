package types

import "errors"

// ============================================================================
//                              报文解码错误
// ============================================================================

// 解码失败的原因均为"静默丢弃"类错误，只用于日志和指标分类，
// 永远不会传递给注册表订阅者。
var (
	// ErrNotUTF8 报文不是合法的 UTF-8 文本
	ErrNotUTF8 = errors.New("announcement: payload is not valid UTF-8")

	// ErrMalformed 报文不是合法的 JSON 对象或字段类型不匹配
	ErrMalformed = errors.New("announcement: malformed payload")

	// ErrWrongService service 字段缺失或不是期望的协议标识
	ErrWrongService = errors.New("announcement: service mismatch")

	// ErrInvalidPort instance.port 不在 1-65535 范围内
	ErrInvalidPort = errors.New("announcement: invalid instance port")
)

// ============================================================================
//                              地址相关错误
// ============================================================================

var (
	// ErrEmptyAddress 空地址
	ErrEmptyAddress = errors.New("empty address")

	// ErrPortOutOfRange 端口超出范围
	ErrPortOutOfRange = errors.New("port out of range")
)
