package broadcast

import (
	"errors"
	"fmt"
)

// 预定义错误
var (
	// ErrClosed 服务已释放
	ErrClosed = errors.New("broadcast: closed")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("broadcast: invalid config")

	// ErrNilRegistry 注册表为 nil
	ErrNilRegistry = errors.New("broadcast: registry is nil")

	// ErrNilHandler 数据报处理函数为 nil
	ErrNilHandler = errors.New("broadcast: handler is nil")
)

// SocketError 套接字错误，记录失败的操作与地址
type SocketError struct {
	Op   string // 操作名称（bind、read）
	Addr string // 监听地址
	Err  error  // 原始错误
}

// Error 实现 error 接口
func (e *SocketError) Error() string {
	return fmt.Sprintf("broadcast: %s %s: %v", e.Op, e.Addr, e.Err)
}

// Unwrap 支持 errors.Unwrap
func (e *SocketError) Unwrap() error {
	return e.Err
}
