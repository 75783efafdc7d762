package session

import (
	"errors"
	"fmt"
)

// 预定义错误
var (
	// ErrUnknownInstance 实例 ID 不在注册表中
	ErrUnknownInstance = errors.New("session: unknown instance")

	// ErrNoRunningInstances 没有可附加的运行中实例
	ErrNoRunningInstances = errors.New("session: no running instances")

	// ErrLaunchRejected Launcher 拒绝启动会话
	ErrLaunchRejected = errors.New("session: launch rejected")

	// ErrNilSource 实例来源为 nil
	ErrNilSource = errors.New("session: instance source is nil")

	// ErrNilEstablisher 连接建立器为 nil
	ErrNilEstablisher = errors.New("session: establisher is nil")
)

// LaunchError Launcher 启动会话失败
type LaunchError struct {
	Name string // 调试目标名称
	Err  error  // Launcher 返回的错误
}

// Error 返回展示给用户的消息
func (e *LaunchError) Error() string {
	return fmt.Sprintf("Error attaching to %q: %v", e.Name, e.Err)
}

// Unwrap 支持 errors.Unwrap
func (e *LaunchError) Unwrap() error {
	return e.Err
}
