package attach

import (
	"errors"

	"github.com/shards-lang/go-attach/internal/connect"
	"github.com/shards-lang/go-attach/internal/session"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 客户端未启动
	ErrNotStarted = errors.New("client not started")

	// ErrAlreadyStarted 客户端已启动
	ErrAlreadyStarted = errors.New("client already started")

	// ErrClosed 客户端已关闭
	ErrClosed = errors.New("client closed")

	// ────────────────────────────────────────────────────────────────────────
	// 附加错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrCancelled 连接尝试被取消
	ErrCancelled = connect.ErrCancelled

	// ErrExhausted 重试次数用尽，具体错误为 *ExhaustedError
	ErrExhausted = connect.ErrExhausted

	// ErrUnknownInstance 实例 ID 不在列表中
	ErrUnknownInstance = session.ErrUnknownInstance

	// ErrNoRunningInstances 没有运行中的实例可供选择
	ErrNoRunningInstances = session.ErrNoRunningInstances

	// ErrLaunchRejected 宿主拒绝启动调试会话
	ErrLaunchRejected = session.ErrLaunchRejected
)

// ExhaustedError 重试用尽错误，消息包含端点、次数与耗时
type ExhaustedError = connect.ExhaustedError

// LaunchError 宿主启动调试会话失败
type LaunchError = session.LaunchError
