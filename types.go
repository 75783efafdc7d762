package attach

import (
	"time"

	"github.com/shards-lang/go-attach/internal/connect"
	"github.com/shards-lang/go-attach/internal/session"
)

// ============================================================================
//                              协作方
// ============================================================================

// Launcher 启动调试会话的宿主
type Launcher = session.Launcher

// Notifier 向用户展示消息的宿主
type Notifier = session.Notifier

// Chooser 让用户选择实例的宿主
type Chooser = session.Chooser

// Choice 选择列表中的一项
type Choice = session.Choice

// DebugConfiguration 交给 Launcher 的调试配置
type DebugConfiguration = session.DebugConfiguration

// Prober 可达性探测
type Prober = connect.Prober

// ============================================================================
//                              连接尝试
// ============================================================================

// AttemptOption 覆盖单次连接尝试的参数
type AttemptOption = connect.AttemptOption

// Progress 连接尝试的进度更新
type Progress = connect.Progress

// State 连接尝试的状态
type State = connect.State

// 连接尝试状态
const (
	StateProbing   = connect.StateProbing
	StateRetryWait = connect.StateRetryWait
	StateSuccess   = connect.StateSuccess
	StateCancelled = connect.StateCancelled
	StateExhausted = connect.StateExhausted
)

// WithMaxAttempts 覆盖最大探测次数
func WithMaxAttempts(n int) AttemptOption {
	return connect.WithMaxAttempts(n)
}

// WithInterval 覆盖重试间隔
func WithInterval(d time.Duration) AttemptOption {
	return connect.WithInterval(d)
}

// WithProbeTimeout 覆盖单次探测超时
func WithProbeTimeout(d time.Duration) AttemptOption {
	return connect.WithProbeTimeout(d)
}

// WithProgress 设置进度回调
func WithProgress(fn func(Progress)) AttemptOption {
	return connect.WithProgress(fn)
}

// Subscription 订阅句柄，零值无效
type Subscription uint64
