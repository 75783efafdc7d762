package connect

import (
	"time"

	"github.com/shards-lang/go-attach/pkg/types"
)

// State 连接尝试的状态
type State int

const (
	// StateProbing 正在执行第 n 次探测
	StateProbing State = iota
	// StateRetryWait 探测失败，等待下一次探测
	StateRetryWait
	// StateSuccess 目标可达
	StateSuccess
	// StateCancelled 被取消
	StateCancelled
	// StateExhausted 重试次数用尽
	StateExhausted
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateProbing:
		return "probing"
	case StateRetryWait:
		return "retry_wait"
	case StateSuccess:
		return "success"
	case StateCancelled:
		return "cancelled"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Terminal 是否为终止状态
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateCancelled || s == StateExhausted
}

// Progress 进度更新
//
// 每次探测开始时报告一次（StateProbing），结束时再报告一次终止状态。
type Progress struct {
	ID          string
	Target      types.Endpoint
	State       State
	Attempt     int
	MaxAttempts int
	Elapsed     time.Duration
	Err         error
}

// ProgressFunc 接收进度更新，在尝试所在的 goroutine 上同步调用
type ProgressFunc func(Progress)
