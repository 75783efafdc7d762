package connect

import (
	"errors"
	"fmt"
	"time"

	"github.com/shards-lang/go-attach/pkg/types"
)

// 预定义错误
var (
	// ErrCancelled 尝试被取消
	ErrCancelled = errors.New("connect: cancelled")

	// ErrExhausted 重试次数用尽
	ErrExhausted = errors.New("connect: retries exhausted")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("connect: invalid config")

	// ErrAlreadyStarted 同一尝试被重复运行
	ErrAlreadyStarted = errors.New("connect: attempt already started")
)

// ExhaustedError 重试用尽错误
//
// errors.Is(err, ErrExhausted) 为 true。
type ExhaustedError struct {
	Target   types.Endpoint // 目标端点
	Attempts int            // 已执行的探测次数
	Elapsed  time.Duration  // 从开始到放弃的耗时
	Last     error          // 最后一次探测的错误
}

// Error 实现 error 接口
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("Failed to connect to %s after %d attempts (%s)",
		e.Target, e.Attempts, e.Elapsed.Round(time.Millisecond))
}

// Is 匹配 ErrExhausted
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

// Unwrap 返回最后一次探测的错误
func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// ProbeError 单次探测失败
type ProbeError struct {
	Target types.Endpoint
	Err    error
}

// Error 实现 error 接口
func (e *ProbeError) Error() string {
	return fmt.Sprintf("connect: probe %s: %v", e.Target, e.Err)
}

// Unwrap 支持 errors.Unwrap
func (e *ProbeError) Unwrap() error {
	return e.Err
}
