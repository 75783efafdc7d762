package connect

import (
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/shards-lang/go-attach/internal/metrics"
)

// ============================================================================
//                              组件选项
// ============================================================================

// Option Establisher 的可选依赖
type Option func(*Establisher)

// WithClock 设置时钟
func WithClock(c clock.Clock) Option {
	return func(e *Establisher) {
		e.clock = c
	}
}

// WithLogger 设置 Logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Establisher) {
		e.log = l
	}
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Establisher) {
		e.metrics = m
	}
}

// WithProber 替换探测方式
func WithProber(p Prober) Option {
	return func(e *Establisher) {
		e.prober = p
	}
}

// ============================================================================
//                              单次尝试选项
// ============================================================================

// attemptSettings 单次尝试的参数
type attemptSettings struct {
	maxAttempts  int
	interval     time.Duration
	probeTimeout time.Duration
	progress     ProgressFunc
}

// AttemptOption 覆盖单次尝试的参数
type AttemptOption func(*attemptSettings)

// WithMaxAttempts 覆盖最大探测次数
func WithMaxAttempts(n int) AttemptOption {
	return func(s *attemptSettings) {
		s.maxAttempts = n
	}
}

// WithInterval 覆盖重试间隔
func WithInterval(d time.Duration) AttemptOption {
	return func(s *attemptSettings) {
		s.interval = d
	}
}

// WithProbeTimeout 覆盖单次探测超时
func WithProbeTimeout(d time.Duration) AttemptOption {
	return func(s *attemptSettings) {
		s.probeTimeout = d
	}
}

// WithProgress 设置进度回调
func WithProgress(fn ProgressFunc) AttemptOption {
	return func(s *attemptSettings) {
		s.progress = fn
	}
}
