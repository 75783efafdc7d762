package connect

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shards-lang/go-attach/internal/metrics"
	"github.com/shards-lang/go-attach/pkg/types"
)

// Attempt 一次连接尝试
//
// 创建于附加请求，结果确定后即被丢弃。
type Attempt struct {
	id       string
	target   types.Endpoint
	settings attemptSettings
	owner    *Establisher

	current atomic.Int32
	state   atomic.Int32
	started atomic.Bool

	cancelCh   chan struct{}
	cancelOnce sync.Once
}

// ID 返回尝试 ID，用于日志与进度关联
func (a *Attempt) ID() string {
	return a.id
}

// Target 返回目标端点
func (a *Attempt) Target() types.Endpoint {
	return a.target
}

// MaxAttempts 返回最大探测次数
func (a *Attempt) MaxAttempts() int {
	return a.settings.maxAttempts
}

// Interval 返回重试间隔
func (a *Attempt) Interval() time.Duration {
	return a.settings.interval
}

// Current 返回当前（或最后一次）探测序号，尚未探测时为 0
func (a *Attempt) Current() int {
	return int(a.current.Load())
}

// State 返回当前状态
func (a *Attempt) State() State {
	return State(a.state.Load())
}

// Cancel 请求取消，可重复调用
func (a *Attempt) Cancel() {
	a.cancelOnce.Do(func() {
		close(a.cancelCh)
	})
}

// Cancelled 是否已请求取消
func (a *Attempt) Cancelled() bool {
	select {
	case <-a.cancelCh:
		return true
	default:
		return false
	}
}

// Run 执行探测循环
//
// 每个 Attempt 只能运行一次。
func (a *Attempt) Run(ctx context.Context) error {
	if !a.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 显式取消同时中止进行中的探测与等待
	go func() {
		select {
		case <-a.cancelCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	e := a.owner
	start := e.clock.Now()
	log := e.log.With("attempt", a.id, "target", a.target.String())
	log.Debug("开始建立连接",
		"maxAttempts", a.settings.maxAttempts,
		"interval", a.settings.interval)

	var lastErr error
	for n := 1; ; n++ {
		if a.stopped(ctx) {
			return a.cancelled(log, n-1, start)
		}

		a.current.Store(int32(n))
		a.state.Store(int32(StateProbing))
		a.report(StateProbing, n, start, lastErr)

		err := e.prober.Probe(ctx, a.target, a.settings.probeTimeout)
		if a.stopped(ctx) {
			return a.cancelled(log, n, start)
		}
		e.metrics.Probe(err == nil)

		if err == nil {
			elapsed := e.clock.Since(start)
			log.Info("连接已建立", "attempts", n, "elapsed", elapsed)
			e.metrics.Established(metrics.OutcomeSuccess, elapsed)
			a.report(StateSuccess, n, start, nil)
			return nil
		}

		lastErr = err
		log.Debug("探测失败", "n", n, "err", err)

		if n >= a.settings.maxAttempts {
			elapsed := e.clock.Since(start)
			exhausted := &ExhaustedError{
				Target:   a.target,
				Attempts: n,
				Elapsed:  elapsed,
				Last:     err,
			}
			log.Warn("重试次数用尽", "attempts", n, "elapsed", elapsed)
			e.metrics.Established(metrics.OutcomeExhausted, elapsed)
			a.report(StateExhausted, n, start, exhausted)
			return exhausted
		}

		a.state.Store(int32(StateRetryWait))
		if !a.wait(ctx) {
			return a.cancelled(log, n, start)
		}
	}
}

// wait 等待重试间隔，被取消时返回 false
func (a *Attempt) wait(ctx context.Context) bool {
	t := a.owner.clock.Timer(a.settings.interval)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-a.cancelCh:
		return false
	}
}

// stopped 报告是否已被取消
//
// 直接检查 cancelCh：Cancel 之后派生 ctx 由后台协程取消，可能尚未生效。
func (a *Attempt) stopped(ctx context.Context) bool {
	return ctx.Err() != nil || a.Cancelled()
}

func (a *Attempt) cancelled(log *slog.Logger, n int, start time.Time) error {
	elapsed := a.owner.clock.Since(start)
	log.Info("连接尝试已取消", "attempts", n, "elapsed", elapsed)
	a.owner.metrics.Established(metrics.OutcomeCancelled, elapsed)
	a.report(StateCancelled, n, start, ErrCancelled)
	return ErrCancelled
}

func (a *Attempt) report(state State, n int, start time.Time, err error) {
	if state.Terminal() {
		a.state.Store(int32(state))
	}
	if a.settings.progress == nil {
		return
	}
	a.settings.progress(Progress{
		ID:          a.id,
		Target:      a.target,
		State:       state,
		Attempt:     n,
		MaxAttempts: a.settings.maxAttempts,
		Elapsed:     a.owner.clock.Since(start),
		Err:         err,
	})
}
