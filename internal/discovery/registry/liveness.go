package registry

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/shards-lang/go-attach/pkg/types"
)

// ============================================================================
//                              存活定时器表
// ============================================================================

// timerEntry 单个实例的过期定时器
//
// 回调持有自身 entry 指针，触发时与表中当前 entry 比对，
// 已被新一轮广播替换的旧定时器即使晚到也不会生效。
type timerEntry struct {
	timer *clock.Timer
}

// livenessTimers 每个实例至多一个过期定时器
//
// 所有方法都要求调用方持有注册表的 mu。
type livenessTimers struct {
	clock   clock.Clock
	window  time.Duration
	entries map[types.InstanceKey]*timerEntry
}

// newLivenessTimers 创建定时器表
func newLivenessTimers(clk clock.Clock, window time.Duration) *livenessTimers {
	return &livenessTimers{
		clock:   clk,
		window:  window,
		entries: make(map[types.InstanceKey]*timerEntry),
	}
}

// reset 取消 key 已有的定时器并重新计时
func (t *livenessTimers) reset(key types.InstanceKey, fire func(*timerEntry)) {
	t.cancel(key)

	e := &timerEntry{}
	e.timer = t.clock.AfterFunc(t.window, func() { fire(e) })
	t.entries[key] = e
}

// current 报告 e 是否仍是 key 的当前定时器
func (t *livenessTimers) current(key types.InstanceKey, e *timerEntry) bool {
	cur, ok := t.entries[key]
	return ok && cur == e
}

// release 定时器触发后移除表项
func (t *livenessTimers) release(key types.InstanceKey) {
	delete(t.entries, key)
}

// cancel 取消 key 的定时器
func (t *livenessTimers) cancel(key types.InstanceKey) {
	if e, ok := t.entries[key]; ok {
		e.timer.Stop()
		delete(t.entries, key)
	}
}

// cancelAll 取消全部定时器
func (t *livenessTimers) cancelAll() {
	for key, e := range t.entries {
		e.timer.Stop()
		delete(t.entries, key)
	}
}

// len 返回未触发的定时器数
func (t *livenessTimers) len() int {
	return len(t.entries)
}
