// Package registry 维护已发现的 Shards 运行时实例
//
// Registry 以 (来源地址, 端口) 为键保存实例，每次有效广播都会
// 刷新实例属性并重置其存活定时器；定时器到期后实例被标记为
// 未运行，但不会被删除。
//
// # 通知顺序
//
// 每次状态变更都在 notifyMu 下完成“修改、取快照、投递”，
// 因此所有订阅者看到的变更顺序一致，且不会看到撕裂的快照。
// 订阅回调在该锁内同步执行，回调中不得同步修改注册表。
package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/shards-lang/go-attach/internal/discovery/hub"
	"github.com/shards-lang/go-attach/internal/metrics"
	"github.com/shards-lang/go-attach/internal/util/logger"
	"github.com/shards-lang/go-attach/pkg/types"
)

// DefaultInstanceTimeout 默认存活窗口
const DefaultInstanceTimeout = 30 * time.Second

// Callback 变更回调，参数为按首次发现顺序排列的快照
//
// 同一次变更的快照在所有订阅者之间共享，回调不得修改它。
type Callback func([]types.Instance)

// Registry 实例注册表
type Registry struct {
	clock   clock.Clock
	log     *slog.Logger
	metrics *metrics.Metrics
	hub     *hub.Hub[[]types.Instance]

	// notifyMu 串行化“修改、取快照、投递”
	notifyMu sync.Mutex

	// mu 保护以下状态
	mu      sync.Mutex
	entries map[types.InstanceKey]*types.Instance
	order   []types.InstanceKey
	timers  *livenessTimers
	closed  bool
}

// New 创建注册表
//
// timeout <= 0 时使用 DefaultInstanceTimeout；clk 为 nil 时使用真实时钟。
func New(timeout time.Duration, clk clock.Clock, log *slog.Logger, m *metrics.Metrics) *Registry {
	if timeout <= 0 {
		timeout = DefaultInstanceTimeout
	}
	if clk == nil {
		clk = clock.New()
	}
	log = logger.OrDiscard(log)
	return &Registry{
		clock:   clk,
		log:     log,
		metrics: m,
		hub:     hub.New[[]types.Instance](log),
		entries: make(map[types.InstanceKey]*types.Instance),
		timers:  newLivenessTimers(clk, timeout),
	}
}

// ============================================================================
//                              变更操作
// ============================================================================

// Upsert 记录一条有效广播
//
// 首次出现的键创建实例，已存在的键覆盖属性但保留标识与 FirstSeen。
// 无论哪种情况都重置存活定时器并通知订阅者。注册表关闭后为空操作。
func (r *Registry) Upsert(msg *types.Announcement, source string) types.Instance {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return types.Instance{}
	}

	key := types.InstanceKey{Address: source, Port: msg.Instance.Port}
	now := r.clock.Now()

	inst, existed := r.entries[key]
	if !existed {
		inst = &types.Instance{Key: key, FirstSeen: now}
		r.entries[key] = inst
		r.order = append(r.order, key)
	}
	wasRunning := existed && inst.Running

	inst.Name = msg.Instance.Name
	if inst.Name == "" {
		inst.Name = types.DefaultName(msg.Instance.Port)
	}
	inst.Args = msg.Instance.Args
	if inst.Args == "" {
		inst.Args = types.DefaultArgs
	}
	inst.Address = source
	inst.Port = msg.Instance.Port
	inst.Protocol = msg.Instance.Protocol
	inst.Version = msg.Version
	inst.Capabilities = map[string]bool(msg.Capabilities)
	inst.Running = true
	inst.LastSeen = now

	r.timers.reset(key, func(e *timerEntry) { r.expireTimer(key, e) })

	result := inst.Clone()
	snap := r.snapshotLocked()
	r.mu.Unlock()

	switch {
	case !existed:
		r.log.Info("发现新实例", "id", key.String(), "name", result.Name)
	case !wasRunning:
		r.log.Info("实例恢复运行", "id", key.String(), "name", result.Name)
	default:
		r.log.Log(context.Background(), logger.LevelTrace, "刷新实例", "id", key.String())
	}

	r.publish(snap)
	return result
}

// MarkAllStale 将所有实例标记为未运行并取消全部定时器
//
// 无论是否有实例都恰好通知一次。
func (r *Registry) MarkAllStale() {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.timers.cancelAll()
	for _, inst := range r.entries {
		inst.Running = false
	}
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.log.Debug("标记所有实例为未运行", "count", len(snap))
	r.publish(snap)
}

// Expire 将 key 对应的实例标记为未运行
//
// 实例不存在或已经未运行时为空操作，不通知。
func (r *Registry) Expire(key types.InstanceKey) {
	r.expire(key, nil)
}

// expireTimer 定时器回调
func (r *Registry) expireTimer(key types.InstanceKey, e *timerEntry) {
	r.expire(key, e)
}

// expire e 非 nil 时只有它仍是当前定时器才生效
func (r *Registry) expire(key types.InstanceKey, e *timerEntry) {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if e != nil {
		if !r.timers.current(key, e) {
			r.mu.Unlock()
			return
		}
		r.timers.release(key)
	} else {
		r.timers.cancel(key)
	}

	inst, ok := r.entries[key]
	if !ok || !inst.Running {
		r.mu.Unlock()
		return
	}
	inst.Running = false
	name := inst.Name
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.log.Info("实例超时", "id", key.String(), "name", name)
	r.publish(snap)
}

// CancelTimers 取消全部存活定时器，不改变实例状态也不通知
func (r *Registry) CancelTimers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timers.cancelAll()
}

// Close 释放注册表
//
// 取消全部定时器、清空实例与订阅者。之后的操作与迟到的定时器
// 回调都是空操作。
func (r *Registry) Close() {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.timers.cancelAll()
	r.entries = make(map[types.InstanceKey]*types.Instance)
	r.order = nil
	r.mu.Unlock()

	r.hub.Clear()
	r.metrics.SetInstances(0, 0)
}

// ============================================================================
//                              查询与订阅
// ============================================================================

// Snapshot 返回按首次发现顺序排列的深拷贝
func (r *Registry) Snapshot() []types.Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Get 按键查找实例
func (r *Registry) Get(key types.InstanceKey) (types.Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.entries[key]
	if !ok {
		return types.Instance{}, false
	}
	return inst.Clone(), true
}

// Len 返回实例数
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// PendingTimers 返回未触发的存活定时器数
func (r *Registry) PendingTimers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timers.len()
}

// Subscribe 注册订阅者并立即以当前快照回调一次
//
// 注册与首次回调在 notifyMu 内完成，订阅者不会错过或重复
// 任何变更。注册表关闭后返回零值句柄。
func (r *Registry) Subscribe(cb Callback) hub.Handle {
	if cb == nil {
		return 0
	}

	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0
	}
	snap := r.snapshotLocked()
	r.mu.Unlock()

	h := r.hub.Add(cb)
	r.hub.Deliver(h, snap)
	return h
}

// Unsubscribe 取消订阅，返回订阅是否存在
func (r *Registry) Unsubscribe(h hub.Handle) bool {
	return r.hub.Remove(h)
}

// ============================================================================
//                              内部方法
// ============================================================================

// snapshotLocked 调用方持有 mu
func (r *Registry) snapshotLocked() []types.Instance {
	out := make([]types.Instance, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.entries[key].Clone())
	}
	return out
}

// publish 调用方持有 notifyMu
func (r *Registry) publish(snap []types.Instance) {
	r.metrics.SetInstances(len(snap), len(types.Running(snap)))
	r.hub.Publish(snap)
}
