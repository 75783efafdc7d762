// Package hub 实现实例变更通知的订阅中心
//
// Hub 按订阅顺序同步调用回调。某个回调 panic 只会被记录并跳过，
// 不影响其它订阅者，也不影响发布方。
//
// Hub 本身不保证跨 Publish 的顺序，调用方（注册表）负责串行化发布。
package hub

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/shards-lang/go-attach/internal/util/logger"
)

// Handle 订阅句柄，由 Add 返回，用于 Remove 与 Deliver
//
// 零值不对应任何订阅。
type Handle uint64

// subscriber 单个订阅
type subscriber[T any] struct {
	id Handle
	fn func(T)
}

// Hub 订阅中心
type Hub[T any] struct {
	log *slog.Logger

	mu   sync.RWMutex
	next Handle
	subs []subscriber[T]

	// panics 回调 panic 次数
	panics atomic.Int64
}

// New 创建订阅中心
func New[T any](log *slog.Logger) *Hub[T] {
	return &Hub[T]{log: logger.OrDiscard(log)}
}

// Add 添加订阅，返回句柄
//
// fn 为 nil 时不添加，返回零值句柄。
func (h *Hub[T]) Add(fn func(T)) Handle {
	if fn == nil {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	h.subs = append(h.subs, subscriber[T]{id: h.next, fn: fn})
	return h.next
}

// Remove 移除订阅，返回订阅是否存在
func (h *Hub[T]) Remove(id Handle) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, s := range h.subs {
		if s.id == id {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish 按订阅顺序向所有订阅者投递 v
//
// 回调在调用方 goroutine 中执行，且不持有 Hub 的锁，
// 回调内可以 Add/Remove。
func (h *Hub[T]) Publish(v T) {
	h.mu.RLock()
	subs := h.subs
	h.mu.RUnlock()

	for _, s := range subs {
		h.call(s, v)
	}
}

// Deliver 只向 id 对应的订阅者投递 v，返回订阅是否存在
func (h *Hub[T]) Deliver(id Handle, v T) bool {
	h.mu.RLock()
	var (
		target subscriber[T]
		found  bool
	)
	for _, s := range h.subs {
		if s.id == id {
			target, found = s, true
			break
		}
	}
	h.mu.RUnlock()

	if found {
		h.call(target, v)
	}
	return found
}

// Clear 移除所有订阅
func (h *Hub[T]) Clear() {
	h.mu.Lock()
	h.subs = nil
	h.mu.Unlock()
}

// Len 返回订阅数
func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Panics 返回回调 panic 的累计次数
func (h *Hub[T]) Panics() int64 {
	return h.panics.Load()
}

// call 调用单个回调并隔离 panic
func (h *Hub[T]) call(s subscriber[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			h.panics.Add(1)
			h.log.Error("订阅回调 panic", "handle", uint64(s.id), "panic", fmt.Sprint(r))
		}
	}()
	s.fn(v)
}
