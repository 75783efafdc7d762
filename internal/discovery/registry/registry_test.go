package registry

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shards-lang/go-attach/pkg/types"
)

// recorder 记录每次通知的快照
type recorder struct {
	mu    sync.Mutex
	calls [][]types.Instance
}

func (r *recorder) cb(snap []types.Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, snap)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recorder) last() []types.Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

func announce(name string, port int) *types.Announcement {
	return types.NewAnnouncement(name, port)
}

func newTestRegistry(t *testing.T) (*Registry, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	r := New(30*time.Second, mock, nil, nil)
	t.Cleanup(r.Close)
	return r, mock
}

// TestRegistry_Upsert 测试首次发现
func TestRegistry_Upsert(t *testing.T) {
	r, mock := newTestRegistry(t)

	inst := r.Upsert(announce("game", 4000), "10.0.0.1")
	assert.Equal(t, "10.0.0.1:4000", inst.ID())
	assert.Equal(t, "game", inst.Name)
	assert.Equal(t, types.DefaultArgs, inst.Args)
	assert.True(t, inst.Running)
	assert.Equal(t, mock.Now(), inst.FirstSeen)
	assert.Equal(t, 1, r.PendingTimers())
}

// TestRegistry_Defaults 测试缺省名称
func TestRegistry_Defaults(t *testing.T) {
	r, _ := newTestRegistry(t)

	inst := r.Upsert(announce("", 4100), "10.0.0.1")
	assert.Equal(t, "Shards Instance (4100)", inst.Name)
}

// TestRegistry_IdempotentReannouncement 测试重复广播不产生重复实例
func TestRegistry_IdempotentReannouncement(t *testing.T) {
	r, mock := newTestRegistry(t)
	rec := &recorder{}
	r.Subscribe(rec.cb)

	first := r.Upsert(announce("game", 4000), "10.0.0.1")
	mock.Add(3 * time.Second)
	msg := announce("renamed", 4000)
	msg.Instance.Args = "shards run other.shs"
	second := r.Upsert(msg, "10.0.0.1")

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "renamed", snap[0].Name)
	assert.Equal(t, "shards run other.shs", snap[0].Args)
	assert.True(t, snap[0].Running)
	assert.Equal(t, first.FirstSeen, second.FirstSeen)
	assert.Equal(t, mock.Now(), second.LastSeen)
	assert.Equal(t, 1, r.PendingTimers())

	// 订阅回放 + 两次 upsert
	assert.Equal(t, 3, rec.count())
}

// TestRegistry_IdentityBySourceAndPort 测试标识由来源地址与端口决定
func TestRegistry_IdentityBySourceAndPort(t *testing.T) {
	r, _ := newTestRegistry(t)

	r.Upsert(announce("a", 4000), "10.0.0.1")
	r.Upsert(announce("b", 4000), "10.0.0.2")
	r.Upsert(announce("c", 4001), "10.0.0.1")

	snap := r.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "10.0.0.1:4000", snap[0].ID())
	assert.Equal(t, "10.0.0.2:4000", snap[1].ID())
	assert.Equal(t, "10.0.0.1:4001", snap[2].ID())
}

// TestRegistry_Expiry 测试存活窗口到期恰好一次
func TestRegistry_Expiry(t *testing.T) {
	r, mock := newTestRegistry(t)
	rec := &recorder{}
	r.Subscribe(rec.cb)

	r.Upsert(announce("game", 4000), "10.0.0.1")
	require.Equal(t, 2, rec.count())

	mock.Add(30*time.Second - time.Millisecond)
	assert.True(t, r.Snapshot()[0].Running)
	assert.Equal(t, 2, rec.count())

	mock.Add(time.Millisecond)
	assert.Eventually(t, func() bool { return rec.count() == 3 }, time.Second, 5*time.Millisecond)
	assert.False(t, rec.last()[0].Running)
	assert.Equal(t, 0, r.PendingTimers())

	mock.Add(time.Minute)
	assert.Never(t, func() bool { return rec.count() > 3 }, 50*time.Millisecond, 5*time.Millisecond)

	// 不会被删除
	assert.Equal(t, 1, r.Len())
}

// TestRegistry_RefreshExtendsWindow 测试窗口内的广播推迟过期
func TestRegistry_RefreshExtendsWindow(t *testing.T) {
	r, mock := newTestRegistry(t)
	rec := &recorder{}
	r.Subscribe(rec.cb)

	r.Upsert(announce("game", 4000), "10.0.0.1")
	mock.Add(29 * time.Second)
	r.Upsert(announce("game", 4000), "10.0.0.1")
	require.Equal(t, 3, rec.count())

	// T+58s 仍在运行
	mock.Add(29 * time.Second)
	assert.Never(t, func() bool { return rec.count() > 3 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.True(t, r.Snapshot()[0].Running)

	// T+59s 过期
	mock.Add(time.Second)
	assert.Eventually(t, func() bool { return rec.count() == 4 }, time.Second, 5*time.Millisecond)
	assert.False(t, r.Snapshot()[0].Running)
}

// TestRegistry_ResumeAfterExpiry 测试过期后再次广播恢复运行
func TestRegistry_ResumeAfterExpiry(t *testing.T) {
	r, mock := newTestRegistry(t)

	r.Upsert(announce("game", 4000), "10.0.0.1")
	mock.Add(31 * time.Second)
	require.Eventually(t, func() bool { return !r.Snapshot()[0].Running }, time.Second, 5*time.Millisecond)

	inst := r.Upsert(announce("game", 4000), "10.0.0.1")
	assert.True(t, inst.Running)
	assert.Equal(t, 1, r.Len())
}

// TestRegistry_SubscriberReplay 测试订阅时回放当前快照
func TestRegistry_SubscriberReplay(t *testing.T) {
	r, _ := newTestRegistry(t)

	r.Upsert(announce("a", 4000), "10.0.0.1")
	r.Upsert(announce("b", 4001), "10.0.0.1")
	r.Upsert(announce("c", 4002), "10.0.0.1")

	rec := &recorder{}
	h := r.Subscribe(rec.cb)
	assert.NotZero(t, h)

	require.Equal(t, 1, rec.count())
	snap := rec.last()
	require.Len(t, snap, 3)
	assert.Equal(t, "a", snap[0].Name)
	assert.Equal(t, "b", snap[1].Name)
	assert.Equal(t, "c", snap[2].Name)
}

// TestRegistry_Unsubscribe 测试取消订阅
func TestRegistry_Unsubscribe(t *testing.T) {
	r, _ := newTestRegistry(t)
	rec := &recorder{}
	h := r.Subscribe(rec.cb)

	assert.True(t, r.Unsubscribe(h))
	r.Upsert(announce("a", 4000), "10.0.0.1")
	assert.Equal(t, 1, rec.count())
}

// TestRegistry_MarkAllStale 测试刷新时全部标记为未运行
func TestRegistry_MarkAllStale(t *testing.T) {
	r, mock := newTestRegistry(t)

	r.Upsert(announce("a", 4000), "10.0.0.1")
	r.Upsert(announce("b", 4001), "10.0.0.2")

	rec := &recorder{}
	r.Subscribe(rec.cb)

	r.MarkAllStale()
	require.Equal(t, 2, rec.count())
	for _, inst := range rec.last() {
		assert.False(t, inst.Running)
	}
	assert.Equal(t, 0, r.PendingTimers())

	// 定时器已取消，不会再有通知
	mock.Add(time.Minute)
	assert.Never(t, func() bool { return rec.count() > 2 }, 50*time.Millisecond, 5*time.Millisecond)
}

// TestRegistry_MarkAllStaleEmpty 测试空注册表也通知一次
func TestRegistry_MarkAllStaleEmpty(t *testing.T) {
	r, _ := newTestRegistry(t)
	rec := &recorder{}
	r.Subscribe(rec.cb)

	r.MarkAllStale()
	assert.Equal(t, 2, rec.count())
	assert.Empty(t, rec.last())
}

// TestRegistry_Expire 测试手动过期
func TestRegistry_Expire(t *testing.T) {
	r, _ := newTestRegistry(t)
	rec := &recorder{}
	r.Subscribe(rec.cb)

	key := r.Upsert(announce("a", 4000), "10.0.0.1").Key

	r.Expire(types.InstanceKey{Address: "10.9.9.9", Port: 1})
	assert.Equal(t, 2, rec.count())

	r.Expire(key)
	assert.Equal(t, 3, rec.count())
	assert.False(t, rec.last()[0].Running)
	assert.Equal(t, 0, r.PendingTimers())

	// 已经未运行，不再通知
	r.Expire(key)
	assert.Equal(t, 3, rec.count())
}

// TestRegistry_LateTimerIgnored 测试被替换的定时器晚到不生效
func TestRegistry_LateTimerIgnored(t *testing.T) {
	r, _ := newTestRegistry(t)

	key := r.Upsert(announce("a", 4000), "10.0.0.1").Key
	r.mu.Lock()
	stale := r.timers.entries[key]
	r.mu.Unlock()
	require.NotNil(t, stale)

	r.Upsert(announce("a", 4000), "10.0.0.1")
	r.expireTimer(key, stale)

	inst, ok := r.Get(key)
	require.True(t, ok)
	assert.True(t, inst.Running)
	assert.Equal(t, 1, r.PendingTimers())
}

// TestRegistry_CancelTimers 测试只取消定时器
func TestRegistry_CancelTimers(t *testing.T) {
	r, mock := newTestRegistry(t)
	rec := &recorder{}
	r.Subscribe(rec.cb)

	r.Upsert(announce("a", 4000), "10.0.0.1")
	r.CancelTimers()
	assert.Equal(t, 0, r.PendingTimers())
	assert.True(t, r.Snapshot()[0].Running)

	mock.Add(time.Minute)
	assert.Never(t, func() bool { return rec.count() > 2 }, 50*time.Millisecond, 5*time.Millisecond)
}

// TestRegistry_Close 测试释放后为空操作
func TestRegistry_Close(t *testing.T) {
	r, mock := newTestRegistry(t)
	rec := &recorder{}
	r.Subscribe(rec.cb)
	r.Upsert(announce("a", 4000), "10.0.0.1")

	r.Close()
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.PendingTimers())

	r.Upsert(announce("b", 4001), "10.0.0.1")
	r.MarkAllStale()
	mock.Add(time.Minute)
	assert.Equal(t, 0, r.Len())
	assert.Zero(t, r.Subscribe(rec.cb))
	assert.Never(t, func() bool { return rec.count() > 2 }, 50*time.Millisecond, 5*time.Millisecond)

	// 重复关闭
	assert.NotPanics(t, r.Close)
}

// TestRegistry_SnapshotIsCopy 测试快照不共享状态
func TestRegistry_SnapshotIsCopy(t *testing.T) {
	r, _ := newTestRegistry(t)
	msg := announce("a", 4000)
	msg.Capabilities = types.Capabilities{"x": true}
	r.Upsert(msg, "10.0.0.1")

	snap := r.Snapshot()
	snap[0].Name = "mutated"
	snap[0].Capabilities["x"] = false

	again := r.Snapshot()
	assert.Equal(t, "a", again[0].Name)
	assert.True(t, again[0].Capabilities["x"])
}

// TestRegistry_ConcurrentUpserts 测试并发写入与读取
func TestRegistry_ConcurrentUpserts(t *testing.T) {
	r := New(time.Hour, nil, nil, nil)
	defer r.Close()

	rec := &recorder{}
	r.Subscribe(rec.cb)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				r.Upsert(announce(fmt.Sprintf("i%d", i), 5000+i), "10.0.0.1")
				_ = r.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 16, r.Len())
	assert.Equal(t, 1+16*20, rec.count())

	// 快照长度单调不减，说明通知顺序与变更顺序一致
	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i := 1; i < len(rec.calls); i++ {
		assert.GreaterOrEqual(t, len(rec.calls[i]), len(rec.calls[i-1]))
	}
}
