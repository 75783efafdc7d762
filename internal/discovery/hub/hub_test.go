package hub

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shards-lang/go-attach/internal/util/logger"
)

// TestHub_PublishOrder 测试按订阅顺序投递
func TestHub_PublishOrder(t *testing.T) {
	h := New[int](nil)

	var got []string
	h.Add(func(v int) { got = append(got, "a") })
	h.Add(func(v int) { got = append(got, "b") })
	h.Add(func(v int) { got = append(got, "c") })

	h.Publish(1)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

// TestHub_Remove 测试取消订阅
func TestHub_Remove(t *testing.T) {
	h := New[int](nil)

	var a, b int
	ha := h.Add(func(v int) { a += v })
	h.Add(func(v int) { b += v })

	assert.True(t, h.Remove(ha))
	assert.False(t, h.Remove(ha))
	assert.False(t, h.Remove(0))

	h.Publish(5)
	assert.Equal(t, 0, a)
	assert.Equal(t, 5, b)
	assert.Equal(t, 1, h.Len())
}

// TestHub_NilCallback 测试 nil 回调不被添加
func TestHub_NilCallback(t *testing.T) {
	h := New[int](nil)
	assert.Equal(t, Handle(0), h.Add(nil))
	assert.Equal(t, 0, h.Len())
}

// TestHub_PanicIsolation 测试回调 panic 不影响其它订阅者
func TestHub_PanicIsolation(t *testing.T) {
	log, capture := logger.NewCapture()
	h := New[string](log)

	var got []string
	h.Add(func(v string) { got = append(got, "first:"+v) })
	h.Add(func(v string) { panic("boom") })
	h.Add(func(v string) { got = append(got, "third:"+v) })

	require.NotPanics(t, func() { h.Publish("x") })
	assert.Equal(t, []string{"first:x", "third:x"}, got)
	assert.Equal(t, int64(1), h.Panics())
	assert.Equal(t, 1, capture.Count(slog.LevelError))
}

// TestHub_Deliver 测试只向单个订阅者投递
func TestHub_Deliver(t *testing.T) {
	h := New[int](nil)

	var a, b int
	h.Add(func(v int) { a = v })
	hb := h.Add(func(v int) { b = v })

	assert.True(t, h.Deliver(hb, 7))
	assert.Equal(t, 0, a)
	assert.Equal(t, 7, b)

	assert.False(t, h.Deliver(Handle(99), 1))
}

// TestHub_RemoveDuringPublish 测试回调中取消订阅
func TestHub_RemoveDuringPublish(t *testing.T) {
	h := New[int](nil)

	var calls int
	var self Handle
	self = h.Add(func(int) {
		calls++
		h.Remove(self)
	})
	h.Add(func(int) { calls++ })

	h.Publish(1)
	h.Publish(2)
	assert.Equal(t, 3, calls)
}

// TestHub_Clear 测试清空订阅
func TestHub_Clear(t *testing.T) {
	h := New[int](nil)
	h.Add(func(int) { t.Fatal("should not be called") })
	h.Clear()
	h.Publish(1)
	assert.Equal(t, 0, h.Len())
}

// TestHub_Concurrent 测试并发订阅与发布
func TestHub_Concurrent(t *testing.T) {
	h := New[int](nil)

	var mu sync.Mutex
	total := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := h.Add(func(v int) {
				mu.Lock()
				total += v
				mu.Unlock()
			})
			h.Publish(1)
			h.Remove(id)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, h.Len())
	assert.Positive(t, total)
}
