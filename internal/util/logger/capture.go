package logger

import (
	"context"
	"log/slog"
	"sync"
)

// Entry 一条被捕获的日志
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// Capture 记录所有日志（含 trace）的内存 Handler，用于测试断言
type Capture struct {
	mu      *sync.Mutex
	entries *[]Entry
	attrs   []slog.Attr
	group   string
}

// NewCapture 创建捕获型 Logger 及其记录
func NewCapture() (*slog.Logger, *Capture) {
	c := &Capture{mu: new(sync.Mutex), entries: new([]Entry)}
	return slog.New(c), c
}

// Enabled 捕获所有级别
func (c *Capture) Enabled(context.Context, slog.Level) bool { return true }

// Handle 记录一条日志
func (c *Capture) Handle(_ context.Context, r slog.Record) error {
	e := Entry{Level: r.Level, Message: r.Message, Attrs: make(map[string]any)}
	for _, a := range c.attrs {
		e.Attrs[c.key(a.Key)] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		e.Attrs[c.key(a.Key)] = a.Value.Any()
		return true
	})

	c.mu.Lock()
	*c.entries = append(*c.entries, e)
	c.mu.Unlock()
	return nil
}

// WithAttrs 添加属性
func (c *Capture) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := *c
	n.attrs = append(append([]slog.Attr(nil), c.attrs...), attrs...)
	return &n
}

// WithGroup 添加组
func (c *Capture) WithGroup(name string) slog.Handler {
	n := *c
	n.group = c.key(name)
	return &n
}

func (c *Capture) key(k string) string {
	if c.group == "" {
		return k
	}
	return c.group + "." + k
}

// Entries 返回已捕获日志的副本
func (c *Capture) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry(nil), *c.entries...)
}

// Count 返回不低于 level 的日志条数
func (c *Capture) Count(level slog.Level) int {
	n := 0
	for _, e := range c.Entries() {
		if e.Level >= level {
			n++
		}
	}
	return n
}

// Find 返回消息为 msg 的日志
func (c *Capture) Find(msg string) []Entry {
	var out []Entry
	for _, e := range c.Entries() {
		if e.Message == msg {
			out = append(out, e)
		}
	}
	return out
}
