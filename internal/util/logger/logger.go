// Package logger 提供统一的日志系统
//
// 基于标准库 log/slog，支持：
//   - 按子系统配置日志级别（含 trace）
//   - 环境变量配置（SHARDS_LOG_LEVEL, SHARDS_LOG_FORMAT）
//   - 结构化日志
//
// 组件不持有全局 Logger，而是在构造时接收 *slog.Logger。
// Provider 负责按子系统派生这些 Logger：
//
//	p := logger.NewProvider(logger.ParseConfig("broadcast=trace,info", "text"), os.Stderr)
//	l := p.Logger("broadcast")
//	l.Info("listening", "addr", addr)
//
// 测试中使用 NewCapture 捕获日志并断言。
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Provider 按子系统创建并缓存 Logger
type Provider struct {
	cfg  *Config
	out  io.Writer
	base *slog.Logger

	mu      sync.Mutex
	loggers map[string]*slog.Logger
	levels  map[string]*slog.LevelVar
}

// NewProvider 创建 Provider
//
// cfg 为 nil 时使用环境变量配置；w 为 nil 时输出到 stderr。
func NewProvider(cfg *Config, w io.Writer) *Provider {
	if cfg == nil {
		cfg = ConfigFromEnv()
	}
	if w == nil {
		w = os.Stderr
	}
	return &Provider{
		cfg:     cfg,
		out:     &lockedWriter{w: w},
		loggers: make(map[string]*slog.Logger),
		levels:  make(map[string]*slog.LevelVar),
	}
}

// FromLogger 创建以 l 为基础的 Provider
//
// 子系统 Logger 为 l.With("subsystem", name)，级别由 l 的 Handler 决定，
// SetLevel 不生效。嵌入方已有自己的日志体系时使用。
func FromLogger(l *slog.Logger) *Provider {
	return &Provider{
		cfg:     ConfigFromEnv(),
		base:    OrDiscard(l),
		loggers: make(map[string]*slog.Logger),
		levels:  make(map[string]*slog.LevelVar),
	}
}

// Logger 获取指定子系统的 Logger
//
// 同一子系统多次调用返回相同的 Logger 实例。
func (p *Provider) Logger(subsystem string) *slog.Logger {
	p.mu.Lock()
	defer p.mu.Unlock()

	if l, ok := p.loggers[subsystem]; ok {
		return l
	}

	if p.base != nil {
		l := p.base.With("subsystem", subsystem)
		p.loggers[subsystem] = l
		return l
	}

	level := new(slog.LevelVar)
	level.Set(p.cfg.LevelForSubsystem(subsystem))

	l := slog.New(newHandler(p.out, subsystem, level, p.cfg))
	p.loggers[subsystem] = l
	p.levels[subsystem] = level
	return l
}

// SetLevel 动态设置子系统的日志级别
//
// 这允许在运行时调整日志级别，无需重启。
func (p *Provider) SetLevel(subsystem string, level slog.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if lv, ok := p.levels[subsystem]; ok {
		lv.Set(level)
	}
}

// SetGlobalLevel 设置所有已创建子系统的日志级别
func (p *Provider) SetGlobalLevel(level slog.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.DefaultLevel = level
	for _, lv := range p.levels {
		lv.Set(level)
	}
}

// Discard 返回一个丢弃所有日志的 Logger
//
// 组件未注入 Logger 时使用，避免输出干扰。
func Discard() *slog.Logger {
	return slog.New(DiscardHandler())
}

// OrDiscard 返回 l，l 为 nil 时返回丢弃型 Logger
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
