package broadcast

import (
	"context"
	"log/slog"
	"net"

	"github.com/benbjohnson/clock"

	"github.com/shards-lang/go-attach/internal/metrics"
)

// ListenFunc 打开数据报套接字
type ListenFunc func(ctx context.Context, network, address string) (net.PacketConn, error)

// defaultListen 使用带套接字选项的 ListenConfig
func defaultListen(ctx context.Context, network, address string) (net.PacketConn, error) {
	return listenConfig().ListenPacket(ctx, network, address)
}

// options Listener 与 Service 共用的可选依赖
type options struct {
	clock   clock.Clock
	log     *slog.Logger
	metrics *metrics.Metrics
	listen  ListenFunc
	isTemp  func(error) bool
}

// Option 可选依赖
type Option func(*options)

// WithClock 设置时钟（测试中使用 clock.Mock 驱动重启）
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger 设置 Logger
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithListenFunc 替换套接字打开方式
func WithListenFunc(fn ListenFunc) Option {
	return func(o *options) {
		o.listen = fn
	}
}

// WithTemporaryClassifier 替换临时读错误的判定
func WithTemporaryClassifier(fn func(error) bool) Option {
	return func(o *options) {
		o.isTemp = fn
	}
}

func applyOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.clock == nil {
		o.clock = clock.New()
	}
	if o.listen == nil {
		o.listen = defaultListen
	}
	return o
}
