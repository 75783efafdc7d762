package attach

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/shards-lang/go-attach/config"
)

// Option 客户端配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	config     *config.Config
	configSet  bool
	logger     *slog.Logger
	clock      clock.Clock
	launcher   Launcher
	notifier   Notifier
	prober     Prober
	registerer prometheus.Registerer
	bridge     bool
	fxOptions  []fx.Option
}

// newOptions 应用选项并补全缺省值
//
// 没有通过 WithConfig 指定配置时使用默认配置并叠加 SHARDS_* 环境变量。
func newOptions(lookup config.LookupFunc, opts ...Option) (*options, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if !o.configSet {
		o.config = config.NewConfig()
		if err := config.ApplyEnv(o.config, lookup); err != nil {
			return nil, err
		}
	}
	if o.clock == nil {
		o.clock = clock.New()
	}
	return o, nil
}

// WithConfig 使用给定的统一配置（不再叠加环境变量）
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		o.config = cfg
		o.configSet = true
		return nil
	}
}

// WithConfigFile 从 JSON/JSONC 文件加载配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		o.config = cfg
		o.configSet = true
		return nil
	}
}

// WithLogger 使用给定 Logger 作为所有子系统日志的基础
func WithLogger(l *slog.Logger) Option {
	return func(o *options) error {
		o.logger = l
		return nil
	}
}

// WithClock 设置时钟（测试中使用 clock.Mock）
func WithClock(c clock.Clock) Option {
	return func(o *options) error {
		o.clock = c
		return nil
	}
}

// WithLauncher 设置启动调试会话的宿主，缺省只确认目标可达
func WithLauncher(l Launcher) Option {
	return func(o *options) error {
		o.launcher = l
		return nil
	}
}

// WithNotifier 设置展示错误与警告的宿主
func WithNotifier(n Notifier) Option {
	return func(o *options) error {
		o.notifier = n
		return nil
	}
}

// WithProber 替换可达性探测（缺省为 TCP 连接）
func WithProber(p Prober) Option {
	return func(o *options) error {
		o.prober = p
		return nil
	}
}

// WithMetricsRegisterer 把指标注册到 reg
//
// reg 同时实现 prometheus.Gatherer 时，HTTP 桥的 /metrics 从它读取。
// 缺省使用客户端私有的 Registry。
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithBridge 启用 HTTP 桥，监听地址取自 bridge.listen_addr
func WithBridge() Option {
	return func(o *options) error {
		o.bridge = true
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.fxOptions = append(o.fxOptions, opts...)
		return nil
	}
}
